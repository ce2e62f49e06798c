/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/internal/tui/components"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data]",
	Short: "Send data to the selected serial port",
	Long: `Send data to the selected serial port.

Data can be provided as:
- Command line argument: serialmon send "Hello World"
- From stdin (pipe): echo "test data" | serialmon send
- Interactive mode: serialmon send (prompts for input)

The port is opened at the remembered baud rate, the data is written
verbatim and the port is closed again. With --wait replies are printed
to stdout for that long before closing.

Example usage:
  serialmon send "AT+GMR" --newline --wait 500ms
  serialmon send --hex "48 65 6c 6c 6f"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data string
		if len(args) == 1 {
			data = args[0]
		} else if isTerminal(os.Stdin) {
			data = promptForData(cmd.OutOrStdout(), os.Stdin)
		} else {
			stdinData, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			data = strings.TrimRight(string(stdinData), "\r\n")
		}

		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		wait, _ := cmd.Flags().GetDuration("wait")

		payload, err := encodePayload(data, hexMode, addNewline)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		sink := serialmon.NewWriterSink(out, func(err error) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", errorStyle.Render("✗"), err)
		})
		a, err := newApp(cmd.Context(), viper.GetViper(), withSink(sink))
		if err != nil {
			return err
		}
		defer a.Close()

		return sendData(cmd.Context(), a, cmd.ErrOrStderr(), payload, wait)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().DurationP("wait", "w", 0, "Print replies for this long before closing")
}

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

func promptForData(w io.Writer, r io.Reader) string {
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	fmt.Fprint(w, promptStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

// encodePayload turns command line data into the bytes to write
func encodePayload(data string, hexMode, addNewline bool) (string, error) {
	if hexMode {
		b, err := components.ParseHexInput(strings.NewReplacer("0x", "", "0X", "").Replace(data))
		if err != nil {
			return "", fmt.Errorf("invalid hex data: %w", err)
		}
		return string(b), nil
	}
	if addNewline {
		data += "\n"
	}
	return data, nil
}

func sendData(ctx context.Context, a *app, w io.Writer, data string, wait time.Duration) error {
	fmt.Fprintf(w, "%s Opening %s...\n", infoStyle.Render("⚡"), a.sess.Status().Port)

	notice, err := a.sess.Open(ctx)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("✗"), err)
	}
	if notice == serialmon.NoticeNoSelection {
		return fmt.Errorf("%s %s, run \"serialmon select\" first", errorStyle.Render("✗"), notice)
	}

	notice, err = a.sess.Send(ctx, data)
	if err != nil {
		return fmt.Errorf("%s failed to send data: %w", errorStyle.Render("✗"), err)
	}
	if notice != serialmon.NoticeNone {
		return fmt.Errorf("%s %s", errorStyle.Render("✗"), notice)
	}

	fmt.Fprintf(w, "%s Sent %d bytes at %s baud\n", successStyle.Render("✓"), len(data), a.sess.Status().BaudRate)

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
	}

	if _, err := a.sess.Close(context.Background()); err != nil {
		return err
	}
	return nil
}
