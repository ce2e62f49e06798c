/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/internal/tui/components"
	"github.com/allbin/serialmon/internal/tui/models"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Open the selected port and show its output",
	Long: `Open the selected serial port and show everything it sends.

The interactive monitor shows received data as text, hex or ASCII and can
send data, switch ports and change the baud rate while running:
  o      open/close the port
  p      select another port
  b      change the baud rate
  i      type data to send (Tab toggles ASCII/hex, Ctrl+L the line ending)
  h      cycle text/hex/ascii display
  ?      show all keys

With --plain received bytes are copied verbatim to stdout until
interrupted, which suits pipes and logging.

Example usage:
  serialmon monitor
  serialmon monitor --line-ending crlf
  serialmon monitor --plain > boot.log`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		if plain {
			return runPlainMonitor(cmd)
		}

		ending, _ := cmd.Flags().GetString("line-ending")
		lineEnding, err := parseLineEnding(ending)
		if err != nil {
			return err
		}
		return runMonitorTUI(cmd.Context(), lineEnding)
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().Bool("plain", false, "Copy received data to stdout without the interactive view")
	monitorCmd.Flags().String("line-ending", "lf", "Appended to typed text: none, lf, cr, crlf")
}

func parseLineEnding(s string) (components.LineEnding, error) {
	switch s {
	case "none", "":
		return components.LineEndingNone, nil
	case "lf":
		return components.LineEndingLF, nil
	case "cr":
		return components.LineEndingCR, nil
	case "crlf":
		return components.LineEndingCRLF, nil
	default:
		return 0, fmt.Errorf("unknown line ending %q", s)
	}
}

func runMonitorTUI(ctx context.Context, lineEnding components.LineEnding) error {
	relay := &models.Relay{}
	a, err := newApp(ctx, viper.GetViper(), withSink(relay), withStatusHook(relay.StatusHook), quietLogs())
	if err != nil {
		return err
	}
	defer a.Close()

	m := models.NewMonitor(ctx, a.sess, models.MonitorOptions{
		AutoOpen:   true,
		LineEnding: lineEnding,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	relay.Attach(p)

	_, err = p.Run()
	if err != nil && ctx.Err() != nil {
		// Interrupted from outside the program
		return nil
	}
	return err
}

func runPlainMonitor(cmd *cobra.Command) error {
	ctx := cmd.Context()
	errCh := make(chan error, 1)
	sink := serialmon.NewWriterSink(cmd.OutOrStdout(), func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	a, err := newApp(ctx, viper.GetViper(), withSink(sink))
	if err != nil {
		return err
	}
	defer a.Close()

	notice, err := a.sess.Open(ctx)
	if err != nil {
		return err
	}
	switch notice {
	case serialmon.NoticeNone:
	case serialmon.NoticeNoSelection:
		return fmt.Errorf("%s, run \"serialmon select\" first", notice)
	default:
		fmt.Fprintln(cmd.ErrOrStderr(), notice)
	}

	a.log.Info().Str("port", a.sess.Port()).Msg("monitoring, press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
