/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/internal/tui"
	"github.com/allbin/serialmon/session"
)

// baudCmd represents the baud command
var baudCmd = &cobra.Command{
	Use:   "baud [rate]",
	Short: "Change the baud rate",
	Long: `Change the baud rate used when the port is opened.

Without a rate the recognized rates are offered in a list:
300, 1200, 2400, 4800, 9600, 19200, 38400, 57600, 74880, 115200, 230400
and 250000. Other positive rates are accepted with a warning.

Example usage:
  serialmon baud 115200
  serialmon baud`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rate := 0
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("%w: %q", serialmon.ErrInvalidBaudRate, args[0])
			}
			rate = n
		}

		var opts []appOption
		if isTerminal(os.Stdin) {
			opts = append(opts, withChooser(tui.NewChooser()))
		}
		a, err := newApp(cmd.Context(), viper.GetViper(), opts...)
		if err != nil {
			return err
		}
		defer a.Close()

		notice, err := a.sess.ChangeBaudRate(cmd.Context(), rate)
		if errors.Is(err, session.ErrNoChooser) {
			return fmt.Errorf("no rate given and not running in a terminal: %w", err)
		}
		if err := report(cmd.OutOrStdout(), notice, err); err != nil {
			return err
		}
		if notice == serialmon.NoticeNone {
			fmt.Fprintf(cmd.OutOrStdout(), "Baud rate %s\n", a.sess.Status().BaudRate)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(baudCmd)
}
