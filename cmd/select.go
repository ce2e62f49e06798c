/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/serialmon/internal/tui"
	"github.com/allbin/serialmon/session"
)

// selectCmd represents the select command
var selectCmd = &cobra.Command{
	Use:   "select [port]",
	Short: "Select the serial port to monitor",
	Long: `Select the serial port used by monitor, send and capture.

The port can be given by name, found by USB vendor and product id, or
picked from a list when running in a terminal. The choice is remembered.

Example usage:
  serialmon select /dev/ttyUSB0
  serialmon select --vid 2341 --pid 0043
  serialmon select`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []appOption
		if isTerminal(os.Stdin) {
			opts = append(opts, withChooser(tui.NewChooser()))
		}
		a, err := newApp(cmd.Context(), viper.GetViper(), opts...)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			if err := a.sess.SelectPort(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out, "Selected %s\n", a.sess.Port())
			return nil
		}

		vid, _ := cmd.Flags().GetString("vid")
		pid, _ := cmd.Flags().GetString("pid")
		notice, err := a.sess.SelectPortByFilter(cmd.Context(), a.filter(vid, pid))
		if errors.Is(err, session.ErrNoChooser) {
			return fmt.Errorf("no port given and not running in a terminal: %w", err)
		}
		if err := report(out, notice, err); err != nil {
			return err
		}
		if st := a.sess.Status(); st.Selected {
			fmt.Fprintf(out, "Selected %s\n", st.Port)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)

	selectCmd.Flags().String("vid", "", "USB vendor id of the device")
	selectCmd.Flags().String("pid", "", "USB product id of the device")
}

// isTerminal reports whether f is a character device rather than a pipe
func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice != 0
}
