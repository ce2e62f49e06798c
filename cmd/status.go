/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/internal/tui/styles"
	"github.com/allbin/serialmon/session"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the selected port and baud rate",
	Long: `Show the remembered port and baud rate, and whether the selected
device is currently attached.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), viper.GetViper())
		if err != nil {
			return err
		}
		defer a.Close()

		ports, err := a.ctrl.List()
		if err != nil {
			return err
		}
		renderStatus(cmd.OutOrStdout(), a.sess.Status(), ports, a.store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func renderStatus(w io.Writer, st session.Status, ports []serialmon.PortDescriptor, statePath string) {
	label := lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color("243"))

	attached := false
	for _, p := range ports {
		if p.Name == st.Port {
			attached = true
			break
		}
	}

	var state string
	switch {
	case !st.Selected:
		state = styles.GetStatusStyle(styles.StatusPending).Render("no port selected")
	case attached:
		state = styles.GetStatusStyle(styles.StatusOpen).Render("attached")
	default:
		state = styles.GetStatusStyle(styles.StatusClosed).Render("not attached")
	}

	fmt.Fprintf(w, "%s %s\n", label.Render("Port"), st.Port)
	fmt.Fprintf(w, "%s %s\n", label.Render("Device"), state)
	fmt.Fprintf(w, "%s %s\n", label.Render("Baud"), st.BaudRate)
	fmt.Fprintf(w, "%s %s\n", label.Render("Saved in"), statePath)
}
