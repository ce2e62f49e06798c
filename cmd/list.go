/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/serialmon"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all serial ports the configured driver can find.

With --vid and --pid only USB devices with those ids are listed. Ids are
hexadecimal with or without a 0x prefix.

Example usage:
  serialmon list
  serialmon list --table
  serialmon list --vid 2341 --pid 0043`,
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

		vid, _ := cmd.Flags().GetString("vid")
		pid, _ := cmd.Flags().GetString("pid")
		tableFormat, _ := cmd.Flags().GetBool("table")

		out := cmd.OutOrStdout()
		ports = filterPorts(ports, serialmon.DeviceFilter{VendorID: vid, ProductID: pid})
		if len(ports) == 0 {
			fmt.Fprintln(out, "No serial ports found")
			return nil
		}

		if tableFormat {
			renderTable(out, ports, a.sess.Port())
		} else {
			renderSimple(out, ports)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("vid", "", "Only list devices with this USB vendor id")
	listCmd.Flags().String("pid", "", "Only list devices with this USB product id")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterPorts keeps ports matching a complete filter, sorted by name
func filterPorts(ports []serialmon.PortDescriptor, filter serialmon.DeviceFilter) []serialmon.PortDescriptor {
	filtered := ports
	if !filter.IsZero() {
		filtered = nil
		for _, p := range ports {
			if filter.Matches(p) {
				filtered = append(filtered, p)
			}
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Name < filtered[j].Name })
	return filtered
}

// renderTable renders the port list in a styled static table format. The
// selected port is marked with an asterisk.
func renderTable(w io.Writer, ports []serialmon.PortDescriptor, selected string) {
	fmt.Fprintf(w, "Found %d serial port(s):\n\n", len(ports))

	portWidth := 18
	typeWidth := 16
	idWidth := 10
	descWidth := 30

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240")).
		PaddingBottom(1)

	cellStyle := lipgloss.NewStyle().
		PaddingRight(2)

	header := fmt.Sprintf("  %-*s %-*s %-*s %-*s",
		portWidth, "Port",
		typeWidth, "Type",
		idWidth, "VID:PID",
		descWidth, "Description")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, p := range ports {
		mark := " "
		if p.Name == selected {
			mark = "*"
		}
		ids := ""
		if p.VendorID != "" || p.ProductID != "" {
			ids = p.VendorID + ":" + p.ProductID
		}
		desc := p.Description()
		if p.SerialNumber != "" {
			desc = strings.TrimSpace(desc + " " + p.SerialNumber)
		}
		row := fmt.Sprintf("%s %-*s %-*s %-*s %-*s",
			mark,
			portWidth, p.Name,
			typeWidth, getPortType(p.Name),
			idWidth, ids,
			descWidth, desc)
		fmt.Fprintln(w, cellStyle.Render(row))
	}
}

// renderSimple renders the port list in simple text format
func renderSimple(w io.Writer, ports []serialmon.PortDescriptor) {
	for _, p := range ports {
		fmt.Fprintln(w, p.Name)
	}
}

// getPortType returns a more specific type classification for the port
func getPortType(name string) string {
	name = strings.ToLower(filepath.Base(name))
	switch {
	case strings.HasPrefix(name, "ttyusb"):
		return "USB Serial"
	case strings.HasPrefix(name, "ttyacm"):
		return "USB CDC/ACM"
	case strings.HasPrefix(name, "ttyama"):
		return "ARM Serial"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial"
	case strings.HasPrefix(name, "ttysac"):
		return "Samsung Serial"
	case strings.HasPrefix(name, "ttyths"):
		return "Tegra Serial"
	case strings.HasPrefix(name, "ttyo"):
		return "OMAP Serial"
	case strings.HasPrefix(name, "ttys"):
		return "Standard Serial"
	case strings.HasPrefix(name, "cu.") || strings.HasPrefix(name, "tty."):
		return "macOS Serial"
	case strings.HasPrefix(name, "com"):
		return "COM Port"
	default:
		return "Serial Port"
	}
}
