// Package tui holds the terminal user interface of serialmon
package tui

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/internal/tui/components"
)

// pickerModel runs a single picker as a whole program
type pickerModel struct {
	picker *components.Picker
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if m.picker.Done() {
		return m, tea.Quit
	}
	return m, cmd
}

func (m pickerModel) View() string {
	if m.picker.Done() {
		return ""
	}
	return m.picker.View() + "\n"
}

// Chooser asks on the terminal. It implements session.Chooser.
type Chooser struct {
	opts []tea.ProgramOption
}

// NewChooser creates a chooser; opts are passed to every tea.Program
func NewChooser(opts ...tea.ProgramOption) *Chooser {
	return &Chooser{opts: opts}
}

func (c *Chooser) run(ctx context.Context, picker *components.Picker) (string, bool, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, c.opts...)
	final, err := tea.NewProgram(pickerModel{picker: picker}, opts...).Run()
	if err != nil {
		return "", false, fmt.Errorf("failed to run picker: %w", err)
	}
	value, ok := final.(pickerModel).picker.Chosen()
	return value, ok, nil
}

// ChoosePort lets the user pick one of ports
func (c *Chooser) ChoosePort(ctx context.Context, ports []serialmon.PortDescriptor) (string, bool, error) {
	return c.run(ctx, components.NewPortPicker(ports))
}

// ChooseBaudRate lets the user pick one of rates, starting at current
func (c *Chooser) ChooseBaudRate(ctx context.Context, rates []int, current int) (int, bool, error) {
	value, ok, err := c.run(ctx, components.NewBaudPicker(rates, current))
	if err != nil || !ok {
		return 0, false, err
	}
	rate, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, err
	}
	return rate, true, nil
}
