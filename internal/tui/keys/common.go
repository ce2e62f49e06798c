package keys

import "github.com/charmbracelet/bubbles/key"

// Common key bindings used across TUI commands
type CommonKeys struct {
	Quit       key.Binding
	Help       key.Binding
	InsertMode key.Binding
	Escape     key.Binding
}

func NewCommonKeys() CommonKeys {
	return CommonKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		InsertMode: key.NewBinding(
			key.WithKeys("i", "I"),
			key.WithHelp("i", "insert mode"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "normal mode"),
		),
	}
}

// MonitorKeys are the bindings of the serial monitor view
type MonitorKeys struct {
	CommonKeys
	Clear          key.Binding
	CycleDisplay   key.Binding
	ToggleOpen     key.Binding
	SelectPort     key.Binding
	ChangeBaudRate key.Binding
	Send           key.Binding
	ToggleSendMode key.Binding
	LineEnding     key.Binding
	HistoryUp      key.Binding
	HistoryDown    key.Binding
}

func NewMonitorKeys() MonitorKeys {
	return MonitorKeys{
		CommonKeys: NewCommonKeys(),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear output"),
		),
		CycleDisplay: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "text/hex/ascii"),
		),
		ToggleOpen: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open/close"),
		),
		SelectPort: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "select port"),
		),
		ChangeBaudRate: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "baud rate"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		ToggleSendMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "ascii/hex input"),
		),
		LineEnding: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "line ending"),
		),
		HistoryUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous"),
		),
		HistoryDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next"),
		),
	}
}

func (k MonitorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.ToggleOpen, k.SelectPort, k.ChangeBaudRate, k.InsertMode, k.Quit}
}

func (k MonitorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleOpen, k.SelectPort, k.ChangeBaudRate},
		{k.InsertMode, k.Escape, k.Send, k.ToggleSendMode, k.LineEnding},
		{k.Clear, k.CycleDisplay, k.Help, k.Quit},
	}
}

// PickerKeys are the bindings of a selection list
type PickerKeys struct {
	Choose key.Binding
	Cancel key.Binding
}

func NewPickerKeys() PickerKeys {
	return PickerKeys{
		Choose: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "choose"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
	}
}
