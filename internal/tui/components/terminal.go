package components

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// maxMessages bounds the scrollback kept for re-rendering
const maxMessages = 5000

type Terminal struct {
	viewport  viewport.Model
	formatter *DataFormatter
	messages  []DataReceivedMsg
}

func NewTerminal(width, height int) *Terminal {
	vp := viewport.New(width, height)
	return &Terminal{
		viewport:  vp,
		formatter: NewDataFormatter(DisplayText),
		messages:  make([]DataReceivedMsg, 0),
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
}

func (t *Terminal) Height() int {
	return t.viewport.Height
}

func (t *Terminal) AddMessage(msg DataReceivedMsg) {
	t.messages = append(t.messages, msg)
	if len(t.messages) > maxMessages {
		t.messages = t.messages[len(t.messages)-maxMessages:]
	}
	t.refresh()
}

func (t *Terminal) Messages() []DataReceivedMsg {
	return t.messages
}

func (t *Terminal) refresh() {
	t.viewport.SetContent(t.formatter.Render(t.messages))
	t.viewport.GotoBottom()
}

func (t *Terminal) Clear() {
	t.messages = make([]DataReceivedMsg, 0)
	t.viewport.SetContent("")
}

func (t *Terminal) CycleDisplayMode() {
	t.formatter.CycleDisplayMode()
	t.refresh()
}

func (t *Terminal) GetDisplayMode() DisplayMode {
	return t.formatter.GetDisplayMode()
}

func (t *Terminal) Update(msg tea.Msg) (*Terminal, tea.Cmd) {
	// Only pass certain message types to viewport to prevent it from consuming our key bindings
	switch msg.(type) {
	case tea.WindowSizeMsg, tea.MouseMsg:
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return t, cmd
	default:
		return t, nil
	}
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
