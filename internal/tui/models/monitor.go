package models

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/internal/tui/components"
	"github.com/allbin/serialmon/internal/tui/keys"
	"github.com/allbin/serialmon/internal/tui/styles"
	"github.com/allbin/serialmon/session"
)

// MonitorOptions configures a Monitor
type MonitorOptions struct {
	// AutoOpen opens the selected port on start
	AutoOpen   bool
	LineEnding components.LineEnding
}

// Monitor is the interactive serial monitor
type Monitor struct {
	ctx  context.Context
	sess *session.Session

	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.MonitorKeys

	picker    *components.Picker
	pickerOp  Op
	openAfter bool

	inputMode InputMode
	autoOpen  bool
	ready     bool
	width     int
	height    int
}

// NewMonitor creates the monitor model. Operations run against sess with ctx.
func NewMonitor(ctx context.Context, sess *session.Session, opts MonitorOptions) *Monitor {
	return &Monitor{
		ctx:       ctx,
		sess:      sess,
		terminal:  components.NewTerminal(0, 0), // sized by WindowSizeMsg
		statusBar: components.NewStatusBar(sess.Status()),
		input:     components.NewInput(opts.LineEnding),
		help:      help.New(),
		keys:      keys.NewMonitorKeys(),
		autoOpen:  opts.AutoOpen,
	}
}

func (m *Monitor) Init() tea.Cmd {
	if m.autoOpen {
		return m.openCmd()
	}
	return nil
}

func (m *Monitor) result(op Op, notice serialmon.Notice, err error) ResultMsg {
	return ResultMsg{Op: op, Notice: notice, Err: err, Status: m.sess.Status()}
}

func (m *Monitor) openCmd() tea.Cmd {
	m.statusBar.SetPending("opening")
	return func() tea.Msg {
		notice, err := m.sess.Open(m.ctx)
		return m.result(OpOpen, notice, err)
	}
}

func (m *Monitor) closeCmd() tea.Cmd {
	m.statusBar.SetPending("closing")
	return func() tea.Msg {
		notice, err := m.sess.Close(m.ctx)
		return m.result(OpClose, notice, err)
	}
}

func (m *Monitor) listCmd(openAfter bool) tea.Cmd {
	return func() tea.Msg {
		ports, err := m.sess.Controller().List()
		sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
		return PortsMsg{Ports: ports, Err: err, OpenAfter: openAfter}
	}
}

func (m *Monitor) selectCmd(port string) tea.Cmd {
	return func() tea.Msg {
		err := m.sess.SelectPort(port)
		return m.result(OpSelect, serialmon.NoticeNone, err)
	}
}

func (m *Monitor) baudCmd(rate int) tea.Cmd {
	return func() tea.Msg {
		notice, err := m.sess.ChangeBaudRate(m.ctx, rate)
		return m.result(OpBaud, notice, err)
	}
}

func (m *Monitor) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Status: m.sess.Status()}
	}
}

// sendCmd writes data and reports the transmitted bytes with their outcome
func (m *Monitor) sendCmd(data []byte) tea.Cmd {
	return func() tea.Msg {
		tx := components.DataReceivedMsg{Timestamp: time.Now(), Data: data, IsTX: true}
		notice, err := m.sess.Send(m.ctx, string(data))
		switch {
		case err != nil:
			tx.Status = "ERROR"
		case notice == serialmon.NoticeNotOpen:
			tx.Status = "SKIPPED"
		default:
			tx.Status = "WRITTEN"
		}
		return SentMsg{TX: tx, Result: m.result(OpSend, notice, err)}
	}
}

func (m *Monitor) layout() {
	if !m.ready {
		return
	}
	// Input area (with border) and status bar
	reserved := 3 + 1
	if m.help.ShowAll {
		reserved += lipgloss.Height(m.help.View(m.keys))
	}
	height := m.height - reserved - 1 // content border
	if height < 1 {
		height = 1
	}
	m.terminal.SetSize(m.width, height)
	m.input.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.help.Width = m.width
}

func (m *Monitor) handleResult(msg ResultMsg) tea.Cmd {
	m.statusBar.SetStatus(msg.Status)

	switch {
	case msg.Err != nil:
		m.statusBar.SetError(fmt.Errorf("%s: %w", msg.Op, msg.Err))
		return nil
	case msg.Op == OpOpen && msg.Notice == serialmon.NoticeNoSelection:
		// Nothing selected yet: let the user pick, then open
		m.statusBar.SetMessage(msg.Notice.String())
		return m.listCmd(true)
	case msg.Notice != serialmon.NoticeNone:
		m.statusBar.SetMessage(msg.Notice.String())
		return nil
	}

	switch msg.Op {
	case OpOpen:
		m.statusBar.SetMessage("opened " + msg.Status.Port)
	case OpClose:
		m.statusBar.SetMessage("closed")
	case OpSelect:
		m.statusBar.SetMessage("selected " + msg.Status.Port)
		if m.openAfter {
			m.openAfter = false
			return m.openCmd()
		}
	case OpBaud:
		m.statusBar.SetMessage("baud rate " + msg.Status.BaudRate)
	case OpSend:
		m.statusBar.SetMessage("")
	}
	return nil
}

func (m *Monitor) handlePickerDone() tea.Cmd {
	value, ok := m.picker.Chosen()
	op := m.pickerOp
	m.picker = nil

	if !ok {
		m.openAfter = false
		m.statusBar.SetMessage(serialmon.NoticeNoSelection.String())
		return nil
	}

	switch op {
	case OpSelect:
		return m.selectCmd(value)
	case OpBaud:
		rate, err := strconv.Atoi(value)
		if err != nil {
			m.statusBar.SetError(err)
			return nil
		}
		return m.baudCmd(rate)
	}
	return nil
}

func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()

	case ResultMsg:
		cmds = append(cmds, m.handleResult(msg))

	case StatusMsg:
		m.statusBar.SetStatus(msg.Status)

	case PortsMsg:
		switch {
		case msg.Err != nil:
			m.openAfter = false
			m.statusBar.SetError(fmt.Errorf("%s: %w", OpList, msg.Err))
		case len(msg.Ports) == 0:
			m.openAfter = false
			m.statusBar.SetMessage(serialmon.NoticeNoPortAvailable.String())
		default:
			m.openAfter = msg.OpenAfter
			m.picker = components.NewPortPicker(msg.Ports)
			m.pickerOp = OpSelect
		}

	case TransportErrorMsg:
		m.statusBar.SetError(msg.Err)
		cmds = append(cmds, m.refreshCmd())

	case components.DataReceivedMsg:
		m.terminal.AddMessage(msg)

	case SentMsg:
		m.terminal.AddMessage(msg.TX)
		cmds = append(cmds, m.handleResult(msg.Result))

	case tea.KeyMsg:
		if m.picker != nil {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			cmds = append(cmds, cmd)
			if m.picker.Done() {
				cmds = append(cmds, m.handlePickerDone())
			}
			return m, tea.Batch(cmds...)
		}

		if m.inputMode == InputModeInsert {
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.inputMode = InputModeNormal
				m.input.Blur()
				return m, nil
			case key.Matches(msg, m.keys.Send):
				if m.input.Value() == "" {
					return m, nil
				}
				data, err := m.input.Encode()
				if err != nil {
					m.statusBar.SetError(fmt.Errorf("invalid hex input: %w", err))
					return m, nil
				}
				m.input.AddToHistory(m.input.Value())
				m.input.SetValue("")
				return m, m.sendCmd(data)
			case key.Matches(msg, m.keys.HistoryUp):
				m.input.NavigateHistoryUp()
				return m, nil
			case key.Matches(msg, m.keys.HistoryDown):
				m.input.NavigateHistoryDown()
				return m, nil
			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleSendingMode()
				return m, nil
			case key.Matches(msg, m.keys.LineEnding):
				m.input.CycleLineEnding()
				m.statusBar.SetMessage("line ending: " + m.input.GetLineEnding().String())
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.InsertMode):
			m.inputMode = InputModeInsert
			m.input.Focus()
		case key.Matches(msg, m.keys.Clear):
			m.terminal.Clear()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.layout()
		case key.Matches(msg, m.keys.CycleDisplay):
			m.terminal.CycleDisplayMode()
		case key.Matches(msg, m.keys.ToggleOpen):
			if m.statusBar.Status().Open {
				cmds = append(cmds, m.closeCmd())
			} else {
				cmds = append(cmds, m.openCmd())
			}
		case key.Matches(msg, m.keys.SelectPort):
			cmds = append(cmds, m.listCmd(false))
		case key.Matches(msg, m.keys.ChangeBaudRate):
			current, _ := strconv.Atoi(m.statusBar.Status().BaudRate)
			m.picker = components.NewBaudPicker(serialmon.RecognizedBaudRates, current)
			m.pickerOp = OpBaud
		case key.Matches(msg, m.keys.ToggleSendMode):
			m.input.ToggleSendingMode()
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.terminal, cmd = m.terminal.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Monitor) View() string {
	var content string
	switch {
	case !m.ready:
		content = "Initializing..."
	case m.picker != nil:
		content = lipgloss.Place(m.width, m.terminal.Height(), lipgloss.Center, lipgloss.Center, m.picker.View())
	default:
		content = m.terminal.View()
	}

	parts := []string{
		styles.ContentBorderStyle.Render(content),
		m.input.ViewWithMode(m.inputMode == InputModeInsert),
	}
	if m.help.ShowAll {
		parts = append(parts, m.help.View(m.keys))
	}
	parts = append(parts, m.statusBar.ComprehensiveStatusBar(
		m.inputMode.String(),
		m.input.GetSendingMode().String(),
		m.terminal.GetDisplayMode().String(),
		time.Now().Format("15:04:05"),
	))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
