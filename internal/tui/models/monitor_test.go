package models

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/internal/tui/components"
	"github.com/allbin/serialmon/session"
)

type echoTransport struct {
	mu     sync.Mutex
	open   bool
	writes []string
	events chan serialmon.Event
}

func (t *echoTransport) Write(data []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, string(data))
	return len(data), nil
}

func (t *echoTransport) SetBaudRate(int) error { return nil }

func (t *echoTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open {
		t.open = false
		close(t.events)
	}
	return nil
}

func (t *echoTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *echoTransport) Events() <-chan serialmon.Event { return t.events }

type echoDriver struct {
	ports []serialmon.PortDescriptor
	last  *echoTransport
}

func (d *echoDriver) Enumerate() ([]serialmon.PortDescriptor, error) { return d.ports, nil }

func (d *echoDriver) Open(string, int) (serialmon.Transport, error) {
	d.last = &echoTransport{open: true, events: make(chan serialmon.Event, 1)}
	return d.last, nil
}

func newMonitor(t *testing.T) (*Monitor, *echoDriver) {
	t.Helper()
	d := &echoDriver{ports: []serialmon.PortDescriptor{{Name: "/dev/ttyUSB1"}, {Name: "/dev/ttyACM0"}}}
	ctrl, err := serialmon.New(d)
	require.NoError(t, err)
	sess, err := session.New(context.Background(), ctrl)
	require.NoError(t, err)

	m := NewMonitor(context.Background(), sess, MonitorOptions{LineEnding: components.LineEndingLF})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	t.Cleanup(func() { sess.Shutdown(context.Background()) })
	return m, d
}

// run executes cmd and feeds its message back until no command is left
func run(m *Monitor, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				run(m, c)
			}
			return
		}
		_, cmd = m.Update(msg)
	}
}

func pressKey(m *Monitor, k tea.KeyMsg) {
	_, cmd := m.Update(k)
	run(m, cmd)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestOpenWithoutSelectionShowsPicker(t *testing.T) {
	m, d := newMonitor(t)

	pressKey(m, runes("o"))
	require.NotNil(t, m.picker)
	assert.Equal(t, OpSelect, m.pickerOp)
	assert.True(t, m.openAfter)

	// Ports are sorted, so the first row is /dev/ttyACM0
	pressKey(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.picker)
	require.NotNil(t, d.last)
	assert.True(t, m.statusBar.Status().Open)
	assert.Equal(t, "/dev/ttyACM0", m.statusBar.Status().Port)
	assert.Equal(t, "/dev/ttyACM0", m.sess.Controller().Port())
}

func TestCancelPickerKeepsClosed(t *testing.T) {
	m, d := newMonitor(t)

	pressKey(m, runes("o"))
	pressKey(m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, m.picker)
	assert.Nil(t, d.last)
	assert.Equal(t, serialmon.NoticeNoSelection.String(), m.statusBar.Message())
}

func TestSendAppendsLineEnding(t *testing.T) {
	m, d := newMonitor(t)
	require.NoError(t, m.sess.SelectPort("/dev/ttyUSB1"))
	run(m, m.openCmd())
	require.True(t, m.statusBar.Status().Open)

	pressKey(m, runes("i"))
	pressKey(m, runes("hi"))
	pressKey(m, tea.KeyMsg{Type: tea.KeyEnter})

	d.last.mu.Lock()
	assert.Equal(t, []string{serialmon.DefaultProbePayload, "hi\n"}, d.last.writes)
	d.last.mu.Unlock()

	msgs := m.terminal.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsTX)
	assert.Equal(t, "WRITTEN", msgs[0].Status)
}

func TestSendWhenClosedIsSkipped(t *testing.T) {
	m, _ := newMonitor(t)

	pressKey(m, runes("i"))
	pressKey(m, runes("x"))
	pressKey(m, tea.KeyMsg{Type: tea.KeyEnter})

	msgs := m.terminal.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "SKIPPED", msgs[0].Status)
	assert.Equal(t, serialmon.NoticeNotOpen.String(), m.statusBar.Message())
}

func TestBaudPicker(t *testing.T) {
	m, _ := newMonitor(t)

	pressKey(m, runes("b"))
	require.NotNil(t, m.picker)
	assert.Equal(t, OpBaud, m.pickerOp)

	pressKey(m, tea.KeyMsg{Type: tea.KeyDown})
	pressKey(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 19200, m.sess.Controller().BaudRate())
	assert.Equal(t, "19200", m.statusBar.Status().BaudRate)
}

func TestReceivedDataAndTransportError(t *testing.T) {
	m, _ := newMonitor(t)

	m.Update(components.DataReceivedMsg{Data: []byte("boot ok\n")})
	assert.Len(t, m.terminal.Messages(), 1)

	_, cmd := m.Update(TransportErrorMsg{Err: serialmon.ErrPortClosed})
	run(m, cmd)
	assert.Contains(t, m.statusBar.Message(), serialmon.ErrPortClosed.Error())
}

func TestQuit(t *testing.T) {
	m, _ := newMonitor(t)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
