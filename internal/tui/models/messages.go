package models

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/internal/tui/components"
	"github.com/allbin/serialmon/session"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

// Op names a session operation run in the background
type Op string

const (
	OpOpen   Op = "open"
	OpClose  Op = "close"
	OpSelect Op = "select port"
	OpBaud   Op = "change baud rate"
	OpList   Op = "list ports"
	OpSend   Op = "send"
)

// ResultMsg carries the outcome of an operation and the status after it
type ResultMsg struct {
	Op     Op
	Notice serialmon.Notice
	Err    error
	Status session.Status
}

// SentMsg carries the transmitted bytes and the send outcome
type SentMsg struct {
	TX     components.DataReceivedMsg
	Result ResultMsg
}

// PortsMsg carries an enumeration for the port picker
type PortsMsg struct {
	Ports     []serialmon.PortDescriptor
	Err       error
	OpenAfter bool
}

// TransportErrorMsg is sent when the open port fails on its own
type TransportErrorMsg struct {
	Err error
}

// StatusMsg replaces the status bar indicators
type StatusMsg struct {
	Status session.Status
}

// Relay is a serialmon.Sink that forwards received data and transport
// errors into a running tea.Program. Messages before Attach are dropped.
type Relay struct {
	mu sync.RWMutex
	p  *tea.Program
}

// Attach starts forwarding to p
func (r *Relay) Attach(p *tea.Program) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

func (r *Relay) send(msg tea.Msg) {
	r.mu.RLock()
	p := r.p
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

func (r *Relay) HandleData(data []byte) {
	r.send(components.DataReceivedMsg{Timestamp: time.Now(), Data: data})
}

func (r *Relay) HandleError(err error) {
	r.send(TransportErrorMsg{Err: err})
}

// StatusHook can be passed to session.WithStatusHook
func (r *Relay) StatusHook(st session.Status) {
	r.send(StatusMsg{Status: st})
}
