// Package session maps user intents onto a serialmon.Controller: which
// port is selected, which baud rate is in use, and what the status display
// should show. The selection is persisted through a Store so the next run
// can restore it.
package session

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/allbin/serialmon"
)

// NoPortLabel is shown in place of a port when none is selected
const NoPortLabel = "<Select Serial Port>"

// ErrNoChooser is returned when an interactive choice is needed but the
// session has no Chooser
var ErrNoChooser = errors.New("no interactive chooser configured")

// Selection is the persisted user choice
type Selection struct {
	Port     string `yaml:"port,omitempty" json:"port,omitempty"`
	BaudRate int    `yaml:"baud_rate,omitempty" json:"baud_rate,omitempty"`
}

// Store persists the selection between runs
type Store interface {
	Load() (Selection, error)
	Save(Selection) error
}

// Chooser asks the user to pick a port or a baud rate. ok is false when
// the user dismissed the choice.
type Chooser interface {
	ChoosePort(ctx context.Context, ports []serialmon.PortDescriptor) (name string, ok bool, err error)
	ChooseBaudRate(ctx context.Context, rates []int, current int) (rate int, ok bool, err error)
}

// Status is what a status display shows
type Status struct {
	Port     string `json:"port"`
	Selected bool   `json:"selected"`
	Open     bool   `json:"open"`
	BaudRate string `json:"baud_rate"`
}

type nopStore struct{}

func (nopStore) Load() (Selection, error) { return Selection{}, nil }
func (nopStore) Save(Selection) error     { return nil }

// Option configures a Session
type Option func(*Session)

// WithStore persists selections in store
func WithStore(store Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithChooser enables interactive selection
func WithChooser(chooser Chooser) Option {
	return func(s *Session) {
		s.chooser = chooser
	}
}

// WithLogger sets the structured logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.log = logger
	}
}

// WithStatusHook registers fn to be called with the new status after every
// change
func WithStatusHook(fn func(Status)) Option {
	return func(s *Session) {
		s.hooks = append(s.hooks, fn)
	}
}

// Session holds the selected port and drives the controller
type Session struct {
	ctrl    *serialmon.Controller
	store   Store
	chooser Chooser
	log     zerolog.Logger
	hooks   []func(Status)

	mu   sync.Mutex
	port string
}

// New creates a session over ctrl and restores the stored selection
func New(ctx context.Context, ctrl *serialmon.Controller, opts ...Option) (*Session, error) {
	s := &Session{
		ctrl:  ctrl,
		store: nopStore{},
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	sel, err := s.store.Load()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load saved serial port selection")
		sel = Selection{}
	}

	s.port = ctrl.Port()
	if sel.Port != "" {
		s.port = sel.Port
	}
	if sel.BaudRate > 0 {
		if err := ctrl.ChangeBaudRate(ctx, sel.BaudRate); err != nil {
			return nil, err
		}
	}
	s.log.Debug().Str("port", s.port).Int("baud", ctrl.BaudRate()).Msg("session restored")
	return s, nil
}

// Controller returns the underlying controller
func (s *Session) Controller() *serialmon.Controller {
	return s.ctrl
}

// Port returns the selected port, which may differ from the controller's
// until the next Open
func (s *Session) Port() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Status returns the display status
func (s *Session) Status() Status {
	port := s.Port()
	st := Status{
		Port:     port,
		Selected: port != "",
		Open:     s.ctrl.IsActive(),
		BaudRate: strconv.Itoa(s.ctrl.BaudRate()),
	}
	if port == "" {
		st.Port = NoPortLabel
	}
	return st
}

// Refresh notifies status hooks. Call it when the controller changed on
// its own, for example after a transport error.
func (s *Session) Refresh() {
	st := s.Status()
	for _, fn := range s.hooks {
		fn(st)
	}
}

func (s *Session) setPort(port string) {
	s.mu.Lock()
	s.port = port
	s.mu.Unlock()

	s.log.Info().Str("port", port).Msg("serial port selected")
	s.persist()
	s.Refresh()
}

// persist saves the selection. A failing store does not undo the choice.
func (s *Session) persist() {
	sel := Selection{Port: s.Port(), BaudRate: s.ctrl.BaudRate()}
	if err := s.store.Save(sel); err != nil {
		s.log.Warn().Err(err).Msg("failed to save serial port selection")
	}
}

// SelectPort selects port by name without enumerating
func (s *Session) SelectPort(port string) error {
	if port == "" {
		return serialmon.ErrNoPortSelected
	}
	s.setPort(port)
	return nil
}

// SelectPortByFilter selects the first enumerated port whose USB ids match
// filter. An incomplete filter falls back to interactive selection.
func (s *Session) SelectPortByFilter(ctx context.Context, filter serialmon.DeviceFilter) (serialmon.Notice, error) {
	if filter.IsZero() {
		return s.SelectPortInteractive(ctx)
	}

	ports, err := s.ctrl.List()
	if err != nil {
		return serialmon.NoticeNone, err
	}
	if len(ports) == 0 {
		return serialmon.NoticeNoPortAvailable, nil
	}

	for _, p := range ports {
		if filter.Matches(p) {
			s.setPort(p.Name)
			return serialmon.NoticeNone, nil
		}
	}
	s.log.Debug().Str("vid", filter.VendorID).Str("pid", filter.ProductID).Msg("no serial port matches filter")
	return serialmon.NoticeNoMatchingPort, nil
}

// SelectPortInteractive asks the Chooser to pick among the enumerated
// ports, sorted by name
func (s *Session) SelectPortInteractive(ctx context.Context) (serialmon.Notice, error) {
	ports, err := s.ctrl.List()
	if err != nil {
		return serialmon.NoticeNone, err
	}
	if len(ports) == 0 {
		return serialmon.NoticeNoPortAvailable, nil
	}
	if s.chooser == nil {
		return serialmon.NoticeNone, ErrNoChooser
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })

	name, ok, err := s.chooser.ChoosePort(ctx, ports)
	if err != nil {
		return serialmon.NoticeNone, err
	}
	if !ok || name == "" {
		return serialmon.NoticeNoSelection, nil
	}
	s.setPort(name)
	return serialmon.NoticeNone, nil
}

// Open opens the selected port. Without a selection it asks the Chooser
// first. A controller on another port is switched before opening.
func (s *Session) Open(ctx context.Context) (serialmon.Notice, error) {
	port := s.Port()
	if port == "" {
		if s.chooser == nil {
			return serialmon.NoticeNoSelection, nil
		}
		notice, err := s.SelectPortInteractive(ctx)
		if err != nil || notice != serialmon.NoticeNone {
			return notice, err
		}
		port = s.Port()
	}

	if s.ctrl.Port() != port {
		if err := s.ctrl.ChangePort(ctx, port); err != nil {
			return serialmon.NoticeNone, err
		}
	}

	notice, err := s.ctrl.Open(ctx)
	s.Refresh()
	return notice, err
}

// Close closes the monitor
func (s *Session) Close(ctx context.Context) (serialmon.Notice, error) {
	notice, err := s.ctrl.Close(ctx)
	s.Refresh()
	return notice, err
}

// ClosePort closes the monitor only when it is on port, so another tool
// can take the device. It reports whether a port was closed.
func (s *Session) ClosePort(ctx context.Context, port string) (bool, error) {
	if port != "" && port != s.ctrl.Port() {
		return false, nil
	}
	notice, err := s.Close(ctx)
	if err != nil {
		return false, err
	}
	return notice == serialmon.NoticeNone, nil
}

// ChangeBaudRate applies rate, or asks the Chooser among the recognized
// rates when rate is 0
func (s *Session) ChangeBaudRate(ctx context.Context, rate int) (serialmon.Notice, error) {
	if rate == 0 {
		if s.chooser == nil {
			return serialmon.NoticeNone, ErrNoChooser
		}
		chosen, ok, err := s.chooser.ChooseBaudRate(ctx, serialmon.RecognizedBaudRates, s.ctrl.BaudRate())
		if err != nil {
			return serialmon.NoticeNone, err
		}
		if !ok {
			s.log.Warn().Msg("no baud rate selected, keeping current rate")
			return serialmon.NoticeNoSelection, nil
		}
		rate = chosen
	}

	if err := s.ctrl.ChangeBaudRate(ctx, rate); err != nil {
		return serialmon.NoticeNone, err
	}
	s.persist()
	s.Refresh()
	return serialmon.NoticeNone, nil
}

// Send writes text to the open monitor
func (s *Session) Send(ctx context.Context, text string) (serialmon.Notice, error) {
	if !s.ctrl.IsActive() {
		return serialmon.NoticeNotOpen, nil
	}
	return serialmon.NoticeNone, s.ctrl.Send(ctx, text)
}

// Shutdown closes an active monitor
func (s *Session) Shutdown(ctx context.Context) error {
	if !s.ctrl.IsActive() {
		return nil
	}
	_, err := s.Close(ctx)
	return err
}
