package serialmon

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// State is the lifecycle state of the connection
type State int

const (
	StateIdle State = iota
	StateOpening
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the connection
type Status struct {
	Port     string
	BaudRate int
	State    State
	Active   bool
}

// benignProbeErrors are probe write failures that still mean the port is
// usable. Some Windows USB CDC drivers report this on the first overlapped
// write after open.
var benignProbeErrors = []string{
	"Writing to COM port (GetOverlappedResult): Unknown error code 121",
}

func isBenignProbeError(err error) bool {
	msg := err.Error()
	for _, s := range benignProbeErrors {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Controller owns at most one open Transport and serializes every operation
// that replaces or reconfigures it.
type Controller struct {
	driver Driver
	cfg    Config
	log    zerolog.Logger

	// gate is held for the whole of Open, Close, ChangePort and ChangeBaudRate
	gate *semaphore.Weighted

	mu        sync.RWMutex
	state     State
	port      string
	baudRate  int
	transport Transport
	pumpDone  chan struct{}

	// dropped is the stale transport being released by discard. Its pending
	// error is still surfaced.
	dropped Transport
}

// New creates an idle controller on top of driver
func New(driver Driver, opts ...Option) (*Controller, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	return &Controller{
		driver:   driver,
		cfg:      config,
		log:      config.Logger,
		gate:     semaphore.NewWeighted(1),
		state:    StateIdle,
		port:     config.Port,
		baudRate: config.BaudRate,
	}, nil
}

// List enumerates attached devices. Every call queries the driver again.
func (c *Controller) List() ([]PortDescriptor, error) {
	ports, err := c.driver.Enumerate()
	if err != nil {
		return nil, portError(ErrEnumerationFailed, "", err)
	}
	return ports, nil
}

// IsActive reports whether a transport is held and reports itself open
func (c *Controller) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isActiveLocked()
}

func (c *Controller) isActiveLocked() bool {
	return c.state == StateOpen && c.transport != nil && c.transport.IsOpen()
}

// Port returns the recorded port, which may not be open
func (c *Controller) Port() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.port
}

// BaudRate returns the recorded baud rate
func (c *Controller) BaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baudRate
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Status returns a consistent snapshot of port, rate and state
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		Port:     c.port,
		BaudRate: c.baudRate,
		State:    c.state,
		Active:   c.isActiveLocked(),
	}
}

func (c *Controller) acquire(ctx context.Context) (func(), error) {
	if c.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.OperationTimeout)
		defer cancel()
	}
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { c.gate.Release(1) }, nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Open opens the recorded port at the recorded baud rate. Opening a port
// that is already open returns NoticeAlreadyOpen and keeps the transport.
// A stale transport that no longer reports open is released first and the
// open is attempted exactly once.
func (c *Controller) Open(ctx context.Context) (Notice, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return NoticeNone, err
	}
	defer release()

	c.mu.RLock()
	port, baud := c.port, c.baudRate
	active := c.isActiveLocked()
	stale := c.transport
	c.mu.RUnlock()

	if port == "" {
		return NoticeNone, ErrNoPortSelected
	}
	if active {
		c.log.Info().Str("port", port).Msg("serial port already open")
		return NoticeAlreadyOpen, nil
	}
	if stale != nil {
		c.log.Debug().Str("port", port).Msg("releasing stale serial port handle")
		c.discard(stale)
	}

	return NoticeNone, c.openOnce(port, baud)
}

func (c *Controller) openOnce(port string, baud int) error {
	c.setState(StateOpening)
	c.log.Info().Str("port", port).Int("baud", baud).Msg("opening serial port")

	t, err := c.driver.Open(port, baud)
	if err != nil {
		c.setState(StateIdle)
		c.log.Error().Err(err).Str("port", port).Msg("failed to open serial port")
		return portError(ErrOpenFailed, port, err)
	}

	// Some adapters report open before the link accepts writes
	if _, err := t.Write(c.cfg.ProbePayload); err != nil {
		if !isBenignProbeError(err) {
			t.Close()
			c.setState(StateIdle)
			c.log.Error().Err(err).Str("port", port).Msg("failed to open serial port")
			return portError(ErrOpenFailed, port, err)
		}
		c.log.Debug().Err(err).Str("port", port).Msg("ignoring benign probe write error")
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.transport = t
	c.pumpDone = done
	c.state = StateOpen
	c.mu.Unlock()

	go c.pump(t, done)

	c.log.Info().Str("port", port).Int("baud", baud).Msg("opened serial port")
	return nil
}

// pump forwards events of one transport until its channel closes
func (c *Controller) pump(t Transport, done chan struct{}) {
	defer close(done)

	failed := false
	for ev := range t.Events() {
		if failed {
			continue
		}
		if ev.Err != nil {
			failed = true
			c.fail(t, ev.Err)
			continue
		}
		if len(ev.Data) > 0 {
			c.cfg.Sink.HandleData(ev.Data)
		}
	}
}

// fail handles an unsolicited transport error. Errors raised by a transport
// that is being closed on request are not surfaced. A transport that failed
// on its own and is being released by discard still reports its error.
func (c *Controller) fail(t Transport, cause error) {
	c.mu.Lock()
	dropped := c.dropped == t
	if c.transport != t || (c.state != StateOpen && !dropped) {
		c.mu.Unlock()
		c.log.Debug().Err(cause).Msg("ignoring error from released serial port")
		return
	}
	port := c.port
	c.transport = nil
	c.pumpDone = nil
	c.state = StateIdle
	c.mu.Unlock()

	// discard closes a dropped transport itself
	if !dropped {
		if err := t.Close(); err != nil {
			c.log.Debug().Err(err).Str("port", port).Msg("close after transport error")
		}
	}

	err := portError(ErrTransportFailed, port, cause)
	c.log.Error().Err(cause).Str("port", port).Msg("serial port transport error")
	c.cfg.Sink.HandleError(err)
}

// Close closes the open transport. With nothing open it returns
// NoticeNothingToClose.
func (c *Controller) Close(ctx context.Context) (Notice, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return NoticeNone, err
	}
	defer release()

	c.mu.RLock()
	t := c.transport
	active := c.isActiveLocked()
	c.mu.RUnlock()

	switch {
	case t == nil:
		return NoticeNothingToClose, nil
	case !active:
		c.discard(t)
		return NoticeNothingToClose, nil
	}

	if err := c.closeTransport(t); err != nil {
		return NoticeNone, err
	}
	return NoticeNone, nil
}

// closeTransport moves Open -> Closing -> Idle. A failed close puts the
// state back to Open.
func (c *Controller) closeTransport(t Transport) error {
	c.mu.Lock()
	if c.transport != t {
		c.mu.Unlock()
		return nil
	}
	port := c.port
	done := c.pumpDone
	c.state = StateClosing
	c.mu.Unlock()

	if err := t.Close(); err != nil {
		c.setState(StateOpen)
		c.log.Error().Err(err).Str("port", port).Msg("failed to close serial port")
		return portError(ErrCloseFailed, port, err)
	}
	if done != nil {
		<-done
	}

	c.mu.Lock()
	c.transport = nil
	c.pumpDone = nil
	c.state = StateIdle
	c.mu.Unlock()

	c.log.Info().Str("port", port).Msg("closed serial port")
	return nil
}

// discard drops a transport that no longer reports open. An error the
// transport queued before it went stale is still passed to fail by the pump.
func (c *Controller) discard(t Transport) {
	c.mu.Lock()
	if c.transport != t {
		c.mu.Unlock()
		return
	}
	done := c.pumpDone
	c.dropped = t
	c.state = StateClosing
	c.mu.Unlock()

	if err := t.Close(); err != nil {
		c.log.Debug().Err(err).Msg("close of stale serial port handle")
	}
	if done != nil {
		<-done
	}

	c.mu.Lock()
	c.transport = nil
	c.pumpDone = nil
	c.dropped = nil
	c.state = StateIdle
	c.mu.Unlock()
}

// ChangePort records a new port. If another port is open it is closed and
// the caller decides whether to open again.
func (c *Controller) ChangePort(ctx context.Context, port string) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	c.mu.RLock()
	same := port == c.port
	t := c.transport
	active := c.isActiveLocked()
	c.mu.RUnlock()

	if same {
		return nil
	}

	switch {
	case t == nil:
	case !active:
		c.discard(t)
	default:
		if err := c.closeTransport(t); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.port = port
	c.mu.Unlock()

	c.log.Info().Str("port", port).Msg("serial port changed")
	return nil
}

// ChangeBaudRate reconfigures an open transport in place, or records the
// rate for the next Open. On failure the previous rate stays in effect.
func (c *Controller) ChangeBaudRate(ctx context.Context, rate int) error {
	if rate <= 0 {
		return ErrInvalidBaudRate
	}
	if !IsRecognizedBaudRate(rate) {
		c.log.Warn().Int("baud", rate).Msg("baud rate is not one of the recognized rates")
	}

	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	c.mu.Lock()
	if !c.isActiveLocked() {
		c.baudRate = rate
		c.mu.Unlock()
		return nil
	}
	t, port := c.transport, c.port
	c.mu.Unlock()

	if err := t.SetBaudRate(rate); err != nil {
		c.log.Error().Err(err).Str("port", port).Int("baud", rate).Msg("failed to change baud rate")
		return portError(ErrReconfigureFailed, port, err)
	}

	c.mu.Lock()
	c.baudRate = rate
	c.mu.Unlock()

	c.log.Info().Str("port", port).Int("baud", rate).Msg("baud rate changed")
	return nil
}

// Send writes text to the open transport. Empty text or no open transport
// is a successful no-op.
func (c *Controller) Send(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.isActiveLocked() {
		return nil
	}
	if _, err := c.transport.Write([]byte(text)); err != nil {
		return portError(ErrWriteFailed, c.port, err)
	}
	return nil
}
