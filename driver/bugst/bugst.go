// Package bugst implements serialmon.Driver on top of go.bug.st/serial.
// It works on Linux, macOS and Windows.
package bugst

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/allbin/serialmon"
)

// Seams for tests
var (
	openPort     = serial.Open
	getPortsList = enumerator.GetDetailedPortsList
)

const readBufferSize = 4096

// ErrNoData is reported when a read returns no bytes and no error. Open sets
// no read timeout, so an empty read means the device disappeared.
var ErrNoData = errors.New("device reports readiness to read but returned no data")

// Driver opens ports with go.bug.st/serial
type Driver struct {
	log zerolog.Logger
}

// Option configures a Driver
type Option func(*Driver)

// WithLogger sets the driver logger
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Driver) {
		d.log = logger
	}
}

// New returns a Driver
func New(opts ...Option) *Driver {
	d := &Driver{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enumerate lists ports with USB details where the platform exposes them
func (d *Driver) Enumerate() ([]serialmon.PortDescriptor, error) {
	details, err := getPortsList()
	if err != nil {
		return nil, mapError(err)
	}

	ports := make([]serialmon.PortDescriptor, 0, len(details))
	for _, p := range details {
		desc := serialmon.PortDescriptor{Name: p.Name}
		if p.IsUSB {
			desc.VendorID = p.VID
			desc.ProductID = p.PID
			desc.SerialNumber = p.SerialNumber
			desc.Product = p.Product
		}
		ports = append(ports, desc)
	}
	d.log.Debug().Int("count", len(ports)).Msg("enumerated serial ports")
	return ports, nil
}

// Open opens device as 8N1 at baudRate and starts reading. The port keeps
// go.bug.st's blocking reads; Close is what ends the read loop.
func (d *Driver) Open(device string, baudRate int) (serialmon.Transport, error) {
	port, err := openPort(device, mode(baudRate))
	if err != nil {
		return nil, mapError(err)
	}

	t := &transport{
		port:   port,
		device: device,
		log:    d.log.With().Str("port", device).Logger(),
		open:   true,
		events: make(chan serialmon.Event, 64),
		done:   make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

func mode(baudRate int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

type transport struct {
	port   serial.Port
	device string
	log    zerolog.Logger

	mu      sync.Mutex
	open    bool
	closing bool
	events  chan serialmon.Event
	done    chan struct{}
}

func (t *transport) Write(data []byte) (int, error) {
	if !t.IsOpen() {
		return 0, serialmon.ErrPortClosed
	}
	n, err := t.port.Write(data)
	if err != nil {
		return n, mapError(err)
	}
	return n, nil
}

func (t *transport) SetBaudRate(rate int) error {
	if !t.IsOpen() {
		return serialmon.ErrPortClosed
	}
	if err := t.port.SetMode(mode(rate)); err != nil {
		return mapError(err)
	}
	return nil
}

// Close stops the port. The read loop notices the closed port and closes
// the events channel on its own.
func (t *transport) Close() error {
	t.mu.Lock()
	if t.closing {
		t.mu.Unlock()
		return nil
	}
	t.closing = true
	t.open = false
	close(t.done)
	t.mu.Unlock()

	if err := t.port.Close(); err != nil {
		return mapError(err)
	}
	return nil
}

func (t *transport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *transport) Events() <-chan serialmon.Event {
	return t.events
}

func (t *transport) readLoop() {
	defer close(t.events)

	buf := make([]byte, readBufferSize)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !t.emit(serialmon.Event{Data: chunk}) {
				return
			}
		}

		switch {
		case err != nil:
			if t.isClosing() {
				return
			}
			t.log.Debug().Err(err).Msg("serial read failed")
			t.markClosed()
			t.emit(serialmon.Event{Err: mapError(err)})
			return
		case n == 0:
			if t.isClosing() {
				return
			}
			t.markClosed()
			t.emit(serialmon.Event{Err: ErrNoData})
			return
		}
	}
}

func (t *transport) isClosing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closing
}

// emit delivers ev unless the transport is closed first
func (t *transport) emit(ev serialmon.Event) bool {
	select {
	case t.events <- ev:
		return true
	case <-t.done:
		return false
	}
}

// markClosed records that the device went away. The port handle is left
// for Close to release.
func (t *transport) markClosed() {
	t.mu.Lock()
	t.open = false
	t.mu.Unlock()
}

// mapError turns go.bug.st/serial errors into serialmon sentinels while
// keeping the original message.
func mapError(err error) error {
	var portErr *serial.PortError
	if !errors.As(err, &portErr) {
		return err
	}

	switch portErr.Code() {
	case serial.PortNotFound, serial.InvalidSerialPort:
		return fmt.Errorf("%w: %s", serialmon.ErrDeviceNotFound, portErr.Error())
	case serial.PermissionDenied:
		return fmt.Errorf("%w: %s", serialmon.ErrPermissionDenied, portErr.Error())
	case serial.PortBusy:
		return fmt.Errorf("%w: %s", serialmon.ErrDeviceInUse, portErr.Error())
	case serial.InvalidSpeed:
		return fmt.Errorf("%w: %s", serialmon.ErrInvalidBaudRate, portErr.Error())
	case serial.PortClosed:
		return fmt.Errorf("%w: %s", serialmon.ErrPortClosed, portErr.Error())
	default:
		return err
	}
}
