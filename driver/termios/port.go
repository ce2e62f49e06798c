//go:build linux

package termios

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/allbin/serialmon"
)

const (
	// pollInterval is how long a read waits before checking for Close, in ms
	pollInterval = 100
	// writeTimeout bounds the wait for a full output queue to drain, in ms
	writeTimeout = 5000
)

// ErrNoData is reported when poll says the device is readable but read
// returns nothing, which happens after a USB adapter is unplugged.
var ErrNoData = errors.New("device reports readiness to read but returned no data")

// getBaudRate converts an integer baud rate to the unix constant. ok is
// false for rates that need BOTHER.
func getBaudRate(rate int) (speed uint32, ok bool) {
	switch rate {
	case 50:
		return unix.B50, true
	case 75:
		return unix.B75, true
	case 110:
		return unix.B110, true
	case 134:
		return unix.B134, true
	case 150:
		return unix.B150, true
	case 200:
		return unix.B200, true
	case 300:
		return unix.B300, true
	case 600:
		return unix.B600, true
	case 1200:
		return unix.B1200, true
	case 1800:
		return unix.B1800, true
	case 2400:
		return unix.B2400, true
	case 4800:
		return unix.B4800, true
	case 9600:
		return unix.B9600, true
	case 19200:
		return unix.B19200, true
	case 38400:
		return unix.B38400, true
	case 57600:
		return unix.B57600, true
	case 115200:
		return unix.B115200, true
	case 230400:
		return unix.B230400, true
	case 460800:
		return unix.B460800, true
	case 500000:
		return unix.B500000, true
	case 576000:
		return unix.B576000, true
	case 921600:
		return unix.B921600, true
	case 1000000:
		return unix.B1000000, true
	case 1152000:
		return unix.B1152000, true
	case 1500000:
		return unix.B1500000, true
	case 2000000:
		return unix.B2000000, true
	case 2500000:
		return unix.B2500000, true
	case 3000000:
		return unix.B3000000, true
	case 3500000:
		return unix.B3500000, true
	case 4000000:
		return unix.B4000000, true
	default:
		return 0, false
	}
}

// setSpeed writes the baud rate into termios
func setSpeed(t *unix.Termios, rate int) {
	t.Cflag &^= unix.CBAUD
	if speed, ok := getBaudRate(rate); ok {
		t.Cflag |= speed
		t.Ispeed = speed
		t.Ospeed = speed
		return
	}
	t.Cflag |= unix.BOTHER
	t.Ispeed = uint32(rate)
	t.Ospeed = uint32(rate)
}

// configurePort puts fd in raw 8N1 mode at rate
func configurePort(fd int, rate int) error {
	if rate <= 0 {
		return serialmon.ErrInvalidBaudRate
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS2)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}

	// Raw mode, 8N1, no flow control
	termios.Cflag = unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	// Reads are gated by poll, so read never waits
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	setSpeed(termios, rate)

	if err := unix.IoctlSetTermios(fd, unix.TCSETS2, termios); err != nil {
		return fmt.Errorf("failed to set termios: %w", err)
	}
	return nil
}

// setBaudRate changes only the speed of an open fd
func setBaudRate(fd int, rate int) error {
	if rate <= 0 {
		return serialmon.ErrInvalidBaudRate
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS2)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}
	setSpeed(termios, rate)
	if err := unix.IoctlSetTermios(fd, unix.TCSETS2, termios); err != nil {
		return fmt.Errorf("failed to set termios: %w", err)
	}
	return nil
}

func openFD(device string, rate int) (int, error) {
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, mapErrno(device, err)
	}

	// Exclusive access so a second opener gets EBUSY
	if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("failed to lock %s: %w", device, err)
	}

	if err := configurePort(fd, rate); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func mapErrno(device string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENXIO), errors.Is(err, unix.ENODEV):
		return fmt.Errorf("%w: %s: %v", serialmon.ErrDeviceNotFound, device, err)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Errorf("%w: %s: %v", serialmon.ErrPermissionDenied, device, err)
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("%w: %s: %v", serialmon.ErrDeviceInUse, device, err)
	default:
		return fmt.Errorf("failed to open %s: %w", device, err)
	}
}

// port is an open termios device
type port struct {
	fd     int
	device string
	log    zerolog.Logger

	mu      sync.RWMutex
	open    bool
	closing bool
	events  chan serialmon.Event
	done    chan struct{}
	// readerDone is closed when readLoop returns. Close waits on it so
	// the fd is never closed under an in-flight read.
	readerDone chan struct{}
}

func newPort(fd int, device string, log zerolog.Logger) *port {
	p := &port{
		fd:         fd,
		device:     device,
		log:        log,
		open:       true,
		events:     make(chan serialmon.Event, 64),
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}
	go p.readLoop()
	return p
}

func (p *port) Write(data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.open {
		return 0, serialmon.ErrPortClosed
	}

	written := 0
	for written < len(data) {
		n, err := unix.Write(p.fd, data[written:])
		if errors.Is(err, unix.EAGAIN) {
			if err := waitWritable(p.fd); err != nil {
				return written, err
			}
			continue
		}
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

func waitWritable(fd int) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	for {
		n, err := unix.Poll(fds, writeTimeout)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err == nil && n == 0 {
			return unix.ETIMEDOUT
		}
		return err
	}
}

func (p *port) SetBaudRate(rate int) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.open {
		return serialmon.ErrPortClosed
	}
	return setBaudRate(p.fd, rate)
}

// Close stops the reader and releases the fd. It is safe to call after
// the reader has already stopped on a device error.
func (p *port) Close() error {
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return nil
	}
	p.closing = true
	p.open = false
	close(p.done)
	p.mu.Unlock()

	<-p.readerDone
	return unix.Close(p.fd)
}

func (p *port) IsOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.open
}

func (p *port) Events() <-chan serialmon.Event {
	return p.events
}

func (p *port) isClosing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closing
}

func (p *port) readLoop() {
	defer close(p.readerDone)
	defer close(p.events)

	buf := make([]byte, 4096)
	fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLIN}}
	for {
		if p.isClosing() {
			return
		}

		fds[0].Revents = 0
		n, err := unix.Poll(fds, pollInterval)
		if errors.Is(err, unix.EINTR) || (err == nil && n == 0) {
			continue
		}
		if err != nil {
			p.failRead(err)
			return
		}
		if fds[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 && fds[0].Revents&unix.POLLIN == 0 {
			p.failRead(fmt.Errorf("device %s hung up", p.device))
			return
		}

		n, err = unix.Read(p.fd, buf)
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			p.failRead(err)
			return
		case n == 0:
			p.failRead(ErrNoData)
			return
		}

		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case p.events <- serialmon.Event{Data: chunk}:
		case <-p.done:
			return
		}
	}
}

func (p *port) failRead(err error) {
	if p.isClosing() {
		return
	}
	p.log.Debug().Err(err).Msg("serial read failed")

	p.mu.Lock()
	p.open = false
	p.mu.Unlock()

	select {
	case p.events <- serialmon.Event{Err: err}:
	case <-p.done:
	}
}
