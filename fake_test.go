package serialmon

import (
	"sync"
)

type fakeTransport struct {
	mu         sync.Mutex
	device     string
	open       bool
	closed     bool
	events     chan Event
	writes     []string
	probeErr   error
	writeErr   error
	baudCalls  []int
	baudErr    error
	closeCalls int
	closeErr   error
}

func newFakeTransport(device string) *fakeTransport {
	return &fakeTransport{
		device: device,
		open:   true,
		events: make(chan Event, 16),
	}
}

func (t *fakeTransport) Write(data []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.writes) == 0 && t.probeErr != nil {
		t.writes = append(t.writes, string(data))
		return 0, t.probeErr
	}
	t.writes = append(t.writes, string(data))
	if t.writeErr != nil {
		return 0, t.writeErr
	}
	return len(data), nil
}

func (t *fakeTransport) SetBaudRate(rate int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.baudCalls = append(t.baudCalls, rate)
	return t.baudErr
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeCalls++
	if t.closeErr != nil {
		return t.closeErr
	}
	t.open = false
	if !t.closed {
		t.closed = true
		close(t.events)
	}
	return nil
}

func (t *fakeTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *fakeTransport) Events() <-chan Event {
	return t.events
}

// drop simulates the OS closing the device behind our back
func (t *fakeTransport) drop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = false
}

func (t *fakeTransport) snapshot() (writes []string, baudCalls []int, closeCalls int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...), append([]int(nil), t.baudCalls...), t.closeCalls
}

type fakeDriver struct {
	mu       sync.Mutex
	ports    []PortDescriptor
	enumErr  error
	openErr  error
	probeErr error
	openedCh chan string
	block    chan struct{}
	opened   []*fakeTransport
	bauds    []int
}

func (d *fakeDriver) Enumerate() ([]PortDescriptor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enumErr != nil {
		return nil, d.enumErr
	}
	return append([]PortDescriptor(nil), d.ports...), nil
}

func (d *fakeDriver) Open(device string, baudRate int) (Transport, error) {
	if d.openedCh != nil {
		d.openedCh <- device
	}
	if d.block != nil {
		<-d.block
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	t := newFakeTransport(device)
	t.probeErr = d.probeErr
	d.opened = append(d.opened, t)
	d.bauds = append(d.bauds, baudRate)
	return t, nil
}

func (d *fakeDriver) transports() []*fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeTransport(nil), d.opened...)
}

type recordingSink struct {
	mu   sync.Mutex
	data []byte
	errs []error
}

func (s *recordingSink) HandleData(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, data...)
}

func (s *recordingSink) HandleError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordingSink) received() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.data)
}

func (s *recordingSink) errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

// gatedSink blocks in HandleData until release is closed
type gatedSink struct {
	recordingSink
	entered chan struct{}
	release chan struct{}
}

func (s *gatedSink) HandleData(data []byte) {
	s.entered <- struct{}{}
	<-s.release
	s.recordingSink.HandleData(data)
}
