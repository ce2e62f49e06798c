package httpapi

import (
	"sync"

	"github.com/allbin/serialmon"
)

// Buffer is a serialmon.Sink that keeps everything received so clients can
// poll it by offset. It is unbounded.
type Buffer struct {
	mu      sync.RWMutex
	data    []byte
	lastErr error
	next    serialmon.Sink
}

// NewBuffer returns a buffer that also forwards to next, which may be nil
func NewBuffer(next serialmon.Sink) *Buffer {
	if next == nil {
		next = serialmon.DiscardSink{}
	}
	return &Buffer{next: next}
}

func (b *Buffer) HandleData(data []byte) {
	b.mu.Lock()
	b.data = append(b.data, data...)
	b.mu.Unlock()
	b.next.HandleData(data)
}

func (b *Buffer) HandleError(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()
	b.next.HandleError(err)
}

// Since returns a copy of the bytes after offset and the offset to ask for
// next time. An offset past the end returns nothing.
func (b *Buffer) Since(offset int) ([]byte, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(b.data) {
		return nil, len(b.data)
	}
	out := make([]byte, len(b.data)-offset)
	copy(out, b.data[offset:])
	return out, len(b.data)
}

// LastError returns the most recent transport error, if any
func (b *Buffer) LastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr
}
