package serialmon

import (
	"io"
	"sync"
)

// Sink receives everything the controller routes out of an open transport.
// HandleData gets chunks verbatim and in arrival order. HandleError gets an
// unsolicited transport failure, once per failed transport.
type Sink interface {
	HandleData(data []byte)
	HandleError(err error)
}

// DiscardSink drops everything
type DiscardSink struct{}

func (DiscardSink) HandleData([]byte)  {}
func (DiscardSink) HandleError(error) {}

// SinkFuncs adapts plain functions to a Sink. Nil fields are ignored.
type SinkFuncs struct {
	Data  func([]byte)
	Error func(error)
}

func (s SinkFuncs) HandleData(data []byte) {
	if s.Data != nil {
		s.Data(data)
	}
}

func (s SinkFuncs) HandleError(err error) {
	if s.Error != nil {
		s.Error(err)
	}
}

// WriterSink copies inbound data to an io.Writer, for example stdout.
type WriterSink struct {
	mu      sync.Mutex
	w       io.Writer
	onError func(error)
}

// NewWriterSink returns a sink writing data to w and passing transport
// errors to onError, which may be nil.
func NewWriterSink(w io.Writer, onError func(error)) *WriterSink {
	return &WriterSink{w: w, onError: onError}
}

func (s *WriterSink) HandleData(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Write(data)
}

func (s *WriterSink) HandleError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
