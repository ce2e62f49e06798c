package httpapi

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/allbin/serialmon"
)

const (
	timeout = time.Second
	tick    = 10 * time.Millisecond
)

func TestBufferSince(t *testing.T) {
	b := NewBuffer(nil)
	b.HandleData([]byte("abc"))
	b.HandleData([]byte{0x00, 0xff})

	data, next := b.Since(0)
	assert.Equal(t, []byte("abc\x00\xff"), data)
	assert.Equal(t, 5, next)

	data, next = b.Since(3)
	assert.Equal(t, []byte{0x00, 0xff}, data)
	assert.Equal(t, 5, next)

	data, next = b.Since(10)
	assert.Nil(t, data)
	assert.Equal(t, 5, next)
}

func TestBufferForwards(t *testing.T) {
	var got []byte
	var gotErr error
	b := NewBuffer(serialmon.SinkFuncs{
		Data:  func(d []byte) { got = append(got, d...) },
		Error: func(err error) { gotErr = err },
	})

	b.HandleData([]byte("hi"))
	cause := errors.New("unplugged")
	b.HandleError(cause)

	assert.Equal(t, "hi", string(got))
	assert.Same(t, cause, gotErr)
	assert.Same(t, cause, b.LastError())
}
