package serialmon

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaudRate is used until another rate is recorded
const DefaultBaudRate = 9600

// DefaultProbePayload is written right after the OS reports a port open
const DefaultProbePayload = "TestingOpen"

// RecognizedBaudRates lists the rates offered to users, in ascending order
var RecognizedBaudRates = []int{300, 1200, 2400, 4800, 9600, 19200, 38400, 57600, 74880, 115200, 230400, 250000}

// IsRecognizedBaudRate reports whether rate is one of RecognizedBaudRates
func IsRecognizedBaudRate(rate int) bool {
	for _, r := range RecognizedBaudRates {
		if r == rate {
			return true
		}
	}
	return false
}

// Config holds the configuration for a Controller
type Config struct {
	Port         string
	BaudRate     int
	ProbePayload []byte
	// OperationTimeout bounds how long an operation waits for a previous
	// one to finish. Zero waits as long as the caller's context allows.
	OperationTimeout time.Duration
	Logger           zerolog.Logger
	Sink             Sink
}

// Option is a functional option for configuring a Controller
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:     DefaultBaudRate,
		ProbePayload: []byte(DefaultProbePayload),
		Logger:       zerolog.Nop(),
		Sink:         DiscardSink{},
	}
}

// WithPort records the port to open first
func WithPort(port string) Option {
	return func(c *Config) error {
		c.Port = port
		return nil
	}
}

// WithBaudRate sets the initial baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidBaudRate
		}
		c.BaudRate = rate
		return nil
	}
}

// WithProbePayload replaces the handshake payload written on open
func WithProbePayload(payload []byte) Option {
	return func(c *Config) error {
		if len(payload) == 0 {
			return ErrInvalidConfig
		}
		c.ProbePayload = payload
		return nil
	}
}

// WithOperationTimeout bounds the wait for the operation gate
func WithOperationTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 {
			return ErrInvalidConfig
		}
		c.OperationTimeout = timeout
		return nil
	}
}

// WithLogger sets the structured logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithSink sets where inbound data and transport errors are delivered
func WithSink(sink Sink) Option {
	return func(c *Config) error {
		if sink == nil {
			return ErrInvalidConfig
		}
		c.Sink = sink
		return nil
	}
}
