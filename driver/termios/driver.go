//go:build linux

package termios

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/allbin/serialmon"
)

// Driver opens ports with raw termios
type Driver struct {
	devDir string
	sysDir string
	log    zerolog.Logger
}

// Option configures a Driver
type Option func(*Driver)

// WithLogger sets the driver logger
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Driver) {
		d.log = logger
	}
}

// WithRoots overrides the /dev and /sys directories used for enumeration
func WithRoots(devDir, sysDir string) Option {
	return func(d *Driver) {
		d.devDir = devDir
		d.sysDir = sysDir
	}
}

// New returns a Driver scanning /dev and /sys
func New(opts ...Option) *Driver {
	d := &Driver{
		devDir: "/dev",
		sysDir: "/sys",
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enumerate lists serial devices under /dev with their USB ids
func (d *Driver) Enumerate() ([]serialmon.PortDescriptor, error) {
	paths, err := listPorts(d.devDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", d.devDir, err)
	}

	ports := make([]serialmon.PortDescriptor, 0, len(paths))
	for _, path := range paths {
		ports = append(ports, describePort(d.sysDir, path))
	}
	d.log.Debug().Int("count", len(ports)).Msg("enumerated serial ports")
	return ports, nil
}

// Open opens device raw 8N1 at baudRate and starts reading
func (d *Driver) Open(device string, baudRate int) (serialmon.Transport, error) {
	fd, err := openFD(device, baudRate)
	if err != nil {
		return nil, err
	}
	return newPort(fd, device, d.log.With().Str("port", device).Logger()), nil
}
