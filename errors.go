package serialmon

import "errors"

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
	ErrPortClosed       = errors.New("serial port is closed")
	ErrNoPortSelected   = errors.New("no serial port selected")

	// Failure kinds carried by PortError
	ErrEnumerationFailed = errors.New("failed to list serial ports")
	ErrOpenFailed        = errors.New("failed to open serial port")
	ErrWriteFailed       = errors.New("failed to write to serial port")
	ErrTransportFailed   = errors.New("serial port transport error")
	ErrReconfigureFailed = errors.New("failed to change baud rate")
	ErrCloseFailed       = errors.New("failed to close serial port")
)

// PortError reports a failed operation on a port. It matches both its Kind
// and the underlying transport error with errors.Is.
type PortError struct {
	Kind error
	Port string
	Err  error
}

func (e *PortError) Error() string {
	msg := e.Kind.Error()
	if e.Port != "" {
		msg += " " + e.Port
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PortError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func portError(kind error, port string, err error) error {
	return &PortError{Kind: kind, Port: port, Err: err}
}
