package serialmon

import (
	"strconv"
	"strings"
)

// Event is a notification pushed by an open Transport. Exactly one of Data
// or Err is set.
type Event struct {
	Data []byte
	Err  error
}

// Transport is an open handle to one OS serial device.
//
// Events delivers inbound chunks in arrival order and unsolicited errors.
// The channel is closed once the transport has stopped reading, either
// after Close or after a fatal read error.
type Transport interface {
	Write(data []byte) (int, error)
	SetBaudRate(rate int) error
	Close() error
	IsOpen() bool
	Events() <-chan Event
}

// Driver enumerates devices and opens transports.
type Driver interface {
	Enumerate() ([]PortDescriptor, error)
	Open(device string, baudRate int) (Transport, error)
}

// PortDescriptor describes one attached device. VendorID and ProductID are
// reported as the platform formats them. Manufacturer and Product are the
// USB descriptor strings; a driver leaves empty what the platform does not
// expose.
type PortDescriptor struct {
	Name         string
	VendorID     string
	ProductID    string
	Manufacturer string
	Product      string
	SerialNumber string
}

// Description joins the manufacturer and product strings for display
func (p PortDescriptor) Description() string {
	switch {
	case p.Product == "":
		return p.Manufacturer
	case strings.HasPrefix(p.Product, p.Manufacturer):
		return p.Product
	default:
		return p.Manufacturer + " " + p.Product
	}
}

// DeviceFilter selects ports by USB vendor and product id.
type DeviceFilter struct {
	VendorID  string
	ProductID string
}

// IsZero reports whether the filter is incomplete and cannot select anything.
func (f DeviceFilter) IsZero() bool {
	return f.VendorID == "" || f.ProductID == ""
}

// Matches compares ids as hexadecimal numbers, so "0x2341", "2341" and
// "2341" with different case all match each other.
func (f DeviceFilter) Matches(p PortDescriptor) bool {
	if f.IsZero() || p.VendorID == "" || p.ProductID == "" {
		return false
	}
	return hexEqual(f.VendorID, p.VendorID) && hexEqual(f.ProductID, p.ProductID)
}

func hexEqual(a, b string) bool {
	x, err := ParseHexID(a)
	if err != nil {
		return false
	}
	y, err := ParseHexID(b)
	if err != nil {
		return false
	}
	return x == y
}

// ParseHexID parses a USB id with or without a 0x prefix.
func ParseHexID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, 32)
}
