package serialmon

import (
	"errors"
	"testing"
	"time"
)

func TestWithBaudRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    int
		wantErr bool
	}{
		{"9600 (default)", 9600, false},
		{"74880 (esp boot rom)", 74880, false},
		{"31250 (not recognized, still valid)", 31250, false},
		{"0 (invalid)", 0, true},
		{"-115200 (negative)", -115200, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := WithBaudRate(tt.rate)(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithBaudRate(%d) error = %v, wantErr %v", tt.rate, err, tt.wantErr)
			}
			if err == nil && config.BaudRate != tt.rate {
				t.Errorf("BaudRate = %d, want %d", config.BaudRate, tt.rate)
			}
			if err != nil && !errors.Is(err, ErrInvalidBaudRate) {
				t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
			}
		})
	}
}

func TestWithOperationTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"0 (wait for caller)", 0, false},
		{"500ms", 500 * time.Millisecond, false},
		{"-1s (negative)", -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := WithOperationTimeout(tt.timeout)(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithOperationTimeout(%v) error = %v, wantErr %v", tt.timeout, err, tt.wantErr)
			}
			if err == nil && config.OperationTimeout != tt.timeout {
				t.Errorf("OperationTimeout = %v, want %v", config.OperationTimeout, tt.timeout)
			}
		})
	}
}

func TestWithSinkRejectsNil(t *testing.T) {
	config := DefaultConfig()
	if err := WithSink(nil)(&config); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.BaudRate != 9600 {
		t.Errorf("Expected baud rate 9600, got %d", config.BaudRate)
	}
	if string(config.ProbePayload) != "TestingOpen" {
		t.Errorf("Expected probe payload TestingOpen, got %q", config.ProbePayload)
	}
	if config.Sink == nil {
		t.Error("Expected a non-nil sink")
	}
}

func TestRecognizedBaudRates(t *testing.T) {
	want := []int{300, 1200, 2400, 4800, 9600, 19200, 38400, 57600, 74880, 115200, 230400, 250000}
	if len(RecognizedBaudRates) != len(want) {
		t.Fatalf("Expected %d rates, got %d", len(want), len(RecognizedBaudRates))
	}
	for i, rate := range want {
		if RecognizedBaudRates[i] != rate {
			t.Errorf("Expected rate %d at index %d, got %d", rate, i, RecognizedBaudRates[i])
		}
		if !IsRecognizedBaudRate(rate) {
			t.Errorf("Expected %d to be recognized", rate)
		}
	}
	if IsRecognizedBaudRate(14400) {
		t.Error("Expected 14400 to not be recognized")
	}
}

func TestDeviceFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter DeviceFilter
		port   PortDescriptor
		want   bool
	}{
		{"exact", DeviceFilter{"2341", "0043"}, PortDescriptor{VendorID: "2341", ProductID: "0043"}, true},
		{"case insensitive", DeviceFilter{"10c4", "ea60"}, PortDescriptor{VendorID: "10C4", ProductID: "EA60"}, true},
		{"0x prefix", DeviceFilter{"0x2341", "0x43"}, PortDescriptor{VendorID: "2341", ProductID: "0043"}, true},
		{"leading zeros", DeviceFilter{"403", "6001"}, PortDescriptor{VendorID: "0403", ProductID: "6001"}, true},
		{"vendor differs", DeviceFilter{"2341", "0043"}, PortDescriptor{VendorID: "2342", ProductID: "0043"}, false},
		{"product differs", DeviceFilter{"2341", "0043"}, PortDescriptor{VendorID: "2341", ProductID: "0044"}, false},
		{"port without ids", DeviceFilter{"2341", "0043"}, PortDescriptor{Name: "/dev/ttyS0"}, false},
		{"incomplete filter", DeviceFilter{VendorID: "2341"}, PortDescriptor{VendorID: "2341", ProductID: "0043"}, false},
		{"not hex", DeviceFilter{"zz", "0043"}, PortDescriptor{VendorID: "zz", ProductID: "0043"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.port); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPortDescriptorDescription(t *testing.T) {
	tests := []struct {
		name string
		port PortDescriptor
		want string
	}{
		{"both", PortDescriptor{Manufacturer: "FTDI", Product: "FT232R USB UART"}, "FTDI FT232R USB UART"},
		{"product repeats manufacturer", PortDescriptor{Manufacturer: "Arduino", Product: "Arduino Uno"}, "Arduino Uno"},
		{"product only", PortDescriptor{Product: "CP2102 USB to UART Bridge"}, "CP2102 USB to UART Bridge"},
		{"manufacturer only", PortDescriptor{Manufacturer: "Silicon Labs"}, "Silicon Labs"},
		{"neither", PortDescriptor{Name: "/dev/ttyS0"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.port.Description(); got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPortErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := portError(ErrOpenFailed, "/dev/ttyUSB0", cause)

	if !errors.Is(err, ErrOpenFailed) {
		t.Error("Expected error to match ErrOpenFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected error to match its cause")
	}
	if errors.Is(err, ErrWriteFailed) {
		t.Error("Expected error to not match ErrWriteFailed")
	}

	var pe *PortError
	if !errors.As(err, &pe) {
		t.Fatal("Expected a *PortError")
	}
	if pe.Port != "/dev/ttyUSB0" {
		t.Errorf("Expected port /dev/ttyUSB0, got %s", pe.Port)
	}
}
