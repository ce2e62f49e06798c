/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/internal/tui/components"
	"github.com/allbin/serialmon/session"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	v := viper.New()
	setDefaults(v)

	file := ""
	if yaml != "" {
		file = filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(file, []byte(yaml), 0644))
	}
	require.NoError(t, readConfig(v, file))
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "bugst", cfg.Driver)
	assert.Equal(t, 0, cfg.BaudRate)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:8047", cfg.HTTP.Addr)
	assert.Zero(t, cfg.Timeout)
}

func TestLoadConfigFile(t *testing.T) {
	v := newViper(t, `
driver: termios
baud_rate: 115200
probe_payload: hello
timeout: 2s
http:
  addr: ":9000"
filter:
  vid: "0x2341"
  pid: "0043"
`)
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "termios", cfg.Driver)
	assert.Equal(t, 115200, cfg.BaudRate)
	assert.Equal(t, "hello", cfg.ProbePayload)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "0x2341", cfg.Filter.VID)
	assert.Equal(t, "0043", cfg.Filter.PID)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("SERIALMON_BAUD_RATE", "57600")
	t.Setenv("SERIALMON_HTTP_ADDR", "0.0.0.0:1")

	cfg, err := loadConfig(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 57600, cfg.BaudRate)
	assert.Equal(t, "0.0.0.0:1", cfg.HTTP.Addr)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	_, err := loadConfig(newViper(t, "driver: usbmagic\n"))
	assert.Error(t, err)

	_, err = loadConfig(newViper(t, "baud_rate: -1\n"))
	assert.Error(t, err)
}

func TestReadConfigMissingExplicitFile(t *testing.T) {
	v := viper.New()
	err := readConfig(v, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"", zerolog.WarnLevel},
		{"loud", zerolog.WarnLevel},
	}
	for _, tt := range tests {
		log := newLogger(tt.in, &bytes.Buffer{}, false)
		assert.Equal(t, tt.want, log.GetLevel(), tt.in)
	}
}

func TestNewAppRestoresSelection(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "state.yaml")
	require.NoError(t, os.WriteFile(state, []byte("port: /dev/ttyUSB9\nbaud_rate: 115200\n"), 0644))

	v := newViper(t, "")
	v.Set("state_file", state)
	v.Set("log_level", "error")

	a, err := newApp(context.Background(), v, quietLogs())
	require.NoError(t, err)
	defer a.Close()

	st := a.sess.Status()
	assert.Equal(t, "/dev/ttyUSB9", st.Port)
	assert.Equal(t, "115200", st.BaudRate)
	assert.False(t, st.Open)
	assert.Equal(t, state, a.store.Path())
}

func TestAppFilterFallsBackToConfig(t *testing.T) {
	a := &app{}
	a.cfg.Filter.VID, a.cfg.Filter.PID = "2341", "0043"

	assert.Equal(t, serialmon.DeviceFilter{VendorID: "2341", ProductID: "0043"}, a.filter("", ""))
	assert.Equal(t, serialmon.DeviceFilter{VendorID: "1a86", ProductID: "7523"}, a.filter("1a86", "7523"))
}

func TestFilterPorts(t *testing.T) {
	ports := []serialmon.PortDescriptor{
		{Name: "/dev/ttyUSB0", VendorID: "1a86", ProductID: "7523"},
		{Name: "/dev/ttyACM0", VendorID: "2341", ProductID: "0043"},
		{Name: "/dev/ttyS0"},
	}

	all := filterPorts(append([]serialmon.PortDescriptor(nil), ports...), serialmon.DeviceFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, "/dev/ttyACM0", all[0].Name)

	got := filterPorts(ports, serialmon.DeviceFilter{VendorID: "0x2341", ProductID: "0x0043"})
	require.Len(t, got, 1)
	assert.Equal(t, "/dev/ttyACM0", got[0].Name)
}

func TestGetPortType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"/dev/ttyUSB0", "USB Serial"},
		{"/dev/ttyACM1", "USB CDC/ACM"},
		{"/dev/ttyAMA0", "ARM Serial"},
		{"/dev/ttyS3", "Standard Serial"},
		{"/dev/cu.usbserial-1410", "macOS Serial"},
		{"COM3", "COM Port"},
		{"/dev/rfcomm0", "Serial Port"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, getPortType(tt.name), tt.name)
	}
}

func TestRenderTableMarksSelected(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, []serialmon.PortDescriptor{
		{Name: "/dev/ttyACM0", VendorID: "2341", ProductID: "0043", Manufacturer: "Arduino"},
		{Name: "/dev/ttyUSB0"},
	}, "/dev/ttyACM0")

	out := buf.String()
	assert.Contains(t, out, "Found 2 serial port(s)")
	assert.Contains(t, out, "2341:0043")
	assert.Contains(t, out, "Arduino")

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "/dev/ttyACM0") {
			assert.True(t, strings.HasPrefix(line, "*"), line)
		}
	}
}

func TestRenderStatus(t *testing.T) {
	var buf bytes.Buffer
	renderStatus(&buf, session.Status{Port: "/dev/ttyUSB0", Selected: true, BaudRate: "9600"}, nil, "/tmp/state.yaml")

	out := buf.String()
	assert.Contains(t, out, "/dev/ttyUSB0")
	assert.Contains(t, out, "not attached")
	assert.Contains(t, out, "9600")
}

func TestServeBufferRefreshesOnTransportError(t *testing.T) {
	refreshed := 0
	buffer := newServeBuffer(func() { refreshed++ })

	buffer.HandleData([]byte("ok"))
	assert.Equal(t, 0, refreshed)

	cause := errors.New("device unplugged")
	buffer.HandleError(cause)
	assert.Equal(t, 1, refreshed)
	assert.Same(t, cause, buffer.LastError())
}

func TestEncodePayload(t *testing.T) {
	got, err := encodePayload("AT", false, true)
	require.NoError(t, err)
	assert.Equal(t, "AT\n", got)

	got, err = encodePayload("0x48 0x69", true, true)
	require.NoError(t, err)
	assert.Equal(t, "Hi", got)

	_, err = encodePayload("4", true, false)
	assert.Error(t, err)
}

func TestParseLineEnding(t *testing.T) {
	tests := []struct {
		in   string
		want components.LineEnding
	}{
		{"none", components.LineEndingNone},
		{"lf", components.LineEndingLF},
		{"cr", components.LineEndingCR},
		{"crlf", components.LineEndingCRLF},
	}
	for _, tt := range tests {
		got, err := parseLineEnding(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := parseLineEnding("nl")
	assert.Error(t, err)
}

func TestPromptForData(t *testing.T) {
	var out bytes.Buffer
	got := promptForData(&out, strings.NewReader("hello\nworld\n"))
	assert.Equal(t, "hello", got)
	assert.Contains(t, out.String(), "Enter data to send")
}
