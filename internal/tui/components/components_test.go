package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/session"
)

func TestParseHexInput(t *testing.T) {
	tests := []struct {
		in      string
		want    []byte
		wantErr bool
	}{
		{"48656C6C6F", []byte("Hello"), false},
		{"48 65 6c 6c 6f", []byte("Hello"), false},
		{"  00ff  ", []byte{0x00, 0xff}, false},
		{"", nil, true},
		{"4", nil, true},
		{"zz", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseHexInput(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestInputEncodeLineEndings(t *testing.T) {
	in := NewInput(LineEndingNone)
	in.SetValue("ping")

	want := []string{"ping", "ping\n", "ping\r", "ping\r\n", "ping"}
	for _, w := range want {
		data, err := in.Encode()
		require.NoError(t, err)
		assert.Equal(t, w, string(data), in.GetLineEnding().String())
		in.CycleLineEnding()
	}
}

func TestInputEncodeHexIgnoresLineEnding(t *testing.T) {
	in := NewInput(LineEndingCRLF)
	in.ToggleSendingMode()
	require.Equal(t, SendingModeHex, in.GetSendingMode())

	in.SetValue("0a0b")
	data, err := in.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x0b}, data)
}

func TestInputStartsEmptyInASCII(t *testing.T) {
	in := NewInput(LineEndingLF)
	assert.Equal(t, SendingModeASCII, in.GetSendingMode())
	assert.Empty(t, in.Value())
}

func TestInputHistory(t *testing.T) {
	in := NewInput(LineEndingNone)
	in.AddToHistory("one")
	in.AddToHistory("two")
	in.AddToHistory("two")
	in.AddToHistory("   ")
	in.SetValue("draft")

	in.NavigateHistoryUp()
	assert.Equal(t, "two", in.Value())
	in.NavigateHistoryUp()
	assert.Equal(t, "one", in.Value())
	in.NavigateHistoryUp()
	assert.Equal(t, "one", in.Value())
	in.NavigateHistoryDown()
	assert.Equal(t, "two", in.Value())
	in.NavigateHistoryDown()
	assert.Equal(t, "draft", in.Value())
}

func rx(s string) DataReceivedMsg {
	return DataReceivedMsg{Timestamp: time.Now(), Data: []byte(s)}
}

func TestRenderTextConcatenatesChunks(t *testing.T) {
	df := NewDataFormatter(DisplayText)
	out := df.Render([]DataReceivedMsg{rx("hel"), rx("lo\r\nwor"), rx("ld\x1b[2J")})
	assert.Equal(t, "hello\nworld[2J", out)
}

func TestRenderTextBreaksForSentData(t *testing.T) {
	df := NewDataFormatter(DisplayText)
	tx := DataReceivedMsg{Timestamp: time.Now(), Data: []byte("cmd\n"), IsTX: true, Status: "WRITTEN"}
	out := df.Render([]DataReceivedMsg{rx("partial"), tx, rx("reply\n")})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "partial", lines[0])
	assert.Contains(t, lines[1], "TX ✓")
	assert.Contains(t, lines[1], "cmd")
	assert.Equal(t, "reply", lines[2])
}

func TestRenderHexAndASCII(t *testing.T) {
	df := NewDataFormatter(DisplayText)
	msgs := []DataReceivedMsg{rx("Hi\x00")}

	df.CycleDisplayMode()
	assert.Equal(t, DisplayHex, df.GetDisplayMode())
	assert.Contains(t, df.Render(msgs), "HEX: 48 69 00")

	df.CycleDisplayMode()
	assert.Equal(t, DisplayASCII, df.GetDisplayMode())
	assert.Contains(t, df.Render(msgs), "ASCII: Hi.")

	df.CycleDisplayMode()
	assert.Equal(t, DisplayText, df.GetDisplayMode())
}

func TestTerminalKeepsMessages(t *testing.T) {
	term := NewTerminal(40, 10)
	term.AddMessage(rx("a"))
	term.AddMessage(rx("b"))
	assert.Len(t, term.Messages(), 2)

	term.Clear()
	assert.Empty(t, term.Messages())
}

func TestStatusBarShowsPortAndBaud(t *testing.T) {
	sb := NewStatusBar(session.Status{Port: session.NoPortLabel, BaudRate: "9600"})
	sb.SetWidth(120)

	out := sb.ComprehensiveStatusBar("NORMAL", "ASCII", "TEXT", "12:00:00")
	assert.Contains(t, out, session.NoPortLabel)
	assert.Contains(t, out, "9600 baud")

	sb.SetStatus(session.Status{Port: "/dev/ttyUSB0", Selected: true, Open: true, BaudRate: "115200"})
	sb.SetError(errors.New("device unplugged"))
	out = sb.ComprehensiveStatusBar("NORMAL", "ASCII", "TEXT", "12:00:00")
	assert.Contains(t, out, "/dev/ttyUSB0")
	assert.Contains(t, out, "115200 baud")
	assert.Contains(t, out, "device unplugged")

	sb.SetMessage("opened")
	assert.Equal(t, "opened", sb.Message())
}

func press(p *Picker, k tea.KeyType) *Picker {
	p, _ = p.Update(tea.KeyMsg{Type: k})
	return p
}

func TestPortPickerChoose(t *testing.T) {
	ports := []serialmon.PortDescriptor{
		{Name: "/dev/ttyACM0", VendorID: "2341", ProductID: "0043"},
		{Name: "/dev/ttyUSB0"},
	}

	p := NewPortPicker(ports)
	p = press(p, tea.KeyDown)
	p = press(p, tea.KeyEnter)

	require.True(t, p.Done())
	got, ok := p.Chosen()
	assert.True(t, ok)
	assert.Equal(t, "/dev/ttyUSB0", got)
}

func TestPickerCancel(t *testing.T) {
	p := NewPortPicker([]serialmon.PortDescriptor{{Name: "/dev/ttyACM0"}})
	p = press(p, tea.KeyEsc)

	require.True(t, p.Done())
	_, ok := p.Chosen()
	assert.False(t, ok)
}

func TestBaudPickerStartsAtCurrent(t *testing.T) {
	p := NewBaudPicker(serialmon.RecognizedBaudRates, 115200)
	assert.Contains(t, p.View(), "Select Baud Rate")

	p = press(p, tea.KeyEnter)
	got, ok := p.Chosen()
	assert.True(t, ok)
	assert.Equal(t, "115200", got)
}
