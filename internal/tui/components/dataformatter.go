package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialmon/internal/tui/colors"
)

type DataReceivedMsg struct {
	Timestamp time.Time
	Data      []byte
	IsTX      bool
	Status    string // For TX messages: "WRITTEN", "SKIPPED", "ERROR", empty for RX
}

type DisplayMode int

const (
	// DisplayText shows received bytes as a running text stream
	DisplayText DisplayMode = iota
	DisplayHex
	DisplayASCII
)

func (d DisplayMode) String() string {
	switch d {
	case DisplayHex:
		return "HEX"
	case DisplayASCII:
		return "ASCII"
	default:
		return "TEXT"
	}
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(mode DisplayMode) *DataFormatter {
	return &DataFormatter{mode: mode}
}

func (df *DataFormatter) SetDisplayMode(mode DisplayMode) {
	df.mode = mode
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

// CycleDisplayMode steps text -> hex -> ascii -> text
func (df *DataFormatter) CycleDisplayMode() {
	df.mode = (df.mode + 1) % 3
}

func txIndicator(status string) string {
	var txColor lipgloss.Color
	var statusText string

	switch status {
	case "WRITTEN":
		txColor = colors.Green
		statusText = "TX ✓"
	case "SKIPPED":
		txColor = colors.Yellow
		statusText = "TX ○"
	case "ERROR":
		txColor = colors.Red
		statusText = "TX ✗"
	default:
		txColor = colors.Sent
		statusText = "TX"
	}

	return lipgloss.NewStyle().
		Foreground(txColor).
		Bold(true).
		Render("↗ " + statusText)
}

func printable(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if b >= 32 && b <= 126 {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// FormatMessage renders one message as a single timestamped line
func (df *DataFormatter) FormatMessage(msg DataReceivedMsg) string {
	timestamp := msg.Timestamp.Format("15:04:05.000")

	var indicator string
	if msg.IsTX {
		indicator = txIndicator(msg.Status)
	} else {
		indicator = lipgloss.NewStyle().
			Foreground(colors.Received).
			Bold(true).
			Render("↙ RX")
	}

	var body string
	switch df.mode {
	case DisplayHex:
		body = fmt.Sprintf("HEX: % X", msg.Data)
	case DisplayASCII:
		body = "ASCII: " + printable(msg.Data)
	default:
		body = strings.TrimRight(streamText(msg.Data), "\n")
	}

	timestampStyled := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Render(fmt.Sprintf("[%s]", timestamp))

	return fmt.Sprintf("%s %s: %s", timestampStyled, indicator, body)
}

// streamText keeps newlines and tabs and drops other control bytes so the
// device output cannot move the cursor or restyle the screen.
func streamText(data []byte) string {
	var sb strings.Builder
	for _, r := range string(data) {
		switch {
		case r == '\n' || r == '\t':
			sb.WriteRune(r)
		case r < 32 || r == 127:
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Render renders a whole message log for the current mode. In text mode
// received chunks are concatenated verbatim and sent lines break the stream.
func (df *DataFormatter) Render(messages []DataReceivedMsg) string {
	if df.mode != DisplayText {
		lines := make([]string, len(messages))
		for i, msg := range messages {
			lines[i] = df.FormatMessage(msg)
		}
		return strings.Join(lines, "\n")
	}

	var sb strings.Builder
	atLineStart := true
	for _, msg := range messages {
		if !msg.IsTX {
			text := streamText(msg.Data)
			if text == "" {
				continue
			}
			sb.WriteString(text)
			atLineStart = strings.HasSuffix(text, "\n")
			continue
		}
		if !atLineStart {
			sb.WriteByte('\n')
		}
		sb.WriteString(df.FormatMessage(msg))
		sb.WriteByte('\n')
		atLineStart = true
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
