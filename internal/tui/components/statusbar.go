package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialmon/internal/tui/colors"
	"github.com/allbin/serialmon/session"
)

type StatusBar struct {
	status  session.Status
	pending string
	message string
	err     error
	width   int
}

func NewStatusBar(status session.Status) *StatusBar {
	return &StatusBar{status: status}
}

// SetStatus replaces the port and baud rate indicators
func (sb *StatusBar) SetStatus(status session.Status) {
	sb.status = status
}

func (sb *StatusBar) Status() session.Status {
	return sb.status
}

// SetPending marks an operation as running, e.g. "opening"
func (sb *StatusBar) SetPending(op string) {
	sb.pending = op
}

// SetMessage shows an informational message and clears any error
func (sb *StatusBar) SetMessage(message string) {
	sb.pending = ""
	sb.message = message
	sb.err = nil
}

// SetError shows an error message
func (sb *StatusBar) SetError(err error) {
	sb.pending = ""
	sb.message = ""
	sb.err = err
}

func (sb *StatusBar) Message() string {
	if sb.err != nil {
		return sb.err.Error()
	}
	return sb.message
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) indicator() string {
	var style lipgloss.Style
	var symbol string
	switch {
	case sb.pending != "":
		style = lipgloss.NewStyle().Foreground(colors.Pending)
		symbol = "○"
	case sb.err != nil:
		style = lipgloss.NewStyle().Foreground(colors.Closed)
		symbol = "✗"
	case sb.status.Open:
		style = lipgloss.NewStyle().Foreground(colors.Open)
		symbol = "●"
	default:
		style = lipgloss.NewStyle().Foreground(colors.Closed)
		symbol = "○"
	}
	return style.Padding(0, 1).Render(symbol)
}

// ComprehensiveStatusBar renders mode, port, state, message, baud rate and time
func (sb *StatusBar) ComprehensiveStatusBar(inputMode, sendingMode, displayMode, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	// Section 1: Mode indicator (like NORMAL in nvim)
	modeStyle := lipgloss.NewStyle().
		Foreground(colors.Base).
		Bold(true).
		Padding(0, 1)
	if inputMode == "INSERT" {
		modeStyle = modeStyle.Background(colors.Green)
	} else {
		modeStyle = modeStyle.Background(colors.Blue)
	}
	mode := modeStyle.Render(inputMode)

	// Section 2: Port label
	portStyle := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		PaddingLeft(1)
	port := portStyle.Render(sb.status.Port)

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	// Section 3: Pending operation, error or message
	var message string
	switch {
	case sb.pending != "":
		message = lipgloss.NewStyle().Foreground(colors.Pending).Render(sb.pending + "...")
	case sb.err != nil:
		message = lipgloss.NewStyle().Foreground(colors.Red).Render(sb.err.Error())
	case sb.message != "":
		message = lipgloss.NewStyle().Foreground(colors.Notice).Render(sb.message)
	}

	leftParts := []string{mode, port, sb.indicator()}
	if inputMode == "INSERT" {
		leftParts = append(leftParts, lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode)))
	}
	leftParts = append(leftParts, divider, message)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, leftParts...)

	// Right side: display mode, baud rate, time
	infoStyle := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1)
	details := infoStyle.Render(fmt.Sprintf("%s ⚡ %s baud 8N1", displayMode, sb.status.BaudRate))
	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, divider, details, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	statusBarStyle := lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(terminalWidth)

	return statusBarStyle.Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
