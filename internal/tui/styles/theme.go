package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialmon/internal/tui/colors"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Status styles
	StatusOpenStyle = lipgloss.NewStyle().
			Foreground(colors.Open).
			Bold(true)

	StatusClosedStyle = lipgloss.NewStyle().
				Foreground(colors.Closed).
				Bold(true)

	StatusPendingStyle = lipgloss.NewStyle().
				Foreground(colors.Pending).
				Bold(true)

	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	// Input styles
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	// Picker styles
	PickerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Mauve).
			Padding(0, 1)

	PickerHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colors.Text)

	PickerHighlightStyle = lipgloss.NewStyle().
				Foreground(colors.Base).
				Background(colors.Mauve)

	// Error styles
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	// Notice styles
	NoticeStyle = lipgloss.NewStyle().
			Foreground(colors.Notice)

	// Muted text
	MutedStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay0)
)

type StatusType int

const (
	StatusOpen StatusType = iota
	StatusClosed
	StatusPending
	StatusError
)

func GetStatusStyle(status StatusType) lipgloss.Style {
	switch status {
	case StatusOpen:
		return StatusOpenStyle
	case StatusPending:
		return StatusPendingStyle
	default:
		return StatusClosedStyle
	}
}
