package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	Info      = lipgloss.Color("#60A5FA") // Blue
	White     = lipgloss.Color("#FFFFFF")

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Entry rows
	Row = lipgloss.NewStyle()

	RowSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	StatusPending  = lipgloss.NewStyle().Foreground(Warning)
	StatusAccepted = lipgloss.NewStyle().Foreground(Secondary)
	StatusRejected = lipgloss.NewStyle().Foreground(Muted).Strikethrough(true)

	// Diff lines
	DiffAdded   = lipgloss.NewStyle().Foreground(Secondary)
	DiffRemoved = lipgloss.NewStyle().Foreground(Error)
	DiffHunk    = lipgloss.NewStyle().Foreground(Info)
	DiffHeader  = lipgloss.NewStyle().Bold(true)

	// Input styles
	InputLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// StatusStyle returns the style for an entry status
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "pending":
		return StatusPending
	case "accepted":
		return StatusAccepted
	case "rejected":
		return StatusRejected
	default:
		return MutedText
	}
}
