package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"mcpdiff/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	ViewState
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg {
				return SwitchToBrowserMsg{}
			}
		}
	}

	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("mcpdiff Help"))
	b.WriteString("\n\n")

	b.WriteString(styles.Subtitle.Render("Review edits recorded per conversation"))
	b.WriteString("\n\n")

	b.WriteString(styles.InputLabel.Render("Navigation"))
	b.WriteString("\n")
	b.WriteString(helpLine("j / k / ↑ / ↓", "Move up/down"))
	b.WriteString(helpLine("h / l / ← / →", "Previous/next page"))
	b.WriteString(helpLine("Enter", "Show diff"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("Review"))
	b.WriteString("\n")
	b.WriteString(helpLine("a", "Accept selected edit"))
	b.WriteString(helpLine("r", "Reject selected edit"))
	b.WriteString(helpLine("R", "Reject whole conversation"))
	b.WriteString(helpLine("e", "Open file in $EDITOR"))
	b.WriteString(helpLine("y", "Copy edit id (diff in diff view)"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("Filters"))
	b.WriteString("\n")
	b.WriteString(helpLine("tab", "Cycle status filter"))
	b.WriteString(helpLine("/", "Filter by file glob"))
	b.WriteString(helpLine("g", "Reload"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("General"))
	b.WriteString("\n")
	b.WriteString(helpLine("?", "Toggle help"))
	b.WriteString(helpLine("q / Ctrl+C", "Quit"))
	b.WriteString("\n\n")

	b.WriteString(styles.InputLabel.Render("Statuses"))
	b.WriteString("\n")
	b.WriteString("  " + styles.StatusPending.Render("pending ") + styles.MutedText.Render(" recorded, not reviewed"))
	b.WriteString("\n")
	b.WriteString("  " + styles.StatusAccepted.Render("accepted") + styles.MutedText.Render(" kept by reconstruction"))
	b.WriteString("\n")
	b.WriteString("  " + styles.StatusRejected.Render("rejected") + styles.MutedText.Render(" skipped by reconstruction"))
	b.WriteString("\n\n")

	b.WriteString(styles.HelpDesc.Render("Press "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" or "))
	b.WriteString(styles.HelpKey.Render("?"))
	b.WriteString(styles.HelpDesc.Render(" to close"))

	return styles.App.Render(b.String())
}

func helpLine(key, desc string) string {
	return "  " + styles.HelpKey.Render(padRight(key, 20)) + styles.HelpDesc.Render(desc) + "\n"
}
