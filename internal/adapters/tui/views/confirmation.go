package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"mcpdiff/internal/adapters/tui/styles"
	"mcpdiff/internal/application/commands"
	"mcpdiff/internal/domain"
)

// ConfirmKeyMap defines key bindings for confirmation views
type ConfirmKeyMap struct {
	Confirm key.Binding
	Force   key.Binding
	Cancel  key.Binding
}

// DefaultConfirmKeys returns the default confirmation key bindings
var DefaultConfirmKeys = ConfirmKeyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Force: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "confirm, overwrite local changes"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}

// RejectModel asks for confirmation before rejecting an edit or a
// whole conversation
type RejectModel struct {
	ViewState
	journal      *commands.Journal
	Keys         ConfirmKeyMap
	Target       domain.LogEntry
	Conversation bool
}

// NewRejectModel creates a new reject confirmation model
func NewRejectModel(j *commands.Journal) *RejectModel {
	return &RejectModel{
		journal: j,
		Keys:    DefaultConfirmKeys,
	}
}

// SetTarget sets the entry the confirmation is about
func (m *RejectModel) SetTarget(e domain.LogEntry, conversation bool) {
	m.Target = e
	m.Conversation = conversation
	m.ClearMessage()
}

// Init initializes the reject view
func (m *RejectModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the reject view
func (m *RejectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Cancel):
			return m, func() tea.Msg { return SwitchToBrowserMsg{} }
		case key.Matches(msg, m.Keys.Confirm):
			return m, m.reject(false)
		case key.Matches(msg, m.Keys.Force):
			return m, m.reject(true)
		}
	}

	return m, nil
}

func (m *RejectModel) reject(force bool) tea.Cmd {
	editID, conv := m.Target.EditID, ""
	if m.Conversation {
		editID, conv = "", m.Target.ConversationID
	}
	j := m.journal

	return func() tea.Msg {
		result, err := commands.NewRejectCommand(j, editID, conv, force).Execute(context.Background())
		if result == nil {
			return StatusChangedMsg{Err: err}
		}
		msg := result.Message
		if len(result.Warnings) > 0 {
			msg += " (" + strings.Join(result.Warnings, "; ") + ")"
		}
		return StatusChangedMsg{Message: msg, Err: err}
	}
}

// View renders the reject confirmation
func (m *RejectModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Reject"))
	b.WriteString("\n\n")

	e := m.Target
	if m.Conversation {
		b.WriteString(styles.InputLabel.Render("Reject every pending and accepted edit of conversation:"))
		b.WriteString("\n  ")
		b.WriteString(e.ConversationID)
	} else {
		b.WriteString(styles.InputLabel.Render("Reject edit:"))
		b.WriteString("\n  ")
		b.WriteString(fmt.Sprintf("%s %s %s", e.EditID, operationName(e), entryPath(m.journal.Layout, e)))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Affected files are rebuilt from the edits that remain."))
	b.WriteString("\n\n")

	b.WriteString(RenderConfirmPrompt("Continue?"))
	b.WriteString("\n\n")
	b.WriteString(RenderHelpLine(m.Keys.Confirm, m.Keys.Force, m.Keys.Cancel))

	return styles.App.Render(b.String())
}

// RenderConfirmPrompt renders the standard confirmation prompt
func RenderConfirmPrompt(question string) string {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString(" ")
	b.WriteString(styles.HelpKey.Render("y"))
	b.WriteString(styles.HelpDesc.Render(" to confirm, "))
	b.WriteString(styles.HelpKey.Render("n"))
	b.WriteString(styles.HelpDesc.Render(" to cancel"))
	return b.String()
}
