package views

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"mcpdiff/internal/adapters/tui/styles"
	"mcpdiff/internal/application/commands"
	"mcpdiff/internal/domain"
)

// DiffKeyMap defines key bindings for the diff view
type DiffKeyMap struct {
	Back   key.Binding
	Accept key.Binding
	Reject key.Binding
	Edit   key.Binding
	Copy   key.Binding
}

var DiffKeys = DiffKeyMap{
	Back: key.NewBinding(
		key.WithKeys("esc", "q"),
		key.WithHelp("esc/q", "back"),
	),
	Accept: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "accept"),
	),
	Reject: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reject"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit at hunk"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy diff"),
	),
}

// DiffModel shows the recorded diff of one entry in a scrollable viewport
type DiffModel struct {
	ViewState
	journal *commands.Journal
	copy    func(string) error

	entry    domain.LogEntry
	diff     []byte
	loaded   bool
	viewport viewport.Model
}

// NewDiffModel creates a new diff view model
func NewDiffModel(j *commands.Journal) *DiffModel {
	return &DiffModel{
		journal:  j,
		copy:     clipboard.WriteAll,
		viewport: viewport.New(80, 20),
	}
}

type diffLoadedMsg struct {
	shown commands.ShownEntry
}

// SetEntry selects the entry to show and returns the command loading its diff
func (m *DiffModel) SetEntry(e domain.LogEntry) tea.Cmd {
	m.entry = e
	m.diff = nil
	m.loaded = false
	m.ClearMessage()
	m.viewport.SetContent("")
	m.viewport.GotoTop()

	j := m.journal
	return func() tea.Msg {
		result, err := commands.NewShowCommand(j, e.EditID).Execute(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return diffLoadedMsg{result.Entries[0]}
	}
}

// Init initializes the diff view
func (m *DiffModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the diff view
func (m *DiffModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case diffLoadedMsg:
		m.diff = msg.shown.Diff
		m.loaded = true
		m.viewport.SetContent(RenderDiff(m.diff))
		return m, nil

	case errMsg:
		m.loaded = true
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DiffKeys.Back):
			return m, func() tea.Msg { return SwitchToBrowserMsg{} }

		case key.Matches(msg, DiffKeys.Accept):
			e := m.entry
			j := m.journal
			return m, func() tea.Msg {
				result, err := commands.NewAcceptCommand(j, e.EditID, "").Execute(context.Background())
				if err != nil {
					return StatusChangedMsg{Err: err}
				}
				return StatusChangedMsg{Message: result.Message}
			}

		case key.Matches(msg, DiffKeys.Reject):
			e := m.entry
			return m, func() tea.Msg { return SwitchToRejectMsg{Entry: e} }

		case key.Matches(msg, DiffKeys.Edit):
			path := m.journal.Layout.Resolve(m.entry.FilePath)
			line := FirstChangedLine(m.diff)
			return m, func() tea.Msg { return OpenEditorMsg{Path: path, Line: line} }

		case key.Matches(msg, DiffKeys.Copy):
			if err := m.copy(string(m.diff)); err != nil {
				m.SetMessage("copy failed: "+err.Error(), true)
			} else {
				m.SetMessage("Copied diff", false)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the diff view
func (m *DiffModel) View() string {
	var b strings.Builder

	e := m.entry
	b.WriteString(styles.Title.Render(fmt.Sprintf("%s %s", operationName(e), entryPath(m.journal.Layout, e))))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render(fmt.Sprintf("%s  ·  conversation %s  ·  %s",
		e.EditID, e.ConversationID, e.Status)))
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString("Loading...")
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	if m.Message != "" {
		b.WriteString("\n")
		b.WriteString(RenderMessage(m.Message, m.MessageErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("%3.f%%  ", m.viewport.ScrollPercent()*100)))
	b.WriteString(RenderHelpLine(DiffKeys.Back, DiffKeys.Accept, DiffKeys.Reject, DiffKeys.Edit, DiffKeys.Copy))

	return styles.App.Render(b.String())
}

// SetSize updates the view dimensions and the viewport
func (m *DiffModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	m.viewport.Width = max(width-4, 20)
	m.viewport.Height = max(height-10, 5)
}

var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// FirstChangedLine returns the first line in the new file touched by a
// unified diff, or 0 when there is none
func FirstChangedLine(diff []byte) int {
	line := 0
	inHunk := false
	for _, l := range strings.Split(string(diff), "\n") {
		if m := hunkHeader.FindStringSubmatch(l); m != nil {
			line, _ = strconv.Atoi(m[1])
			inHunk = true
			continue
		}
		if !inHunk {
			continue
		}
		switch {
		case strings.HasPrefix(l, "+"), strings.HasPrefix(l, "-"):
			return max(line, 1)
		case strings.HasPrefix(l, " "):
			line++
		}
	}
	return 0
}
