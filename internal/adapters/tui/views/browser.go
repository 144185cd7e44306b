package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mcpdiff/internal/adapters/tui/styles"
	"mcpdiff/internal/application/commands"
	"mcpdiff/internal/domain"
)

// BrowserKeyMap defines key bindings for the browser view
type BrowserKeyMap struct {
	Up           key.Binding
	Down         key.Binding
	PrevPage     key.Binding
	NextPage     key.Binding
	Enter        key.Binding
	Accept       key.Binding
	Reject       key.Binding
	RejectConv   key.Binding
	Edit         key.Binding
	Copy         key.Binding
	CycleStatus  key.Binding
	Filter       key.Binding
	Reload       key.Binding
	Help         key.Binding
	Quit         key.Binding
	ApplyFilter  key.Binding
	CancelFilter key.Binding
}

var BrowserKeys = BrowserKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("h", "left", "pgup"),
		key.WithHelp("h/←", "prev page"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("l", "right", "pgdown"),
		key.WithHelp("l/→", "next page"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "diff"),
	),
	Accept: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "accept"),
	),
	Reject: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reject"),
	),
	RejectConv: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reject conversation"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit file"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy id"),
	),
	CycleStatus: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "status filter"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "file filter"),
	),
	Reload: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "reload"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	ApplyFilter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "apply"),
	),
	CancelFilter: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

// statusCycle is the order tab steps through; nil shows every status
var statusCycle = []*domain.Status{nil, statusPtr(domain.StatusPending), statusPtr(domain.StatusAccepted), statusPtr(domain.StatusRejected)}

func statusPtr(s domain.Status) *domain.Status { return &s }

// BrowserModel lists journal entries, newest last
type BrowserModel struct {
	ViewState
	journal *commands.Journal
	copy    func(string) error

	entries []domain.LogEntry
	counts  map[domain.Status]int
	loaded  bool
	cursor  int
	pages   paginator.Model

	statusIdx int
	glob      string
	filter    textinput.Model
	filtering bool
}

// NewBrowserModel creates a new browser model
func NewBrowserModel(j *commands.Journal) *BrowserModel {
	pages := paginator.New()
	pages.Type = paginator.Arabic
	pages.PerPage = 15

	filter := textinput.New()
	filter.Placeholder = "src/**/*.go"
	filter.Prompt = "file: "
	filter.CharLimit = 200

	return &BrowserModel{
		journal: j,
		copy:    clipboard.WriteAll,
		pages:   pages,
		filter:  filter,
	}
}

// Init initializes the browser
func (m *BrowserModel) Init() tea.Cmd {
	return m.loadEntries
}

type entriesLoadedMsg struct {
	result *commands.ListEntriesResult
}

type acceptedMsg struct {
	message string
}

func (m *BrowserModel) loadEntries() tea.Msg {
	filter := domain.EntryFilter{
		FileGlob: m.glob,
		Status:   statusCycle[m.statusIdx],
	}
	result, err := commands.NewListEntriesCommand(m.journal, filter).Execute(context.Background())
	if err != nil {
		return errMsg{err}
	}
	return entriesLoadedMsg{result}
}

// Update handles messages for the browser
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case entriesLoadedMsg:
		m.entries = msg.result.Entries
		m.counts = msg.result.Counts
		m.loaded = true
		m.pages.SetTotalPages(len(m.entries))
		m.setCursor(m.cursor)
		return m, nil

	case acceptedMsg:
		m.SetMessage(msg.message, false)
		return m, m.loadEntries

	case errMsg:
		m.SetMessage(msg.err.Error(), true)
		m.loaded = true
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m, m.updateFilter(msg)
		}
		m.ClearMessage()
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *BrowserModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, BrowserKeys.Quit):
		return tea.Quit

	case key.Matches(msg, BrowserKeys.Up):
		m.setCursor(m.cursor - 1)

	case key.Matches(msg, BrowserKeys.Down):
		m.setCursor(m.cursor + 1)

	case key.Matches(msg, BrowserKeys.PrevPage):
		m.setCursor(m.cursor - m.pages.PerPage)

	case key.Matches(msg, BrowserKeys.NextPage):
		m.setCursor(m.cursor + m.pages.PerPage)

	case key.Matches(msg, BrowserKeys.CycleStatus):
		m.statusIdx = (m.statusIdx + 1) % len(statusCycle)
		m.cursor = 0
		return m.loadEntries

	case key.Matches(msg, BrowserKeys.Filter):
		m.filtering = true
		m.filter.SetValue(m.glob)
		m.filter.CursorEnd()
		return m.filter.Focus()

	case key.Matches(msg, BrowserKeys.Reload):
		return m.loadEntries

	case key.Matches(msg, BrowserKeys.Help):
		return func() tea.Msg { return SwitchToHelpMsg{} }
	}

	e, ok := m.Selected()
	if !ok {
		return nil
	}

	switch {
	case key.Matches(msg, BrowserKeys.Enter):
		return func() tea.Msg { return SwitchToDiffMsg{Entry: e} }

	case key.Matches(msg, BrowserKeys.Accept):
		return m.accept(e)

	case key.Matches(msg, BrowserKeys.Reject):
		return func() tea.Msg { return SwitchToRejectMsg{Entry: e} }

	case key.Matches(msg, BrowserKeys.RejectConv):
		return func() tea.Msg { return SwitchToRejectMsg{Entry: e, Conversation: true} }

	case key.Matches(msg, BrowserKeys.Edit):
		path := m.journal.Layout.Resolve(e.FilePath)
		return func() tea.Msg { return OpenEditorMsg{Path: path} }

	case key.Matches(msg, BrowserKeys.Copy):
		if err := m.copy(e.EditID); err != nil {
			m.SetMessage("copy failed: "+err.Error(), true)
		} else {
			m.SetMessage("Copied "+e.EditID, false)
		}
	}
	return nil
}

func (m *BrowserModel) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, BrowserKeys.ApplyFilter):
		m.filtering = false
		m.filter.Blur()
		m.glob = strings.TrimSpace(m.filter.Value())
		m.cursor = 0
		return m.loadEntries

	case key.Matches(msg, BrowserKeys.CancelFilter):
		m.filtering = false
		m.filter.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return cmd
}

func (m *BrowserModel) accept(e domain.LogEntry) tea.Cmd {
	return func() tea.Msg {
		result, err := commands.NewAcceptCommand(m.journal, e.EditID, "").Execute(context.Background())
		if err != nil {
			return errMsg{err}
		}
		if len(result.Warnings) > 0 {
			return errMsg{errors.New(result.Warnings[0])}
		}
		return acceptedMsg{result.Message}
	}
}

func (m *BrowserModel) setCursor(pos int) {
	pos = min(pos, len(m.entries)-1)
	m.cursor = max(pos, 0)
	if m.pages.PerPage > 0 {
		m.pages.Page = m.cursor / m.pages.PerPage
	}
}

// Selected returns the entry under the cursor
func (m *BrowserModel) Selected() (domain.LogEntry, bool) {
	if m.cursor >= 0 && m.cursor < len(m.entries) {
		return m.entries[m.cursor], true
	}
	return domain.LogEntry{}, false
}

// View renders the browser
func (m *BrowserModel) View() string {
	if !m.loaded {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(styles.Title.Render("mcpdiff"))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render(m.subtitle()))
	b.WriteString("\n\n")

	if m.filtering {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	if len(m.entries) == 0 {
		b.WriteString(styles.MutedText.Render("No entries."))
		b.WriteString("\n")
	} else {
		start, end := m.pages.GetSliceBounds(len(m.entries))
		for i := start; i < end; i++ {
			b.WriteString(m.renderEntry(m.entries[i], i == m.cursor))
			b.WriteString("\n")
		}
		if m.pages.TotalPages > 1 {
			b.WriteString("\n")
			b.WriteString(styles.MutedText.Render("page " + m.pages.View()))
			b.WriteString("\n")
		}
	}

	if m.Message != "" {
		b.WriteString("\n")
		b.WriteString(RenderMessage(m.Message, m.MessageErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.filtering {
		b.WriteString(RenderHelpLine(BrowserKeys.ApplyFilter, BrowserKeys.CancelFilter))
	} else {
		b.WriteString(RenderHelpLine(BrowserKeys.Enter, BrowserKeys.Accept, BrowserKeys.Reject,
			BrowserKeys.CycleStatus, BrowserKeys.Filter, BrowserKeys.Help, BrowserKeys.Quit))
	}

	return styles.App.Render(b.String())
}

func (m *BrowserModel) subtitle() string {
	parts := []string{m.journal.Layout.WorkspaceRoot}
	parts = append(parts, fmt.Sprintf("%d pending, %d accepted, %d rejected",
		m.counts[domain.StatusPending], m.counts[domain.StatusAccepted], m.counts[domain.StatusRejected]))
	if s := statusCycle[m.statusIdx]; s != nil {
		parts = append(parts, "status="+s.String())
	}
	if m.glob != "" {
		parts = append(parts, "file="+m.glob)
	}
	return strings.Join(parts, "  ·  ")
}

func (m *BrowserModel) renderEntry(e domain.LogEntry, selected bool) string {
	status := padRight(e.Status.String(), 9)
	text := fmt.Sprintf("%s  %s  %s  %s  %s",
		e.Timestamp.Local().Format("01-02 15:04:05"),
		shortID(e.EditID),
		shortID(e.ConversationID),
		padRight(operationName(e), 8),
		entryPath(m.journal.Layout, e))

	if selected {
		return styles.RowSelected.Render(status + text)
	}
	return styles.StatusStyle(e.Status.String()).Render(status) + styles.Row.Render(text)
}

// SetSize updates the view dimensions and the page size
func (m *BrowserModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	// leave room for the header, pager, message and help line
	m.pages.PerPage = max(height-12, 5)
	m.pages.SetTotalPages(len(m.entries))
	m.setCursor(m.cursor)
}

// Reload reloads the entries from the journal
func (m *BrowserModel) Reload() tea.Cmd {
	return m.loadEntries
}
