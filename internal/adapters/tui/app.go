package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"mcpdiff/internal/adapters/tui/views"
	"mcpdiff/internal/application/commands"
	"mcpdiff/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewBrowser ViewState = iota
	ViewDiff
	ViewReject
	ViewHelp
)

// App is the main TUI application model
type App struct {
	journal *commands.Journal
	editor  ports.EditorOpener

	state   ViewState
	browser *views.BrowserModel
	diff    *views.DiffModel
	reject  *views.RejectModel
	help    *views.HelpModel

	width  int
	height int
}

// NewApp creates a new TUI application. ed may be nil, which disables
// opening files.
func NewApp(j *commands.Journal, ed ports.EditorOpener) *App {
	return &App{
		journal: j,
		editor:  ed,
		state:   ViewBrowser,
		browser: views.NewBrowserModel(j),
		diff:    views.NewDiffModel(j),
		reject:  views.NewRejectModel(j),
		help:    views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.browser.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.browser.SetSize(msg.Width, msg.Height)
		a.diff.SetSize(msg.Width, msg.Height)
		a.reject.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	// View switching messages
	case views.SwitchToDiffMsg:
		a.state = ViewDiff
		return a, a.diff.SetEntry(msg.Entry)

	case views.SwitchToRejectMsg:
		a.state = ViewReject
		a.reject.SetTarget(msg.Entry, msg.Conversation)
		return a, nil

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToBrowserMsg:
		a.state = ViewBrowser
		return a, a.browser.Reload()

	case views.StatusChangedMsg:
		a.state = ViewBrowser
		if msg.Err != nil {
			text := msg.Err.Error()
			if msg.Message != "" {
				text = msg.Message + ": " + text
			}
			a.browser.SetMessage(text, true)
		} else {
			a.browser.SetMessage(msg.Message, false)
		}
		return a, a.browser.Reload()

	case views.OpenEditorMsg:
		return a, a.openEditor(msg.Path, msg.Line)

	case editorFinishedMsg:
		if msg.err != nil {
			a.browser.SetMessage(msg.err.Error(), true)
		}
		return a, a.browser.Reload()
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewBrowser:
		_, cmd = a.browser.Update(msg)
	case ViewDiff:
		_, cmd = a.diff.Update(msg)
	case ViewReject:
		_, cmd = a.reject.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

type editorFinishedMsg struct{ err error }

func (a *App) openEditor(path string, line int) tea.Cmd {
	if a.editor == nil {
		return nil
	}

	cmd, err := a.editor.Command(path, line)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewDiff:
		return a.diff.View()
	case ViewReject:
		return a.reject.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.browser.View()
	}
}
