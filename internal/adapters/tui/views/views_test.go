package views

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"mcpdiff/internal/application/commands"
	"mcpdiff/internal/bootstrap"
	"mcpdiff/internal/config"
	"mcpdiff/internal/domain"
)

func setupJournal(t *testing.T) *commands.Journal {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, domain.MarkerDir), 0755); err != nil {
		t.Fatalf("failed to create marker: %v", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		t.Fatalf("config.Load failed: %v", err)
	}
	j, closeFn, err := bootstrap.Open(cfg, bootstrap.DiscardLogger())
	if err != nil {
		t.Fatalf("bootstrap.Open failed: %v", err)
	}
	t.Cleanup(func() { closeFn() })
	return j
}

func write(t *testing.T, j *commands.Journal, conv, path, content string) domain.LogEntry {
	t.Helper()
	res, err := commands.NewWriteFileCommand(j, conv, path, []byte(content)).Execute(context.Background())
	if err != nil {
		t.Fatalf("write %s failed: %v", path, err)
	}
	return res.Entry
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// run executes cmd and feeds its message back into m, once
func run(m tea.Model, cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	m.Update(msg)
	return msg
}

func loadedBrowser(t *testing.T, j *commands.Journal) *BrowserModel {
	t.Helper()
	m := NewBrowserModel(j)
	m.SetSize(120, 40)
	run(m, m.Init())
	return m
}

func TestFirstChangedLine(t *testing.T) {
	tests := []struct {
		name string
		diff string
		want int
	}{
		{"empty", "", 0},
		{"create", "--- /dev/null\n+++ b/a.txt\n@@ -0,0 +1,2 @@\n+one\n+two\n", 1},
		{"context first", "--- a/a.txt\n+++ b/a.txt\n@@ -3,4 +3,4 @@\n c\n d\n-e\n+E\n", 5},
		{"no hunk", "Binary files differ\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstChangedLine([]byte(tt.diff)); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestBrowser_ListsEntries(t *testing.T) {
	j := setupJournal(t)
	write(t, j, "conv-1", "a.txt", "one\n")
	write(t, j, "conv-1", "docs/b.md", "two\n")

	m := loadedBrowser(t, j)
	view := m.View()
	for _, want := range []string{"a.txt", "docs/b.md", "2 pending"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	e, ok := m.Selected()
	if !ok || !strings.HasSuffix(e.FilePath, "a.txt") {
		t.Fatalf("expected first entry selected, got %+v", e)
	}
	m.Update(keyMsg("j"))
	if e, _ := m.Selected(); !strings.HasSuffix(e.FilePath, "b.md") {
		t.Errorf("cursor did not move down")
	}
	m.Update(keyMsg("j"))
	if e, _ := m.Selected(); !strings.HasSuffix(e.FilePath, "b.md") {
		t.Errorf("cursor moved past the last entry")
	}
}

func TestBrowser_CopyEditID(t *testing.T) {
	j := setupJournal(t)
	entry := write(t, j, "conv-1", "a.txt", "one\n")

	m := loadedBrowser(t, j)
	var copied string
	m.copy = func(s string) error { copied = s; return nil }

	m.Update(keyMsg("y"))
	if copied != entry.EditID {
		t.Errorf("expected %s copied, got %q", entry.EditID, copied)
	}
	if m.MessageErr || !strings.Contains(m.Message, entry.EditID) {
		t.Errorf("unexpected message %q", m.Message)
	}

	m.copy = func(string) error { return errors.New("no clipboard") }
	m.Update(keyMsg("y"))
	if !m.MessageErr {
		t.Errorf("expected copy failure to be reported")
	}
}

func TestBrowser_Accept(t *testing.T) {
	j := setupJournal(t)
	write(t, j, "conv-1", "a.txt", "one\n")

	m := loadedBrowser(t, j)
	_, cmd := m.Update(keyMsg("a"))
	msg := run(m, cmd)
	if _, ok := msg.(acceptedMsg); !ok {
		t.Fatalf("expected acceptedMsg, got %T", msg)
	}
	run(m, m.Reload())

	e, _ := m.Selected()
	if e.Status != domain.StatusAccepted {
		t.Errorf("expected accepted, got %s", e.Status)
	}
}

func TestBrowser_Filters(t *testing.T) {
	j := setupJournal(t)
	write(t, j, "conv-1", "a.txt", "one\n")
	write(t, j, "conv-1", "src/b.go", "package b\n")

	m := loadedBrowser(t, j)

	// status filter: all -> pending
	_, cmd := m.Update(keyMsg("tab"))
	run(m, cmd)
	if len(m.entries) != 2 {
		t.Errorf("pending filter: expected 2 entries, got %d", len(m.entries))
	}
	_, cmd = m.Update(keyMsg("tab"))
	run(m, cmd)
	if len(m.entries) != 0 {
		t.Errorf("accepted filter: expected no entries, got %d", len(m.entries))
	}
	m.statusIdx = 0

	m.Update(keyMsg("/"))
	if !m.filtering {
		t.Fatalf("expected filter input to open")
	}
	for _, r := range "src/*" {
		m.Update(keyMsg(string(r)))
	}
	_, cmd = m.Update(keyMsg("enter"))
	run(m, cmd)
	if m.glob != "src/*" {
		t.Errorf("expected glob src/*, got %q", m.glob)
	}
	if len(m.entries) != 1 || !strings.HasSuffix(m.entries[0].FilePath, "b.go") {
		t.Errorf("unexpected filtered entries %+v", m.entries)
	}
}

func TestBrowser_SwitchMessages(t *testing.T) {
	j := setupJournal(t)
	write(t, j, "conv-1", "a.txt", "one\n")
	m := loadedBrowser(t, j)

	tests := []struct {
		key   string
		check func(tea.Msg) bool
	}{
		{"enter", func(msg tea.Msg) bool { _, ok := msg.(SwitchToDiffMsg); return ok }},
		{"r", func(msg tea.Msg) bool { s, ok := msg.(SwitchToRejectMsg); return ok && !s.Conversation }},
		{"R", func(msg tea.Msg) bool { s, ok := msg.(SwitchToRejectMsg); return ok && s.Conversation }},
		{"e", func(msg tea.Msg) bool { o, ok := msg.(OpenEditorMsg); return ok && strings.HasSuffix(o.Path, "a.txt") }},
		{"?", func(msg tea.Msg) bool { _, ok := msg.(SwitchToHelpMsg); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, cmd := m.Update(keyMsg(tt.key))
			if cmd == nil {
				t.Fatalf("expected a command")
			}
			if msg := cmd(); !tt.check(msg) {
				t.Errorf("unexpected message %#v", msg)
			}
		})
	}
}

func TestDiffModel(t *testing.T) {
	j := setupJournal(t)
	write(t, j, "conv-1", "a.txt", "one\ntwo\n")
	entry := write(t, j, "conv-1", "a.txt", "one\nTWO\n")

	m := NewDiffModel(j)
	m.SetSize(100, 30)
	run(m, m.SetEntry(entry))
	if !m.loaded {
		t.Fatalf("diff not loaded")
	}
	if !strings.Contains(m.View(), "TWO") {
		t.Errorf("diff view missing new line")
	}

	var copied string
	m.copy = func(s string) error { copied = s; return nil }
	m.Update(keyMsg("y"))
	if !strings.Contains(copied, "+TWO") {
		t.Errorf("expected diff copied, got %q", copied)
	}

	_, cmd := m.Update(keyMsg("e"))
	open, ok := cmd().(OpenEditorMsg)
	if !ok || open.Line != 2 {
		t.Errorf("expected editor at line 2, got %#v", open)
	}

	_, cmd = m.Update(keyMsg("esc"))
	if _, ok := cmd().(SwitchToBrowserMsg); !ok {
		t.Errorf("esc should return to the browser")
	}
}

func TestRejectModel(t *testing.T) {
	if _, err := exec.LookPath("patch"); err != nil {
		t.Skip("patch not installed")
	}
	j := setupJournal(t)
	write(t, j, "conv-1", "a.txt", "one\n")
	entry := write(t, j, "conv-1", "a.txt", "two\n")

	m := NewRejectModel(j)
	m.SetTarget(entry, false)
	if !strings.Contains(m.View(), entry.EditID) {
		t.Errorf("view should name the edit")
	}

	_, cmd := m.Update(keyMsg("y"))
	msg, ok := cmd().(StatusChangedMsg)
	if !ok {
		t.Fatalf("expected StatusChangedMsg")
	}
	if msg.Err != nil {
		t.Fatalf("reject failed: %v", msg.Err)
	}

	data, err := os.ReadFile(filepath.Join(j.Layout.WorkspaceRoot, "a.txt"))
	if err != nil || string(data) != "one\n" {
		t.Errorf("expected file rebuilt to %q, got %q (%v)", "one\n", data, err)
	}

	_, cmd = m.Update(keyMsg("n"))
	if _, ok := cmd().(SwitchToBrowserMsg); !ok {
		t.Errorf("n should cancel")
	}
}
