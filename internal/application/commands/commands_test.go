package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mcpdiff/internal/adapters/digest"
	"mcpdiff/internal/adapters/filesystem"
	"mcpdiff/internal/adapters/lock"
	"mcpdiff/internal/adapters/patch"
	"mcpdiff/internal/application"
	"mcpdiff/internal/domain"
)

func setupJournal(t *testing.T) *Journal {
	t.Helper()
	layout := domain.NewLayout(t.TempDir())
	if err := os.MkdirAll(layout.HistoryRoot, 0755); err != nil {
		t.Fatalf("failed to create history root: %v", err)
	}
	hasher, err := digest.New(digest.SHA256)
	if err != nil {
		t.Fatalf("failed to create hasher: %v", err)
	}

	j := NewJournal(layout,
		filesystem.NewLogStore(layout),
		filesystem.NewArtifactStore(layout),
		filesystem.NewStateStore(layout),
		hasher,
		lock.NewLocker(layout, 0),
		patch.NewEngine(layout, ""),
		false)

	var seq int
	clock := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	j.newID = func() string {
		seq++
		return fmt.Sprintf("e%d", seq)
	}
	j.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return j
}

func requirePatch(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(patch.DefaultBinary); err != nil {
		t.Skipf("patch binary not available: %v", err)
	}
}

func writeFile(t *testing.T, j *Journal, conv, path, content string) domain.LogEntry {
	t.Helper()
	res, err := NewWriteFileCommand(j, conv, path, []byte(content)).Execute(context.Background())
	if err != nil {
		t.Fatalf("write %s failed: %v", path, err)
	}
	return res.Entry
}

func readFile(t *testing.T, j *Journal, path string) (string, bool) {
	t.Helper()
	data, err := os.ReadFile(j.Layout.Resolve(path))
	if os.IsNotExist(err) {
		return "", false
	}
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data), true
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

func TestWriteFileCommand_Validate(t *testing.T) {
	j := setupJournal(t)

	tests := []struct {
		name    string
		conv    string
		path    string
		wantErr bool
		errMsg  string
	}{
		{"valid relative path", "c1", "src/a.go", false, ""},
		{"valid absolute path", "c1", filepath.Join(j.Layout.WorkspaceRoot, "a.go"), false, ""},
		{"missing conversation", "", "a.go", true, "conversation ID is required"},
		{"conversation with separator", "a/b", "a.go", true, "invalid conversation ID"},
		{"missing path", "c1", "", true, "file path is required"},
		{"outside workspace", "c1", "/somewhere/else.go", true, "outside the workspace"},
		{"journal file", "c1", ".mcp/edit_history/logs/c1.log", true, "cannot edit journal files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewWriteFileCommand(j, tt.conv, tt.path, nil).Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errMsg)
					return
				}
				if !contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWriteFileCommand_RecordsCreateAndReplace(t *testing.T) {
	j := setupJournal(t)

	first := writeFile(t, j, "c1", "src/a.txt", "hello")
	second := writeFile(t, j, "c1", "src/a.txt", "hello\nworld\n")

	if first.Operation != domain.OperationCreate {
		t.Errorf("expected create, got %s", first.Operation)
	}
	if second.Operation != domain.OperationReplace {
		t.Errorf("expected replace, got %s", second.Operation)
	}
	if first.ToolCallIndex != 0 || second.ToolCallIndex != 1 {
		t.Errorf("expected tool call indexes 0 and 1, got %d and %d", first.ToolCallIndex, second.ToolCallIndex)
	}
	if first.HashBefore != "" || first.HashAfter == "" {
		t.Errorf("create should only carry an after hash: %+v", first)
	}
	if second.HashBefore != first.HashAfter {
		t.Errorf("hash chain broken: %s != %s", second.HashBefore, first.HashAfter)
	}
	if first.CheckpointFile != "" || second.CheckpointFile != "" {
		t.Errorf("files created in the conversation need no checkpoint")
	}

	if got, _ := readFile(t, j, "src/a.txt"); got != "hello\nworld\n" {
		t.Errorf("unexpected content %q", got)
	}

	diff, err := j.Artifacts.ReadDiff(first.DiffFile)
	if err != nil {
		t.Fatalf("failed to read diff: %v", err)
	}
	if !contains(string(diff), "+++ b/src/a.txt") || !contains(string(diff), "+hello") {
		t.Errorf("unexpected diff:\n%s", diff)
	}

	entries, err := j.Logs.Read("c1")
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if len(entries) != 2 || entries[1].Status != domain.StatusPending {
		t.Errorf("expected two pending entries, got %+v", entries)
	}
}

func TestWriteFileCommand_CheckpointsExistingFile(t *testing.T) {
	j := setupJournal(t)
	path := j.Layout.Resolve("notes.md")
	if err := os.WriteFile(path, []byte("original\n"), 0600); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	first := writeFile(t, j, "c1", "notes.md", "changed\n")
	second := writeFile(t, j, "c1", "notes.md", "changed again\n")
	other := writeFile(t, j, "c2", "notes.md", "third\n")

	if first.CheckpointFile == "" {
		t.Fatalf("first touch of an existing file should checkpoint")
	}
	if second.CheckpointFile != "" {
		t.Errorf("second touch should not checkpoint")
	}
	if other.CheckpointFile == "" {
		t.Errorf("first touch in another conversation should checkpoint")
	}

	content, err := j.Artifacts.ReadCheckpoint(first.CheckpointFile)
	if err != nil {
		t.Fatalf("failed to read checkpoint: %v", err)
	}
	if string(content) != "original\n" {
		t.Errorf("checkpoint should hold the previous content, got %q", content)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file mode not preserved: %v", info.Mode())
	}
}

func TestWriteFileCommand_CompressedCheckpoint(t *testing.T) {
	j := setupJournal(t)
	j.CompressCheckpoints = true
	if err := os.WriteFile(j.Layout.Resolve("a.txt"), []byte("base\n"), 0644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	e := writeFile(t, j, "c1", "a.txt", "next\n")
	if !strings.HasSuffix(e.CheckpointFile, domain.CompressedExt) {
		t.Fatalf("expected compressed checkpoint, got %s", e.CheckpointFile)
	}
	content, err := j.Artifacts.ReadCheckpoint(e.CheckpointFile)
	if err != nil {
		t.Fatalf("failed to read checkpoint: %v", err)
	}
	if string(content) != "base\n" {
		t.Errorf("unexpected checkpoint content %q", content)
	}
}

func TestEditFileCommand(t *testing.T) {
	tests := []struct {
		name       string
		oldText    string
		newText    string
		replaceAll bool
		want       string
		errMsg     string
	}{
		{"single replacement", "beta\n", "BETA\n", false, "alpha\nBETA\ngamma beta2\n", ""},
		{"ambiguous text", "a", "A", false, "", "occurs"},
		{"replace all", "beta", "B", true, "alpha\nB\ngamma B2\n", ""},
		{"missing text", "delta", "D", false, "", "text not found"},
		{"empty old text", "", "D", false, "", "text to replace is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := setupJournal(t)
			writeFile(t, j, "c1", "a.txt", "alpha\nbeta\ngamma beta2\n")

			res, err := NewEditFileCommand(j, "c1", "a.txt", tt.oldText, tt.newText, tt.replaceAll).Execute(context.Background())
			if tt.errMsg != "" {
				if err == nil || !contains(err.Error(), tt.errMsg) {
					t.Fatalf("expected error containing %q, got %v", tt.errMsg, err)
				}
				entries, _ := j.Logs.Read("c1")
				if len(entries) != 1 {
					t.Errorf("failed edit must not be journaled, got %d entries", len(entries))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Entry.Operation != domain.OperationEdit {
				t.Errorf("expected edit, got %s", res.Entry.Operation)
			}
			if got, _ := readFile(t, j, "a.txt"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEditFileCommand_MissingFile(t *testing.T) {
	j := setupJournal(t)

	_, err := NewEditFileCommand(j, "c1", "nope.txt", "a", "b", false).Execute(context.Background())
	if !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteFileCommand(t *testing.T) {
	j := setupJournal(t)
	if err := os.WriteFile(j.Layout.Resolve("old.txt"), []byte("bye\n"), 0644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	res, err := NewDeleteFileCommand(j, "c1", "old.txt").Execute(context.Background())
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := readFile(t, j, "old.txt"); ok {
		t.Errorf("file should be gone")
	}
	if res.Entry.Operation != domain.OperationDelete || res.Entry.CheckpointFile == "" {
		t.Errorf("expected checkpointed delete, got %+v", res.Entry)
	}

	_, err = NewDeleteFileCommand(j, "c1", "old.txt").Execute(context.Background())
	if !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting a missing file, got %v", err)
	}
}

func TestMoveFileCommand(t *testing.T) {
	j := setupJournal(t)
	writeFile(t, j, "c1", "a.txt", "content\n")
	writeFile(t, j, "c1", "taken.txt", "other\n")

	_, err := NewMoveFileCommand(j, "c1", "a.txt", "taken.txt").Execute(context.Background())
	if err == nil || !contains(err.Error(), "already exists") {
		t.Fatalf("expected destination exists error, got %v", err)
	}

	res, err := NewMoveFileCommand(j, "c1", "a.txt", "dir/b.txt").Execute(context.Background())
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if res.Entry.SourcePath != j.Layout.Resolve("a.txt") || res.Entry.FilePath != j.Layout.Resolve("dir/b.txt") {
		t.Errorf("unexpected move paths: %+v", res.Entry)
	}
	if res.Entry.CheckpointFile != "" {
		t.Errorf("move of a file created in the conversation needs no checkpoint")
	}
	if got, ok := readFile(t, j, "dir/b.txt"); !ok || got != "content\n" {
		t.Errorf("moved file missing or wrong: %q", got)
	}
}

func TestSnapshotCommand(t *testing.T) {
	j := setupJournal(t)
	writeFile(t, j, "c1", "a.txt", "content\n")

	res, err := NewSnapshotCommand(j, "c1", "a.txt").Execute(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	e := res.Entry
	if e.Operation != domain.OperationUnknown || e.OperationName != SnapshotOperation {
		t.Errorf("expected snapshot entry, got %s %q", e.Operation, e.OperationName)
	}
	if e.CheckpointFile == "" || e.HashBefore != e.HashAfter {
		t.Errorf("snapshot should checkpoint without changing the file: %+v", e)
	}

	entries, err := j.Logs.Read("c1")
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if entries[1].OperationName != SnapshotOperation {
		t.Errorf("snapshot name not persisted: %+v", entries[1])
	}
}

func TestSetStatusCommand_Validate(t *testing.T) {
	j := setupJournal(t)

	tests := []struct {
		name   string
		cmd    *SetStatusCommand
		errMsg string
	}{
		{"both selectors", NewAcceptCommand(j, "e1", "c1"), "not both"},
		{"no selector", NewRejectCommand(j, "", "", false), "is required"},
		{"pending target", &SetStatusCommand{journal: j, EditID: "e1", Target: domain.StatusPending}, "cannot set status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if err == nil || !contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestEligible(t *testing.T) {
	tests := []struct {
		from, to domain.Status
		want     bool
	}{
		{domain.StatusPending, domain.StatusAccepted, true},
		{domain.StatusAccepted, domain.StatusAccepted, false},
		{domain.StatusRejected, domain.StatusAccepted, false},
		{domain.StatusPending, domain.StatusRejected, true},
		{domain.StatusAccepted, domain.StatusRejected, true},
		{domain.StatusRejected, domain.StatusRejected, false},
		{domain.StatusAccepted, domain.StatusPending, false},
	}
	for _, tt := range tests {
		if got := Eligible(tt.from, tt.to); got != tt.want {
			t.Errorf("Eligible(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestAcceptCommand(t *testing.T) {
	j := setupJournal(t)
	e1 := writeFile(t, j, "c1", "a.txt", "one\n")
	writeFile(t, j, "c1", "b.txt", "two\n")

	res, err := NewAcceptCommand(j, e1.EditID, "").Execute(context.Background())
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if len(res.Changed) != 1 || len(res.Reconstructed) != 0 {
		t.Errorf("accept should change one entry and reconstruct nothing: %+v", res)
	}

	res, err = NewAcceptCommand(j, e1.EditID, "").Execute(context.Background())
	if err != nil {
		t.Fatalf("re-accepting should only warn, got %v", err)
	}
	if len(res.Changed) != 0 || len(res.Warnings) != 1 {
		t.Errorf("expected a warning and no change, got %+v", res)
	}

	res, err = NewAcceptCommand(j, "", "c1").Execute(context.Background())
	if err != nil {
		t.Fatalf("accept conversation failed: %v", err)
	}
	if len(res.Changed) != 1 || res.Message != "Accepted 1 entry" {
		t.Errorf("expected only the pending entry to change, got %q", res.Message)
	}

	entries, _ := j.Logs.Read("c1")
	for _, e := range entries {
		if e.Status != domain.StatusAccepted {
			t.Errorf("entry %s should be accepted, got %s", e.EditID, e.Status)
		}
	}
}

func TestSetStatusCommand_NotFound(t *testing.T) {
	j := setupJournal(t)
	writeFile(t, j, "c1", "a.txt", "one\n")

	if _, err := NewAcceptCommand(j, "missing", "").Execute(context.Background()); !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown edit, got %v", err)
	}
	if _, err := NewRejectCommand(j, "", "c9", false).Execute(context.Background()); !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown conversation, got %v", err)
	}
}

func TestRejectCommand_InteriorEdit(t *testing.T) {
	requirePatch(t)
	j := setupJournal(t)

	writeFile(t, j, "c1", "a.txt", "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nl9\nl10\n")
	bad := writeFile(t, j, "c1", "a.txt", "l1\nBAD\nl3\nl4\nl5\nl6\nl7\nl8\nl9\nl10\n")
	writeFile(t, j, "c1", "a.txt", "l1\nBAD\nl3\nl4\nl5\nl6\nl7\nl8\nGOOD\nl10\n")
	writeFile(t, j, "c1", "b.txt", "untouched\n")

	res, err := NewRejectCommand(j, bad.EditID, "", false).Execute(context.Background())
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if len(res.Affected) != 1 || res.Affected[0].FilePath != j.Layout.Resolve("a.txt") {
		t.Errorf("expected only a.txt affected, got %v", res.Affected)
	}
	if got, _ := readFile(t, j, "a.txt"); got != "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nGOOD\nl10\n" {
		t.Errorf("unexpected reconstruction %q", got)
	}
	if got, _ := readFile(t, j, "b.txt"); got != "untouched\n" {
		t.Errorf("unrelated file changed: %q", got)
	}
}

func TestRejectCommand_WholeConversation(t *testing.T) {
	requirePatch(t)
	j := setupJournal(t)
	if err := os.WriteFile(j.Layout.Resolve("existing.txt"), []byte("before\n"), 0644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	writeFile(t, j, "c1", "existing.txt", "after\n")
	writeFile(t, j, "c1", "new.txt", "fresh\n")
	writeFile(t, j, "c1", "new.txt", "fresher\n")

	res, err := NewRejectCommand(j, "", "c1", false).Execute(context.Background())
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if len(res.Changed) != 3 || len(res.Affected) != 2 {
		t.Errorf("expected 3 entries over 2 files, got %d over %d", len(res.Changed), len(res.Affected))
	}
	if got, _ := readFile(t, j, "existing.txt"); got != "before\n" {
		t.Errorf("existing file not restored: %q", got)
	}
	if _, ok := readFile(t, j, "new.txt"); ok {
		t.Errorf("file created by the conversation should be gone")
	}
}

func TestRejectCommand_ReportsFailures(t *testing.T) {
	requirePatch(t)
	j := setupJournal(t)
	create := writeFile(t, j, "c1", "a.txt", "hello\n")
	writeFile(t, j, "c1", "a.txt", "hello\nworld\n")

	res, err := NewRejectCommand(j, create.EditID, "", false).Execute(context.Background())
	if !errors.Is(err, application.ErrNoBaseline) {
		t.Fatalf("expected ErrNoBaseline, got %v", err)
	}
	var recErr *application.ReconstructionError
	if !errors.As(err, &recErr) || len(recErr.Failures) != 1 {
		t.Fatalf("expected one file failure, got %v", err)
	}
	if res == nil || !contains(res.Message, "reconstructed 0 of 1 file") {
		t.Errorf("unexpected summary: %+v", res)
	}

	entries, _ := j.Logs.Read("c1")
	if entries[0].Status != domain.StatusRejected {
		t.Errorf("status change should stay applied, got %s", entries[0].Status)
	}
}

func TestRejectCommand_BeforeSnapshot(t *testing.T) {
	requirePatch(t)
	j := setupJournal(t)
	writeFile(t, j, "c1", "a.txt", "1\n2\n3\n4\n5\n6\n7\n8\n9\n")
	bad := writeFile(t, j, "c1", "a.txt", "X\n2\n3\n4\n5\n6\n7\n8\n9\n")
	if _, err := NewSnapshotCommand(j, "c1", "a.txt").Execute(context.Background()); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	writeFile(t, j, "c1", "a.txt", "X\n2\n3\n4\n5\n6\n7\n8\nY\n")

	res, err := NewRejectCommand(j, bad.EditID, "", false).Execute(context.Background())
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if !contains(res.Message, "reconstructed 1 of 1 file") {
		t.Errorf("unexpected summary %q", res.Message)
	}
	if got, _ := readFile(t, j, "a.txt"); got != "1\n2\n3\n4\n5\n6\n7\n8\nY\n" {
		t.Errorf("rejected edit still present: %q", got)
	}
}

func TestRejectCommand_AfterMove(t *testing.T) {
	requirePatch(t)
	j := setupJournal(t)
	writeFile(t, j, "c1", "a.txt", "1\n2\n3\n4\n5\n6\n7\n8\n9\n")
	bad := writeFile(t, j, "c1", "a.txt", "1\nX\n3\n4\n5\n6\n7\n8\n9\n")
	if _, err := NewMoveFileCommand(j, "c1", "a.txt", "b.txt").Execute(context.Background()); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	writeFile(t, j, "c1", "b.txt", "1\nX\n3\n4\n5\n6\n7\n8\nY\n")

	res, err := NewRejectCommand(j, bad.EditID, "", false).Execute(context.Background())
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if len(res.Affected) != 1 || res.Affected[0].FilePath != j.Layout.Resolve("b.txt") {
		t.Errorf("expected the renamed file to be rebuilt, got %v", res.Affected)
	}
	if _, ok := readFile(t, j, "a.txt"); ok {
		t.Errorf("a.txt was moved away and should stay absent")
	}
	if got, _ := readFile(t, j, "b.txt"); got != "1\n2\n3\n4\n5\n6\n7\n8\nY\n" {
		t.Errorf("unexpected content %q", got)
	}

	again, err := NewReconstructCommand(j, "c1", "b.txt", false).Execute(context.Background())
	if err != nil {
		t.Fatalf("reconstruct failed: %v", err)
	}
	if again.Changed {
		t.Errorf("reconstructing again should be a no-op")
	}
}

func TestListEntriesCommand(t *testing.T) {
	j := setupJournal(t)
	writeFile(t, j, "c1", "src/a.go", "a\n")
	writeFile(t, j, "c1", "docs/readme.md", "r\n")
	e3 := writeFile(t, j, "c2", "src/b.go", "b\n")
	writeFile(t, j, "c2", "src/b.go", "bb\n")
	if _, err := NewAcceptCommand(j, e3.EditID, "").Execute(context.Background()); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	accepted := domain.StatusAccepted

	tests := []struct {
		name   string
		filter domain.EntryFilter
		want   []string
	}{
		{"all", domain.EntryFilter{}, []string{"e1", "e2", "e3", "e4"}},
		{"conversation", domain.EntryFilter{ConversationID: "c1"}, []string{"e1", "e2"}},
		{"glob", domain.EntryFilter{FileGlob: "src/**"}, []string{"e1", "e3", "e4"}},
		{"status", domain.EntryFilter{Status: &accepted}, []string{"e3"}},
		{"limit keeps newest", domain.EntryFilter{Limit: 2}, []string{"e3", "e4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewListEntriesCommand(j, tt.filter).Execute(context.Background())
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			var got []string
			for _, e := range res.Entries {
				got = append(got, e.EditID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if res.Counts[domain.StatusPending] != 3 || res.Counts[domain.StatusAccepted] != 1 {
				t.Errorf("unexpected counts %v", res.Counts)
			}
		})
	}

	if _, err := NewListEntriesCommand(j, domain.EntryFilter{FileGlob: "[bad"}).Execute(context.Background()); err == nil {
		t.Errorf("expected invalid pattern error")
	}
}

func TestShowCommand(t *testing.T) {
	j := setupJournal(t)
	e1 := writeFile(t, j, "c1", "a.txt", "one\n")
	writeFile(t, j, "c1", "a.txt", "one\ntwo\n")
	if _, err := NewDeleteFileCommand(j, "c1", "a.txt").Execute(context.Background()); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	res, err := NewShowCommand(j, e1.EditID).Execute(context.Background())
	if err != nil {
		t.Fatalf("show edit failed: %v", err)
	}
	if len(res.Entries) != 1 || !contains(string(res.Entries[0].Diff), "+one") {
		t.Errorf("unexpected show result: %+v", res)
	}

	res, err = NewShowCommand(j, "c1").Execute(context.Background())
	if err != nil {
		t.Fatalf("show conversation failed: %v", err)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(res.Entries))
	}
	if res.Entries[2].Diff != nil {
		t.Errorf("delete entries have no diff")
	}

	if _, err := NewShowCommand(j, "nothing").Execute(context.Background()); !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDriftCommand(t *testing.T) {
	j := setupJournal(t)
	if err := os.WriteFile(j.Layout.Resolve("a.txt"), []byte("one\ntwo\nthree\n"), 0644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}
	writeFile(t, j, "c1", "a.txt", "one\n2\nthree\nfour\n")

	res, err := NewDriftCommand(j, "a.txt", "").Execute(context.Background())
	if err != nil {
		t.Fatalf("drift failed: %v", err)
	}
	if res.Added != 2 || res.Removed != 1 {
		t.Errorf("expected +2 -1, got +%d -%d", res.Added, res.Removed)
	}
	if !res.Changed() || res.Checkpoint.EditID != "e1" {
		t.Errorf("unexpected drift result %+v", res)
	}

	if _, err := NewDriftCommand(j, "other.txt", "").Execute(context.Background()); !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected ErrNotFound without a checkpoint, got %v", err)
	}
}

func TestPruneLocksCommand(t *testing.T) {
	j := setupJournal(t)
	writeFile(t, j, "c1", "a.txt", "x\n")

	res, err := NewPruneLocksCommand(j, 0).Execute(context.Background())
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if res.Removed != 2 {
		t.Errorf("expected the target and log locks to be pruned, got %d", res.Removed)
	}

	if _, err := NewPruneLocksCommand(j, -time.Second).Execute(context.Background()); err == nil {
		t.Errorf("expected negative age to fail validation")
	}
}
