package sqlite

import (
	"fmt"
	"os"
	"testing"
	"time"

	"mcpdiff/internal/adapters/filesystem"
	"mcpdiff/internal/domain"
)

func setupIndex(t *testing.T) (*Index, *filesystem.LogStore, domain.Layout) {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	layout := domain.NewLayout(t.TempDir())
	store := filesystem.NewLogStore(layout)
	idx := NewIndex(store, layout)
	if err := idx.Open(); err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx, store, layout
}

func appendEntry(t *testing.T, store *filesystem.LogStore, layout domain.Layout, conv string, n int, rel string, status domain.Status) {
	t.Helper()
	e := domain.LogEntry{
		EditID:         fmt.Sprintf("%s-%d", conv, n),
		ConversationID: conv,
		ToolCallIndex:  int64(n),
		Timestamp:      time.Date(2025, 2, 1, 0, 0, n, 0, time.UTC),
		Operation:      domain.OperationEdit,
		FilePath:       layout.Resolve(rel),
		Status:         status,
		DiffFile:       layout.DiffRel(conv, fmt.Sprintf("%s-%d", conv, n)),
		HashAfter:      "h",
	}
	if err := store.Append(e); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
}

func TestIndex_SyncFullAndQuery(t *testing.T) {
	idx, store, layout := setupIndex(t)
	appendEntry(t, store, layout, "c1", 1, "src/a.go", domain.StatusPending)
	appendEntry(t, store, layout, "c1", 2, "docs/x.md", domain.StatusAccepted)
	appendEntry(t, store, layout, "c2", 3, "src/b.go", domain.StatusRejected)

	if !idx.NeedsFullRebuild() {
		t.Errorf("fresh index should need a full rebuild")
	}
	stats, err := idx.SyncFull()
	if err != nil {
		t.Fatalf("SyncFull failed: %v", err)
	}
	if stats.LogsScanned != 2 || stats.EntriesIndexed != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if idx.NeedsFullRebuild() {
		t.Errorf("index should be current after a full sync")
	}

	rejected := domain.StatusRejected
	tests := []struct {
		name   string
		filter domain.EntryFilter
		want   []string
	}{
		{"all", domain.EntryFilter{}, []string{"c1-1", "c1-2", "c2-3"}},
		{"conversation", domain.EntryFilter{ConversationID: "c1"}, []string{"c1-1", "c1-2"}},
		{"status", domain.EntryFilter{Status: &rejected}, []string{"c2-3"}},
		{"glob", domain.EntryFilter{FileGlob: "src/*.go"}, []string{"c1-1", "c2-3"}},
		{"limit", domain.EntryFilter{Limit: 1}, []string{"c2-3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := idx.Query(tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(entries) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(entries))
			}
			for i, e := range entries {
				if e.EditID != tt.want[i] {
					t.Errorf("entry %d: expected %s, got %s", i, tt.want[i], e.EditID)
				}
			}
		})
	}

	entries, _ := idx.Query(domain.EntryFilter{ConversationID: "c1"})
	if !entries[0].Timestamp.Equal(time.Date(2025, 2, 1, 0, 0, 1, 0, time.UTC)) {
		t.Errorf("timestamp not preserved: %s", entries[0].Timestamp)
	}
	if entries[0].DiffFile != "diffs/c1/c1-1.diff" || entries[0].SourcePath != "" {
		t.Errorf("optional fields not preserved: %+v", entries[0])
	}

	counts, err := idx.Counts()
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[domain.StatusPending] != 1 || counts[domain.StatusAccepted] != 1 || counts[domain.StatusRejected] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestIndex_SyncIncremental(t *testing.T) {
	idx, store, layout := setupIndex(t)
	appendEntry(t, store, layout, "c1", 1, "a.go", domain.StatusPending)
	appendEntry(t, store, layout, "c2", 2, "b.go", domain.StatusPending)
	if _, err := idx.SyncFull(); err != nil {
		t.Fatalf("SyncFull failed: %v", err)
	}

	stats, err := idx.SyncIncremental()
	if err != nil {
		t.Fatalf("SyncIncremental failed: %v", err)
	}
	if stats.LogsUpdated != 0 {
		t.Errorf("unchanged logs should not be re-indexed, got %d", stats.LogsUpdated)
	}

	appendEntry(t, store, layout, "c1", 3, "a.go", domain.StatusPending)
	if err := os.Remove(layout.LogPath("c2")); err != nil {
		t.Fatalf("failed to remove log: %v", err)
	}

	stats, err = idx.SyncIncremental()
	if err != nil {
		t.Fatalf("SyncIncremental failed: %v", err)
	}
	if stats.LogsUpdated != 1 || stats.LogsDeleted != 1 {
		t.Errorf("expected one update and one deletion, got %+v", stats)
	}

	entries, err := idx.Query(domain.EntryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 2 || entries[1].EditID != "c1-3" {
		t.Errorf("unexpected entries after incremental sync: %+v", entries)
	}
}

func TestIndex_KeepsUnknownOperationName(t *testing.T) {
	idx, store, layout := setupIndex(t)
	e := domain.LogEntry{
		EditID:         "s1",
		ConversationID: "c1",
		Timestamp:      time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Operation:      domain.OperationUnknown,
		OperationName:  "snapshot",
		FilePath:       layout.Resolve("a.go"),
		Status:         domain.StatusPending,
	}
	if err := store.Append(e); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if _, err := idx.SyncFull(); err != nil {
		t.Fatalf("SyncFull failed: %v", err)
	}

	entries, err := idx.Query(domain.EntryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 || entries[0].OperationName != "snapshot" {
		t.Errorf("operation name lost: %+v", entries)
	}
}

func TestIndex_SyncIncrementalDetectsSameSizeRewrite(t *testing.T) {
	idx, store, layout := setupIndex(t)
	appendEntry(t, store, layout, "c1", 1, "a.go", domain.StatusAccepted)
	if _, err := idx.SyncFull(); err != nil {
		t.Fatalf("SyncFull failed: %v", err)
	}

	path := layout.LogPath("c1")
	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat log: %v", err)
	}

	entries, err := store.Read("c1")
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	entries[0].Status = domain.StatusRejected
	if err := store.Write("c1", entries); err != nil {
		t.Fatalf("failed to rewrite log: %v", err)
	}
	if err := os.Chtimes(path, before.ModTime(), before.ModTime()); err != nil {
		t.Fatalf("failed to reset mtime: %v", err)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat log: %v", err)
	}
	if after.Size() != before.Size() {
		t.Fatalf("rewrite should keep the log size, got %d and %d", before.Size(), after.Size())
	}

	stats, err := idx.SyncIncremental()
	if err != nil {
		t.Fatalf("SyncIncremental failed: %v", err)
	}
	if stats.LogsUpdated != 1 {
		t.Errorf("expected the rewritten log to be re-indexed, got %+v", stats)
	}

	rejected := domain.StatusRejected
	got, err := idx.Query(domain.EntryFilter{Status: &rejected})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected the status change in the index, got %+v", got)
	}
}

func TestIndex_ReopenDropsOutdatedSchema(t *testing.T) {
	idx, store, layout := setupIndex(t)
	appendEntry(t, store, layout, "c1", 1, "a.go", domain.StatusPending)
	if _, err := idx.SyncFull(); err != nil {
		t.Fatalf("SyncFull failed: %v", err)
	}
	if _, err := idx.db.Exec(`UPDATE meta SET value = '1' WHERE key = 'schema_version'`); err != nil {
		t.Fatalf("failed to downgrade schema version: %v", err)
	}
	idx.Close()

	reopened := NewIndex(store, layout)
	if err := reopened.Open(); err != nil {
		t.Fatalf("failed to reopen index: %v", err)
	}
	defer reopened.Close()

	if !reopened.NeedsFullRebuild() {
		t.Errorf("an index from another schema should need a rebuild")
	}
	stats, err := reopened.SyncFull()
	if err != nil {
		t.Fatalf("SyncFull failed: %v", err)
	}
	if stats.EntriesIndexed != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
