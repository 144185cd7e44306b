package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"mcpdiff/internal/domain"
	"mcpdiff/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "2"

// Index implements ports.EntryIndex using SQLite
type Index struct {
	db     *sql.DB
	store  ports.LogStore
	layout domain.Layout
	dbPath string
}

// Ensure Index implements EntryIndex
var _ ports.EntryIndex = (*Index)(nil)

// NewIndex creates a new SQLite index over the logs of store
func NewIndex(store ports.LogStore, layout domain.Layout) *Index {
	return &Index{store: store, layout: layout}
}

// Open initializes the index database for the layout's history root
func (idx *Index) Open() error {
	idx.dbPath = databasePath(idx.layout.HistoryRoot)

	if err := os.MkdirAll(filepath.Dir(idx.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", idx.dbPath+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	idx.db = db

	if err := idx.dropOutdatedSchema(); err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS logs (
			conversation_id TEXT PRIMARY KEY,
			mtime INTEGER NOT NULL,
			size INTEGER NOT NULL,
			inode INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS entries (
			edit_id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			tool_call_index INTEGER NOT NULL,
			ts INTEGER NOT NULL,
			operation TEXT NOT NULL,
			file_path TEXT NOT NULL,
			source_path TEXT,
			tool_name TEXT,
			status TEXT NOT NULL,
			diff_file TEXT,
			checkpoint_file TEXT,
			hash_before TEXT,
			hash_after TEXT
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_conv ON entries(conversation_id);
		CREATE INDEX IF NOT EXISTS idx_entries_order ON entries(ts, tool_call_index);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	return nil
}

// dropOutdatedSchema removes index tables written by another schema version.
// The next full sync rebuilds them.
func (idx *Index) dropOutdatedSchema() error {
	var exists int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'meta'`).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return nil
	}

	var version string
	err := idx.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if version == schemaVersion {
		return nil
	}
	for _, table := range []string{"entries", "logs", "meta"} {
		if _, err := idx.db.Exec(`DROP TABLE IF EXISTS ` + table); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (idx *Index) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// NeedsFullRebuild returns true if the index was built by another schema or
// for another history root
func (idx *Index) NeedsFullRebuild() bool {
	var version, rootHash string

	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'history_root_hash'").Scan(&rootHash)

	return version != schemaVersion || rootHash != hashRoot(idx.layout.HistoryRoot)
}

// Query returns indexed entries matching filter in chronological order.
// A limit keeps the newest entries.
func (idx *Index) Query(filter domain.EntryFilter) ([]domain.LogEntry, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := `SELECT edit_id, conversation_id, tool_call_index, ts, operation, file_path,
		source_path, tool_name, status, diff_file, checkpoint_file, hash_before, hash_after
		FROM entries`
	var where []string
	var args []any
	if filter.ConversationID != "" {
		where = append(where, "conversation_id = ?")
		args = append(args, filter.ConversationID)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, filter.Status.String())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts DESC, tool_call_index DESC"

	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if !filter.Match(e, idx.layout.Rel(idx.layout.Resolve(e.FilePath))) {
			continue
		}
		entries = append(entries, e)
		if filter.Limit > 0 && len(entries) == filter.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.Reverse(entries)
	return entries, nil
}

// Counts returns the number of indexed entries per status
func (idx *Index) Counts() (map[domain.Status]int, error) {
	rows, err := idx.db.Query(`SELECT status, COUNT(*) FROM entries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		status, err := domain.ParseStatus(name)
		if err != nil {
			continue
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanEntry(rows *sql.Rows) (domain.LogEntry, error) {
	var (
		e                                  domain.LogEntry
		ts                                 int64
		op, status                         string
		source, tool, diff, chk, hb, hashA sql.NullString
	)
	err := rows.Scan(&e.EditID, &e.ConversationID, &e.ToolCallIndex, &ts, &op, &e.FilePath,
		&source, &tool, &status, &diff, &chk, &hb, &hashA)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}
	e.Timestamp = time.Unix(0, ts).UTC()
	e.Operation = domain.ParseOperation(op)
	if e.Operation == domain.OperationUnknown {
		e.OperationName = op
	}
	if e.Status, err = domain.ParseStatus(status); err != nil {
		return e, err
	}
	e.SourcePath = source.String
	e.ToolName = tool.String
	e.DiffFile = diff.String
	e.CheckpointFile = chk.String
	e.HashBefore = hb.String
	e.HashAfter = hashA.String
	return e, nil
}

// databasePath returns the path for the SQLite database
func databasePath(historyRoot string) string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "mcpdiff", hashRoot(historyRoot)+".db")
}

// hashRoot returns a short hash of the history root
func hashRoot(historyRoot string) string {
	h := sha256.Sum256([]byte(historyRoot))
	return hex.EncodeToString(h[:8])
}

// updateMeta records the schema version and history root hash
func (idx *Index) updateMeta() error {
	meta := map[string]string{
		"schema_version":    schemaVersion,
		"history_root_hash": hashRoot(idx.layout.HistoryRoot),
	}
	for key, value := range meta {
		if _, err := idx.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return err
		}
	}
	return nil
}
