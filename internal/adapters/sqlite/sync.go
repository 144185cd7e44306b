package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"mcpdiff/internal/domain"
)

// SyncFull rebuilds the index from every conversation log
func (idx *Index) SyncFull() (*domain.SyncStats, error) {
	start := time.Now()
	stats := &domain.SyncStats{}

	for _, table := range []string{"entries", "logs"} {
		if _, err := idx.db.Exec(`DELETE FROM ` + table); err != nil {
			return nil, err
		}
	}

	convs, err := idx.store.Conversations()
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	for _, conv := range convs {
		stats.LogsScanned++
		info, err := os.Stat(idx.layout.LogPath(conv))
		if err != nil {
			continue
		}
		n, err := idx.indexLog(conv, info)
		if err != nil {
			return stats, err
		}
		stats.LogsUpdated++
		stats.EntriesIndexed += n
	}

	if err := idx.updateMeta(); err != nil {
		return stats, fmt.Errorf("failed to update metadata: %w", err)
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// logStamp identifies one version of a log file. Rewrites replace the file,
// so the inode changes even when mtime and size do not.
type logStamp struct {
	mtime int64
	size  int64
	inode int64
}

func stampOf(info os.FileInfo) logStamp {
	return logStamp{mtime: info.ModTime().UnixNano(), size: info.Size(), inode: fileID(info)}
}

// SyncIncremental re-indexes only logs whose mtime, size or inode changed
func (idx *Index) SyncIncremental() (*domain.SyncStats, error) {
	start := time.Now()
	stats := &domain.SyncStats{}

	known, err := idx.loadStamps()
	if err != nil {
		return nil, err
	}

	convs, err := idx.store.Conversations()
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	seen := make(map[string]bool, len(convs))
	for _, conv := range convs {
		seen[conv] = true
		stats.LogsScanned++

		info, err := os.Stat(idx.layout.LogPath(conv))
		if err != nil {
			continue
		}
		if st, ok := known[conv]; ok && st == stampOf(info) {
			continue
		}

		n, err := idx.indexLog(conv, info)
		if err != nil {
			return stats, err
		}
		stats.LogsUpdated++
		stats.EntriesIndexed += n
	}

	for conv := range known {
		if seen[conv] {
			continue
		}
		if _, err := idx.db.Exec(`DELETE FROM entries WHERE conversation_id = ?`, conv); err != nil {
			return stats, err
		}
		if _, err := idx.db.Exec(`DELETE FROM logs WHERE conversation_id = ?`, conv); err != nil {
			return stats, err
		}
		stats.LogsDeleted++
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

func (idx *Index) loadStamps() (map[string]logStamp, error) {
	rows, err := idx.db.Query(`SELECT conversation_id, mtime, size, inode FROM logs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]logStamp)
	for rows.Next() {
		var conv string
		var st logStamp
		if err := rows.Scan(&conv, &st.mtime, &st.size, &st.inode); err != nil {
			return nil, fmt.Errorf("failed to read log stamps: %w", err)
		}
		known[conv] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log stamps: %w", err)
	}
	return known, nil
}

// indexLog replaces the indexed entries of one conversation in a transaction
func (idx *Index) indexLog(conv string, info os.FileInfo) (int, error) {
	entries, err := idx.store.Read(conv)
	if err != nil {
		return 0, fmt.Errorf("failed to read log %s: %w", conv, err)
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries WHERE conversation_id = ?`, conv); err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO entries (edit_id, conversation_id, tool_call_index, ts, operation,
			file_path, source_path, tool_name, status, diff_file, checkpoint_file, hash_before, hash_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.Exec(e.EditID, conv, e.ToolCallIndex, e.Timestamp.UnixNano(),
			operationName(e), e.FilePath, nullString(e.SourcePath), nullString(e.ToolName),
			e.Status.String(), nullString(e.DiffFile), nullString(e.CheckpointFile),
			nullString(e.HashBefore), nullString(e.HashAfter))
		if err != nil {
			return 0, fmt.Errorf("failed to index entry %s: %w", e.EditID, err)
		}
	}

	st := stampOf(info)
	if _, err := tx.Exec(`INSERT OR REPLACE INTO logs (conversation_id, mtime, size, inode) VALUES (?, ?, ?, ?)`,
		conv, st.mtime, st.size, st.inode); err != nil {
		return 0, err
	}

	return len(entries), tx.Commit()
}

// operationName keeps the written name of operations this version does not know
func operationName(e domain.LogEntry) string {
	if e.Operation == domain.OperationUnknown && e.OperationName != "" {
		return e.OperationName
	}
	return e.Operation.String()
}

// nullString returns NULL for empty strings
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
