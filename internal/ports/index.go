package ports

import "mcpdiff/internal/domain"

// EntryIndex caches log entries of every conversation for fast listing.
// The logs stay the source of truth; the index is rebuilt from them.
type EntryIndex interface {
	// Lifecycle
	Open() error
	Close() error

	// Sync operations
	NeedsFullRebuild() bool
	SyncIncremental() (*domain.SyncStats, error)
	SyncFull() (*domain.SyncStats, error)

	// Queries
	Query(filter domain.EntryFilter) ([]domain.LogEntry, error)
	Counts() (map[domain.Status]int, error)
}
