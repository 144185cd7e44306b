package domain

import "time"

// SyncStats holds statistics from an index sync
type SyncStats struct {
	LogsScanned    int
	LogsUpdated    int
	LogsDeleted    int
	EntriesIndexed int
	Duration       time.Duration
}
