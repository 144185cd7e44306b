package domain

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// EntryFilter selects log entries for listing
type EntryFilter struct {
	ConversationID string
	FileGlob       string  // doublestar pattern over workspace-relative paths
	Status         *Status // nil matches any status
	Limit          int     // 0 means unlimited
}

// Validate checks the glob pattern
func (f EntryFilter) Validate() error {
	if f.FileGlob != "" && !doublestar.ValidatePattern(f.FileGlob) {
		return fmt.Errorf("invalid file pattern %q", f.FileGlob)
	}
	return nil
}

// Match reports whether e passes the filter. relPath is the entry's
// workspace-relative file path.
func (f EntryFilter) Match(e LogEntry, relPath string) bool {
	if f.ConversationID != "" && e.ConversationID != f.ConversationID {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.FileGlob != "" {
		ok, err := doublestar.Match(f.FileGlob, relPath)
		if err != nil || !ok {
			return false
		}
	}
	return true
}
