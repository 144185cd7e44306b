package commands

import (
	"context"
	"fmt"
	"time"
)

// PruneLocksResult contains the number of removed lock files
type PruneLocksResult struct {
	Removed int
	Message string
}

// PruneLocksCommand removes lock files no process holds
type PruneLocksCommand struct {
	journal   *Journal
	OlderThan time.Duration
}

// NewPruneLocksCommand creates a new PruneLocksCommand. Only lock files
// untouched for olderThan are considered.
func NewPruneLocksCommand(j *Journal, olderThan time.Duration) *PruneLocksCommand {
	return &PruneLocksCommand{journal: j, OlderThan: olderThan}
}

// Validate checks the age threshold
func (c *PruneLocksCommand) Validate() error {
	if c.OlderThan < 0 {
		return fmt.Errorf("age must not be negative")
	}
	return nil
}

// Execute runs the prune
func (c *PruneLocksCommand) Execute(ctx context.Context) (*PruneLocksResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	removed, err := c.journal.Locker.Prune(c.OlderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to prune locks: %w", err)
	}
	return &PruneLocksResult{
		Removed: removed,
		Message: fmt.Sprintf("Removed %d stale %s", removed, plural(removed, "lock", "locks")),
	}, nil
}
