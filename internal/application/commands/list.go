package commands

import (
	"context"
	"fmt"

	"mcpdiff/internal/domain"
)

// ListEntriesResult contains the entries matching a filter
type ListEntriesResult struct {
	Entries []domain.LogEntry
	Counts  map[domain.Status]int // over all entries, ignoring the filter
	Message string
}

// ListEntriesCommand lists journal entries across conversations
type ListEntriesCommand struct {
	journal *Journal
	Filter  domain.EntryFilter
}

// NewListEntriesCommand creates a new ListEntriesCommand
func NewListEntriesCommand(j *Journal, filter domain.EntryFilter) *ListEntriesCommand {
	return &ListEntriesCommand{journal: j, Filter: filter}
}

// Validate checks the filter
func (c *ListEntriesCommand) Validate() error {
	if c.Filter.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	return c.Filter.Validate()
}

// Execute returns matching entries oldest first. With a limit only the
// newest entries are kept.
func (c *ListEntriesCommand) Execute(ctx context.Context) (*ListEntriesResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var (
		result *ListEntriesResult
		err    error
	)
	if c.journal.Index != nil {
		result, err = c.fromIndex()
		if err != nil {
			c.journal.Logger.Warn("index unavailable, reading logs", "error", err)
			result = nil
		}
	}
	if result == nil {
		if result, err = c.fromLogs(); err != nil {
			return nil, err
		}
	}

	result.Message = fmt.Sprintf("%d %s (%d pending, %d accepted, %d rejected)",
		len(result.Entries), plural(len(result.Entries), "entry", "entries"),
		result.Counts[domain.StatusPending], result.Counts[domain.StatusAccepted], result.Counts[domain.StatusRejected])
	return result, nil
}

func (c *ListEntriesCommand) fromIndex() (*ListEntriesResult, error) {
	idx := c.journal.Index
	var err error
	if idx.NeedsFullRebuild() {
		_, err = idx.SyncFull()
	} else {
		_, err = idx.SyncIncremental()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sync index: %w", err)
	}

	entries, err := idx.Query(c.Filter)
	if err != nil {
		return nil, err
	}
	counts, err := idx.Counts()
	if err != nil {
		return nil, err
	}
	return &ListEntriesResult{Entries: entries, Counts: counts}, nil
}

func (c *ListEntriesCommand) fromLogs() (*ListEntriesResult, error) {
	j := c.journal
	convs, err := j.Logs.Conversations()
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.Status]int)
	var matched []domain.LogEntry
	for _, conv := range convs {
		entries, err := j.Logs.Read(conv)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			counts[e.Status]++
			if c.Filter.Match(e, j.Layout.Rel(j.Layout.Resolve(e.FilePath))) {
				matched = append(matched, e)
			}
		}
	}

	domain.SortChronological(matched)
	if c.Filter.Limit > 0 && len(matched) > c.Filter.Limit {
		matched = matched[len(matched)-c.Filter.Limit:]
	}
	return &ListEntriesResult{Entries: matched, Counts: counts}, nil
}
