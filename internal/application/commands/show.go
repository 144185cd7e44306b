package commands

import (
	"context"
	"errors"
	"fmt"

	"mcpdiff/internal/application"
	"mcpdiff/internal/domain"
)

// ShownEntry is an entry together with its diff artifact
type ShownEntry struct {
	Entry domain.LogEntry
	Diff  []byte // nil when the entry has no diff
}

// ShowResult contains the entries selected by a show
type ShowResult struct {
	ConversationID string
	Entries        []ShownEntry
	Message        string
}

// ShowCommand displays the diff of one edit, or of every edit in a conversation
type ShowCommand struct {
	journal  *Journal
	Selector string
}

// NewShowCommand creates a new ShowCommand. selector is an edit id or a
// conversation id; edit ids are tried first.
func NewShowCommand(j *Journal, selector string) *ShowCommand {
	return &ShowCommand{journal: j, Selector: selector}
}

// Validate checks the selector
func (c *ShowCommand) Validate() error {
	return application.ValidateIdentifier("selector", c.Selector)
}

// Execute loads the selected entries and their diffs
func (c *ShowCommand) Execute(ctx context.Context) (*ShowResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	j := c.journal
	entry, err := j.Logs.FindEntry(c.Selector)
	switch {
	case err == nil:
		shown, err := c.load(*entry)
		if err != nil {
			return nil, err
		}
		return &ShowResult{
			ConversationID: entry.ConversationID,
			Entries:        []ShownEntry{shown},
			Message:        fmt.Sprintf("%s %s %s", entry.EditID, entry.Operation, j.Layout.Rel(j.Layout.Resolve(entry.FilePath))),
		}, nil
	case !errors.Is(err, application.ErrNotFound):
		return nil, err
	}

	entries, err := j.Logs.Read(c.Selector)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no edit or conversation %q: %w", c.Selector, application.ErrNotFound)
	}
	domain.SortChronological(entries)

	result := &ShowResult{ConversationID: c.Selector}
	for _, e := range entries {
		shown, err := c.load(e)
		if err != nil {
			return nil, err
		}
		result.Entries = append(result.Entries, shown)
	}
	result.Message = fmt.Sprintf("%d %s in %s", len(entries), plural(len(entries), "entry", "entries"), c.Selector)
	return result, nil
}

func (c *ShowCommand) load(e domain.LogEntry) (ShownEntry, error) {
	if e.DiffFile == "" {
		return ShownEntry{Entry: e}, nil
	}
	diff, err := c.journal.Artifacts.ReadDiff(e.DiffFile)
	if err != nil {
		return ShownEntry{}, fmt.Errorf("failed to read diff of %s: %w", e.EditID, err)
	}
	return ShownEntry{Entry: e, Diff: diff}, nil
}
