package commands

import (
	"context"
	"fmt"

	"mcpdiff/internal/application"
	"mcpdiff/internal/application/replay"
	"mcpdiff/internal/domain"
)

// SetStatusResult contains the outcome of an accept or reject
type SetStatusResult struct {
	Target        domain.Status
	Changed       []domain.LogEntry
	Affected      []domain.FileRef
	Reconstructed []*replay.Result
	Warnings      []string
	Message       string
}

// SetStatusCommand transitions entries selected by edit id or conversation
type SetStatusCommand struct {
	journal        *Journal
	EditID         string
	ConversationID string
	Target         domain.Status
	Force          bool // passed to reconstruction after a reject
}

// NewAcceptCommand creates a command accepting the selected pending entries
func NewAcceptCommand(j *Journal, editID, conversationID string) *SetStatusCommand {
	return &SetStatusCommand{journal: j, EditID: editID, ConversationID: conversationID, Target: domain.StatusAccepted}
}

// NewRejectCommand creates a command rejecting the selected entries and
// rebuilding every file they touched
func NewRejectCommand(j *Journal, editID, conversationID string, force bool) *SetStatusCommand {
	return &SetStatusCommand{journal: j, EditID: editID, ConversationID: conversationID, Target: domain.StatusRejected, Force: force}
}

// Validate checks the selector and target status
func (c *SetStatusCommand) Validate() error {
	if err := application.ValidateSelector(c.EditID, c.ConversationID); err != nil {
		return err
	}
	if c.Target != domain.StatusAccepted && c.Target != domain.StatusRejected {
		return fmt.Errorf("cannot set status to %s: %w", c.Target, application.ErrInvalidTransition)
	}
	return nil
}

// Eligible reports whether an entry in status from may move to status to
func Eligible(from, to domain.Status) bool {
	switch to {
	case domain.StatusAccepted:
		return from == domain.StatusPending
	case domain.StatusRejected:
		return from == domain.StatusPending || from == domain.StatusAccepted
	default:
		return false
	}
}

// Execute rewrites the log and, for rejections, reconstructs affected files.
// A failed reconstruction leaves the status change and other files applied.
func (c *SetStatusCommand) Execute(ctx context.Context) (*SetStatusResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	j := c.journal
	conv := c.ConversationID
	if c.EditID != "" {
		entry, err := j.Logs.FindEntry(c.EditID)
		if err != nil {
			return nil, err
		}
		conv = entry.ConversationID
	}

	result := &SetStatusResult{Target: c.Target}
	entries, err := c.transition(ctx, conv, result)
	if err != nil {
		return nil, err
	}
	result.Affected = c.affected(entries, result.Changed)

	if c.Target != domain.StatusRejected || len(result.Affected) == 0 {
		result.Message = c.summary(result, 0)
		return result, nil
	}

	var failures []application.FileFailure
	for _, ref := range result.Affected {
		res, err := j.Replay.Reconstruct(ctx, ref.ConversationID, ref.FilePath, replay.Options{Force: c.Force})
		if res != nil {
			result.Reconstructed = append(result.Reconstructed, res)
			result.Warnings = append(result.Warnings, res.Warnings...)
		}
		if err != nil {
			j.Logger.Error("reconstruction failed", "file", j.Layout.Rel(ref.FilePath), "conversation", ref.ConversationID, "error", err)
			failures = append(failures, application.FileFailure{
				ConversationID: ref.ConversationID,
				FilePath:       ref.FilePath,
				Err:            err,
			})
		}
	}

	result.Message = c.summary(result, len(failures))
	if len(failures) > 0 {
		return result, &application.ReconstructionError{Failures: failures}
	}
	return result, nil
}

// transition applies the status change under the log's lock
func (c *SetStatusCommand) transition(ctx context.Context, conv string, result *SetStatusResult) ([]domain.LogEntry, error) {
	j := c.journal
	guard, err := j.Locker.Acquire(ctx, j.Layout.LogPath(conv))
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	entries, err := j.Logs.Read(conv)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range entries {
		e := &entries[i]
		if c.EditID != "" && e.EditID != c.EditID {
			continue
		}
		found = true
		if !Eligible(e.Status, c.Target) {
			if c.EditID != "" {
				msg := fmt.Sprintf("entry %s is %s and cannot become %s", e.EditID, e.Status, c.Target)
				j.Logger.Warn(msg)
				result.Warnings = append(result.Warnings, msg)
			}
			continue
		}
		e.Status = c.Target
		result.Changed = append(result.Changed, *e)
	}

	if !found {
		if c.EditID != "" {
			return nil, fmt.Errorf("edit %s: %w", c.EditID, application.ErrNotFound)
		}
		return nil, fmt.Errorf("conversation %s: %w", conv, application.ErrNotFound)
	}
	if len(result.Changed) == 0 {
		return entries, nil
	}

	if err := j.Logs.Write(conv, entries); err != nil {
		return nil, fmt.Errorf("failed to update log: %w", err)
	}
	j.Logger.Info("status updated", "conversation", conv, "status", c.Target.String(), "entries", len(result.Changed))
	return entries, nil
}

// affected maps changed entries to the paths their files live at now, so a
// file renamed after a rejected edit is rebuilt under its new name
func (c *SetStatusCommand) affected(entries, changed []domain.LogEntry) []domain.FileRef {
	layout := c.journal.Layout
	sorted := make([]domain.LogEntry, len(entries))
	for i, e := range entries {
		e.FilePath = layout.Resolve(e.FilePath)
		e.SourcePath = layout.Resolve(e.SourcePath)
		sorted[i] = e
	}
	domain.SortChronological(sorted)

	pos := make(map[string]int, len(sorted))
	for i, e := range sorted {
		pos[e.EditID] = i
	}

	live := make([]domain.LogEntry, 0, len(changed))
	for _, e := range changed {
		e.FilePath = domain.CurrentPath(sorted, pos[e.EditID])
		live = append(live, e)
	}
	return domain.AffectedFiles(live)
}

func (c *SetStatusCommand) summary(result *SetStatusResult, failed int) string {
	verb := "Accepted"
	if c.Target == domain.StatusRejected {
		verb = "Rejected"
	}
	msg := fmt.Sprintf("%s %d %s", verb, len(result.Changed), plural(len(result.Changed), "entry", "entries"))
	if c.Target == domain.StatusRejected && len(result.Affected) > 0 {
		ok := len(result.Affected) - failed
		msg += fmt.Sprintf(", reconstructed %d of %d %s", ok, len(result.Affected), plural(len(result.Affected), "file", "files"))
	}
	return msg
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
