package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mcpdiff/internal/application"
	"mcpdiff/internal/domain"
	"mcpdiff/internal/ports"
)

// SnapshotOperation is the operation name of a checkpoint-only entry
const SnapshotOperation = "snapshot"

// RecordResult contains the journaled entry of an edit
type RecordResult struct {
	Entry   domain.LogEntry
	Message string
}

// WriteFileCommand replaces a file's content and journals the change
type WriteFileCommand struct {
	journal        *Journal
	ConversationID string
	FilePath       string
	Content        []byte
	ToolName       string
}

// NewWriteFileCommand creates a new WriteFileCommand
func NewWriteFileCommand(j *Journal, conversationID, filePath string, content []byte) *WriteFileCommand {
	return &WriteFileCommand{
		journal:        j,
		ConversationID: conversationID,
		FilePath:       filePath,
		Content:        content,
		ToolName:       "write_file",
	}
}

// Validate checks the conversation and target path
func (c *WriteFileCommand) Validate() error {
	return c.journal.validateTarget(c.ConversationID, "filePath", c.FilePath)
}

// Execute writes the file and appends a Create or Replace entry
func (c *WriteFileCommand) Execute(ctx context.Context) (*RecordResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	entry, err := c.journal.recordContent(ctx, c.ConversationID, c.FilePath, c.ToolName, false,
		func(_ []byte, _ bool) ([]byte, error) { return c.Content, nil })
	if err != nil {
		return nil, err
	}

	return &RecordResult{
		Entry:   *entry,
		Message: fmt.Sprintf("Recorded %s of %s as %s", entry.Operation, c.journal.Layout.Rel(entry.FilePath), entry.EditID),
	}, nil
}

// EditFileCommand replaces text inside an existing file and journals the change
type EditFileCommand struct {
	journal        *Journal
	ConversationID string
	FilePath       string
	OldText        string
	NewText        string
	ReplaceAll     bool
	ToolName       string
}

// NewEditFileCommand creates a new EditFileCommand
func NewEditFileCommand(j *Journal, conversationID, filePath, oldText, newText string, replaceAll bool) *EditFileCommand {
	return &EditFileCommand{
		journal:        j,
		ConversationID: conversationID,
		FilePath:       filePath,
		OldText:        oldText,
		NewText:        newText,
		ReplaceAll:     replaceAll,
		ToolName:       "edit_file",
	}
}

// Validate checks the target and that there is text to replace
func (c *EditFileCommand) Validate() error {
	if err := c.journal.validateTarget(c.ConversationID, "filePath", c.FilePath); err != nil {
		return err
	}
	if c.OldText == "" {
		return &application.ValidationError{Field: "oldText", Message: "text to replace is required"}
	}
	if c.OldText == c.NewText {
		return &application.ValidationError{Field: "newText", Message: "replacement is identical to the original text"}
	}
	return nil
}

// Execute applies the replacement and appends an Edit entry
func (c *EditFileCommand) Execute(ctx context.Context) (*RecordResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	entry, err := c.journal.recordContent(ctx, c.ConversationID, c.FilePath, c.ToolName, true,
		func(before []byte, existed bool) ([]byte, error) {
			if !existed {
				return nil, fmt.Errorf("%s: %w", c.FilePath, application.ErrNotFound)
			}
			old := []byte(c.OldText)
			switch n := bytes.Count(before, old); {
			case n == 0:
				return nil, &application.ValidationError{Field: "oldText", Message: "text not found in file"}
			case n > 1 && !c.ReplaceAll:
				return nil, &application.ValidationError{
					Field:   "oldText",
					Message: fmt.Sprintf("text occurs %d times; make it unique or replace all", n),
				}
			}
			if c.ReplaceAll {
				return bytes.ReplaceAll(before, old, []byte(c.NewText)), nil
			}
			return bytes.Replace(before, old, []byte(c.NewText), 1), nil
		})
	if err != nil {
		return nil, err
	}

	return &RecordResult{
		Entry:   *entry,
		Message: fmt.Sprintf("Recorded edit of %s as %s", c.journal.Layout.Rel(entry.FilePath), entry.EditID),
	}, nil
}

// DeleteFileCommand removes a file and journals the deletion
type DeleteFileCommand struct {
	journal        *Journal
	ConversationID string
	FilePath       string
}

// NewDeleteFileCommand creates a new DeleteFileCommand
func NewDeleteFileCommand(j *Journal, conversationID, filePath string) *DeleteFileCommand {
	return &DeleteFileCommand{journal: j, ConversationID: conversationID, FilePath: filePath}
}

// Validate checks the conversation and target path
func (c *DeleteFileCommand) Validate() error {
	return c.journal.validateTarget(c.ConversationID, "filePath", c.FilePath)
}

// Execute deletes the file and appends a Delete entry
func (c *DeleteFileCommand) Execute(ctx context.Context) (*RecordResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	j := c.journal
	target := j.Layout.Resolve(c.FilePath)
	release, err := j.lockAll(ctx, target, j.Layout.LogPath(c.ConversationID))
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := j.Logs.Read(c.ConversationID)
	if err != nil {
		return nil, err
	}
	before, existed, err := readTarget(target)
	if err != nil {
		return nil, err
	}
	if !existed {
		return nil, fmt.Errorf("%s: %w", j.Layout.Rel(target), application.ErrNotFound)
	}

	entry := j.newEntry(c.ConversationID, entries, domain.OperationDelete, target, "delete_file")
	entry.HashBefore = j.Hasher.Sum(before)
	if firstTouch(j.Layout, entries, target) {
		if err := j.checkpoint(&entry, target, before); err != nil {
			return nil, err
		}
	}

	if err := os.Remove(target); err != nil {
		return nil, fmt.Errorf("failed to delete %s: %w", target, err)
	}
	if err := j.Logs.Append(entry); err != nil {
		return nil, err
	}
	j.Logger.Info("recorded delete", "conversation", c.ConversationID, "file", j.Layout.Rel(target), "edit_id", entry.EditID)

	return &RecordResult{
		Entry:   entry,
		Message: fmt.Sprintf("Recorded delete of %s as %s", j.Layout.Rel(target), entry.EditID),
	}, nil
}

// MoveFileCommand renames a file and journals the move
type MoveFileCommand struct {
	journal        *Journal
	ConversationID string
	SourcePath     string
	DestPath       string
}

// NewMoveFileCommand creates a new MoveFileCommand
func NewMoveFileCommand(j *Journal, conversationID, sourcePath, destPath string) *MoveFileCommand {
	return &MoveFileCommand{journal: j, ConversationID: conversationID, SourcePath: sourcePath, DestPath: destPath}
}

// Validate checks both paths
func (c *MoveFileCommand) Validate() error {
	if err := c.journal.validateTarget(c.ConversationID, "sourcePath", c.SourcePath); err != nil {
		return err
	}
	if err := c.journal.validateTarget(c.ConversationID, "destPath", c.DestPath); err != nil {
		return err
	}
	if c.journal.Layout.Resolve(c.SourcePath) == c.journal.Layout.Resolve(c.DestPath) {
		return &application.ValidationError{Field: "destPath", Message: "source and destination are the same file"}
	}
	return nil
}

// Execute renames the file and appends a Move entry
func (c *MoveFileCommand) Execute(ctx context.Context) (*RecordResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	j := c.journal
	src := j.Layout.Resolve(c.SourcePath)
	dst := j.Layout.Resolve(c.DestPath)
	release, err := j.lockAll(ctx, src, dst, j.Layout.LogPath(c.ConversationID))
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := j.Logs.Read(c.ConversationID)
	if err != nil {
		return nil, err
	}
	content, existed, err := readTarget(src)
	if err != nil {
		return nil, err
	}
	if !existed {
		return nil, fmt.Errorf("%s: %w", j.Layout.Rel(src), application.ErrNotFound)
	}
	if _, err := os.Stat(dst); err == nil {
		return nil, &application.ValidationError{Field: "destPath", Message: j.Layout.Rel(dst) + " already exists"}
	}

	entry := j.newEntry(c.ConversationID, entries, domain.OperationMove, dst, "move_file")
	entry.SourcePath = src
	entry.HashBefore = j.Hasher.Sum(content)
	entry.HashAfter = entry.HashBefore
	if firstTouch(j.Layout, entries, src) {
		if err := j.checkpoint(&entry, src, content); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return nil, fmt.Errorf("failed to move %s: %w", src, err)
	}
	if err := j.Logs.Append(entry); err != nil {
		return nil, err
	}
	j.Logger.Info("recorded move", "conversation", c.ConversationID,
		"from", j.Layout.Rel(src), "to", j.Layout.Rel(dst), "edit_id", entry.EditID)

	return &RecordResult{
		Entry:   entry,
		Message: fmt.Sprintf("Recorded move of %s to %s as %s", j.Layout.Rel(src), j.Layout.Rel(dst), entry.EditID),
	}, nil
}

// SnapshotCommand checkpoints a file without changing it. Later
// reconstructions of the file start from the earliest such checkpoint unless
// a skipped entry comes before it.
type SnapshotCommand struct {
	journal        *Journal
	ConversationID string
	FilePath       string
}

// NewSnapshotCommand creates a new SnapshotCommand
func NewSnapshotCommand(j *Journal, conversationID, filePath string) *SnapshotCommand {
	return &SnapshotCommand{journal: j, ConversationID: conversationID, FilePath: filePath}
}

// Validate checks the conversation and target path
func (c *SnapshotCommand) Validate() error {
	return c.journal.validateTarget(c.ConversationID, "filePath", c.FilePath)
}

// Execute stores the checkpoint and appends a snapshot entry
func (c *SnapshotCommand) Execute(ctx context.Context) (*RecordResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	j := c.journal
	target := j.Layout.Resolve(c.FilePath)
	release, err := j.lockAll(ctx, target, j.Layout.LogPath(c.ConversationID))
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := j.Logs.Read(c.ConversationID)
	if err != nil {
		return nil, err
	}
	content, existed, err := readTarget(target)
	if err != nil {
		return nil, err
	}
	if !existed {
		return nil, fmt.Errorf("%s: %w", j.Layout.Rel(target), application.ErrNotFound)
	}

	entry := j.newEntry(c.ConversationID, entries, domain.OperationUnknown, target, SnapshotOperation)
	entry.OperationName = SnapshotOperation
	entry.HashBefore = j.Hasher.Sum(content)
	entry.HashAfter = entry.HashBefore
	if err := j.checkpoint(&entry, target, content); err != nil {
		return nil, err
	}
	if err := j.Logs.Append(entry); err != nil {
		return nil, err
	}
	j.Logger.Info("recorded snapshot", "conversation", c.ConversationID, "file", j.Layout.Rel(target), "edit_id", entry.EditID)

	return &RecordResult{
		Entry:   entry,
		Message: fmt.Sprintf("Checkpointed %s as %s", j.Layout.Rel(target), entry.EditID),
	}, nil
}

// recordContent runs mutate on the current content of path, writes the
// result and journals the change with a diff artifact
func (j *Journal) recordContent(ctx context.Context, conversationID, path, toolName string, edit bool,
	mutate func(before []byte, existed bool) ([]byte, error)) (*domain.LogEntry, error) {
	target := j.Layout.Resolve(path)
	release, err := j.lockAll(ctx, target, j.Layout.LogPath(conversationID))
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := j.Logs.Read(conversationID)
	if err != nil {
		return nil, err
	}
	before, existed, err := readTarget(target)
	if err != nil {
		return nil, err
	}
	after, err := mutate(before, existed)
	if err != nil {
		return nil, err
	}
	after = domain.NormalizeText(after)

	op := domain.OperationCreate
	switch {
	case existed && edit:
		op = domain.OperationEdit
	case existed:
		op = domain.OperationReplace
	}

	entry := j.newEntry(conversationID, entries, op, target, toolName)
	if existed {
		entry.HashBefore = j.Hasher.Sum(before)
		if firstTouch(j.Layout, entries, target) {
			if err := j.checkpoint(&entry, target, before); err != nil {
				return nil, err
			}
		}
	}

	diff, err := j.Patcher.Unified(before, after, j.Layout.Rel(target))
	if err != nil {
		return nil, err
	}
	entry.DiffFile = j.Layout.DiffRel(conversationID, entry.EditID)
	if err := j.Artifacts.WriteDiff(entry.DiffFile, diff); err != nil {
		return nil, fmt.Errorf("failed to store diff: %w", err)
	}

	if err := writeTarget(target, after); err != nil {
		return nil, err
	}
	entry.HashAfter = j.Hasher.Sum(after)

	if err := j.Logs.Append(entry); err != nil {
		return nil, err
	}
	j.Logger.Info("recorded edit",
		"conversation", conversationID, "file", j.Layout.Rel(target),
		"operation", op.String(), "edit_id", entry.EditID)
	return &entry, nil
}

func (j *Journal) newEntry(conversationID string, entries []domain.LogEntry, op domain.Operation, target, toolName string) domain.LogEntry {
	var next int64
	for _, e := range entries {
		if e.ToolCallIndex >= next {
			next = e.ToolCallIndex + 1
		}
	}
	return domain.LogEntry{
		EditID:         j.newID(),
		ConversationID: conversationID,
		ToolCallIndex:  next,
		Timestamp:      j.timestamp(),
		Operation:      op,
		FilePath:       target,
		ToolName:       toolName,
		Status:         domain.StatusPending,
	}
}

func (j *Journal) checkpoint(entry *domain.LogEntry, path string, content []byte) error {
	ref := j.Layout.CheckpointRel(entry.ConversationID, path, entry.EditID, j.CompressCheckpoints)
	if err := j.Artifacts.WriteCheckpoint(ref, content); err != nil {
		return fmt.Errorf("failed to store checkpoint: %w", err)
	}
	entry.CheckpointFile = ref
	return nil
}

// lockAll acquires locks on paths in order; release frees them in reverse
func (j *Journal) lockAll(ctx context.Context, paths ...string) (release func(), err error) {
	guards := make([]ports.Guard, 0, len(paths))
	release = func() {
		for i := len(guards) - 1; i >= 0; i-- {
			guards[i].Release()
		}
	}
	for _, p := range paths {
		g, err := j.Locker.Acquire(ctx, p)
		if err != nil {
			release()
			return nil, err
		}
		guards = append(guards, g)
	}
	return release, nil
}

func (j *Journal) validateTarget(conversationID, field, path string) error {
	if err := application.ValidateIdentifier("conversationID", conversationID); err != nil {
		return err
	}
	if err := application.ValidateRequired(field, path); err != nil {
		return err
	}
	if !j.Layout.Contains(path) {
		return &application.ValidationError{Field: field, Message: path + " is outside the workspace"}
	}
	rel := j.Layout.Rel(path)
	if rel == domain.MarkerDir || strings.HasPrefix(rel, domain.MarkerDir+"/") {
		return &application.ValidationError{Field: field, Message: "cannot edit journal files"}
	}
	return nil
}

// firstTouch reports whether no entry of the conversation involves path yet
func firstTouch(layout domain.Layout, entries []domain.LogEntry, path string) bool {
	for _, e := range entries {
		if layout.Resolve(e.FilePath) == path || layout.Resolve(e.SourcePath) == path {
			return false
		}
	}
	return true
}

func readTarget(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, true, nil
}

func writeTarget(path string, content []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
