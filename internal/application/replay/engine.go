// Package replay rebuilds a file from its last checkpoint and the surviving
// entries of its history.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mcpdiff/internal/application"
	"mcpdiff/internal/domain"
	"mcpdiff/internal/ports"
)

// Deps are the collaborators of an Engine
type Deps struct {
	Layout    domain.Layout
	Logs      ports.LogStore
	Artifacts ports.ArtifactStore
	State     ports.StateStore
	Hasher    ports.Hasher
	Locker    ports.Locker
	Patcher   ports.Patcher
	Logger    *slog.Logger
}

// Options tune a single reconstruction
type Options struct {
	// Force skips the check that the file still holds what the journal last
	// wrote to it
	Force bool
}

// Result describes a finished reconstruction
type Result struct {
	ConversationID string
	FilePath       string // requested path
	FinalPath      string // where the replayed content lives
	Changed        bool
	Applied        int
	Skipped        int
	Present        bool
	FinalHash      string

	// VerificationMismatch is set when the final content differs from the
	// fingerprint the replay expected
	VerificationMismatch bool
	Warnings             []string
}

// Engine performs selective replay reconstruction
type Engine struct {
	deps   Deps
	strict bool
	now    func() time.Time
}

// NewEngine creates an engine. With strict set a final verification
// mismatch fails the reconstruction instead of being reported.
func NewEngine(deps Deps, strict bool) *Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Engine{deps: deps, strict: strict, now: time.Now}
}

// fingerprint is the observed or expected state of a file
type fingerprint struct {
	hash    string
	present bool
}

func (f fingerprint) String() string {
	if !f.present {
		return "absent"
	}
	return f.hash
}

// replayState tracks one reconstruction in progress
type replayState struct {
	result   *Result
	current  string // path the lineage currently lives at
	expected fingerprint
	known    bool // false when nothing is known about the expected content
	diverged bool // an effect was skipped, so recorded hashes no longer apply
}

// Reconstruct rebuilds filePath as conversationID's surviving entries leave it
func (e *Engine) Reconstruct(ctx context.Context, conversationID, filePath string, opts Options) (*Result, error) {
	if err := application.ValidateIdentifier("conversationID", conversationID); err != nil {
		return nil, err
	}
	if err := application.ValidateRequired("filePath", filePath); err != nil {
		return nil, err
	}

	layout := e.deps.Layout
	target := layout.Resolve(filePath)
	result := &Result{ConversationID: conversationID, FilePath: target, FinalPath: target}
	log := e.deps.Logger.With("conversation", conversationID, "file", layout.Rel(target))

	entries, err := e.deps.Logs.Read(conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation log: %w", err)
	}
	if len(entries) == 0 {
		log.Info("conversation has no entries")
		return result, nil
	}

	entries = resolveEntries(layout, entries)
	domain.SortChronological(entries)

	lineage := domain.TraceLineage(entries, target)
	if len(lineage) == 0 {
		log.Info("file has no history in conversation")
		return result, nil
	}

	baseline, ok := domain.SelectBaseline(lineage)
	if !ok {
		return nil, &application.ReplayError{
			Path:   target,
			Reason: "no checkpoint and the surviving history does not start with a create",
			Kind:   application.ErrNoBaseline,
		}
	}
	replayed := lineage[baseline.Start:]

	guard, err := e.deps.Locker.Acquire(ctx, target)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	state, err := e.deps.State.Load(conversationID)
	if err != nil {
		return nil, err
	}

	initial, err := e.observe(target)
	if err != nil {
		return nil, err
	}

	if opts.Force {
		log.Warn("skipping external modification check")
	} else if err := e.checkDrift(target, initial, lineage, state); err != nil {
		return nil, err
	}

	rs := &replayState{result: result, current: startPath(replayed[0])}
	if err := e.restoreBaseline(log, rs, target, baseline); err != nil {
		return nil, err
	}

	for _, entry := range replayed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.replayEntry(ctx, log, rs, entry); err != nil {
			return nil, err
		}
	}

	final, err := e.observe(rs.current)
	if err != nil {
		return nil, err
	}
	result.FinalPath = rs.current
	result.Present = final.present
	result.FinalHash = final.hash
	result.Changed = final != initial || rs.current != target

	var verifyErr error
	if rs.known && final != rs.expected {
		result.VerificationMismatch = true
		log.Error("final content does not match the replayed history",
			"expected", rs.expected.String(), "actual", final.String())
		if e.strict {
			verifyErr = &application.ReplayError{
				Path:   rs.current,
				Reason: fmt.Sprintf("expected %s, found %s", rs.expected, final),
				Kind:   application.ErrFinalVerificationMismatch,
			}
		}
	}

	last := lineage[len(lineage)-1].EditID
	now := e.now().UTC()
	state.Record(rs.current, domain.FileState{Hash: final.hash, Present: final.present, LastEditID: last, ReconstructedAt: now})
	if rs.current != target {
		state.Record(target, domain.FileState{LastEditID: last, ReconstructedAt: now})
	}
	if err := e.deps.State.Save(state); err != nil {
		return nil, err
	}

	log.Info("reconstructed",
		"applied", result.Applied, "skipped", result.Skipped,
		"changed", result.Changed, "final", final.String())
	if verifyErr != nil {
		return result, verifyErr
	}
	return result, nil
}

// checkDrift compares the file on disk with the last content the journal
// knows it wrote: a later reconstruction of the same history, or else the
// newest lineage entry.
func (e *Engine) checkDrift(target string, actual fingerprint, lineage []domain.LogEntry, state *domain.ReconstructionState) error {
	last := lineage[len(lineage)-1]

	var want fingerprint
	if saved, ok := state.Lookup(target); ok && saved.LastEditID == last.EditID {
		want = fingerprint{hash: saved.Hash, present: saved.Present}
	} else {
		switch {
		case last.Operation == domain.OperationDelete:
			want = fingerprint{}
		case last.Operation == domain.OperationMove && last.FilePath != target:
			want = fingerprint{}
		case last.HashAfter == "":
			return nil
		default:
			want = fingerprint{hash: last.HashAfter, present: true}
		}
	}

	if actual != want {
		return &application.ReplayError{
			EditID: last.EditID,
			Path:   target,
			Reason: fmt.Sprintf("file changed outside the journal (expected %s, found %s); use force to overwrite", want, actual),
			Kind:   application.ErrExternalModification,
		}
	}
	return nil
}

// restoreBaseline puts the starting content in place
func (e *Engine) restoreBaseline(log *slog.Logger, rs *replayState, target string, baseline domain.Baseline) error {
	if rs.current != target {
		if err := removeFile(target); err != nil {
			return err
		}
	}

	if baseline.Checkpoint == nil {
		if err := removeFile(rs.current); err != nil {
			return err
		}
		rs.expected = fingerprint{}
		rs.known = true
		log.Debug("starting from an absent file")
		return nil
	}

	chk := baseline.Checkpoint
	if err := e.deps.Artifacts.RestoreCheckpoint(chk.CheckpointFile, rs.current); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &application.ReplayError{
				EditID: chk.EditID,
				Path:   rs.current,
				Reason: "checkpoint " + chk.CheckpointFile + " is missing",
				Kind:   application.ErrNoBaseline,
				Err:    err,
			}
		}
		return fmt.Errorf("failed to restore checkpoint: %w", err)
	}

	restored, err := e.observe(rs.current)
	if err != nil {
		return err
	}
	if chk.HashBefore != "" && restored.hash != chk.HashBefore {
		rs.warn(log, "checkpoint content differs from the recorded hash",
			"edit_id", chk.EditID, "expected", chk.HashBefore, "actual", restored.hash)
		rs.diverged = true
	}
	rs.expected = restored
	rs.known = true
	log.Debug("checkpoint restored", "edit_id", chk.EditID, "checkpoint", chk.CheckpointFile)
	return nil
}

// replayEntry verifies the precondition of one entry and applies its effect
// when it survives
func (e *Engine) replayEntry(ctx context.Context, log *slog.Logger, rs *replayState, entry domain.LogEntry) error {
	actual, err := e.observe(rs.current)
	if err != nil {
		return err
	}
	if actual.present && entry.Operation != domain.OperationCreate && rs.known && actual != rs.expected {
		return &application.ReplayError{
			EditID: entry.EditID,
			Path:   rs.current,
			Reason: fmt.Sprintf("content before the edit is %s, history expects %s", actual, rs.expected),
			Kind:   application.ErrExternalModification,
		}
	}

	if !entry.Status.Applies() {
		rs.result.Skipped++
		if entry.Operation == domain.OperationMove {
			rs.current = entry.FilePath
		}
		if entry.Operation.ChangesContent() {
			rs.diverged = true
		}
		log.Debug("skipping rejected entry", "edit_id", entry.EditID, "operation", entry.Operation)
		return nil
	}

	switch entry.Operation {
	case domain.OperationCreate, domain.OperationReplace, domain.OperationEdit:
		if err := e.applyDiff(ctx, rs, entry); err != nil {
			return err
		}
	case domain.OperationDelete:
		if err := removeFile(rs.current); err != nil {
			return err
		}
	case domain.OperationMove:
		if err := e.move(log, rs, entry); err != nil {
			return err
		}
	default:
		if entry.CheckpointFile != "" && entry.HashBefore == entry.HashAfter {
			rs.result.Skipped++
			log.Debug("passing checkpoint-only entry", "edit_id", entry.EditID)
			return nil
		}
		rs.warn(log, "skipping entry with unknown operation",
			"edit_id", entry.EditID, "operation", entry.OperationName)
		rs.result.Skipped++
		if entry.HashBefore != entry.HashAfter {
			rs.diverged = true
		}
		return nil
	}
	rs.result.Applied++

	after, err := e.observe(rs.current)
	if err != nil {
		return err
	}
	switch {
	case rs.diverged:
		rs.expected = after
	case entry.Operation == domain.OperationDelete:
		rs.expected = fingerprint{}
	case entry.HashAfter != "":
		rs.expected = fingerprint{hash: entry.HashAfter, present: true}
	default:
		rs.expected = after
	}
	rs.known = true
	return nil
}

func (e *Engine) applyDiff(ctx context.Context, rs *replayState, entry domain.LogEntry) error {
	rs.current = entry.FilePath
	if entry.DiffFile == "" {
		return &application.ReplayError{
			EditID: entry.EditID,
			Path:   rs.current,
			Reason: "entry has no diff artifact",
			Kind:   application.ErrPatchFailed,
		}
	}

	diff, err := e.deps.Artifacts.ReadDiff(entry.DiffFile)
	if err != nil {
		return &application.ReplayError{
			EditID: entry.EditID,
			Path:   rs.current,
			Reason: "cannot read diff " + entry.DiffFile,
			Kind:   application.ErrPatchFailed,
			Err:    err,
		}
	}

	if err := e.deps.Patcher.Apply(ctx, diff, rs.current, false); err != nil {
		return &application.ReplayError{
			EditID: entry.EditID,
			Path:   rs.current,
			Reason: "diff does not apply",
			Kind:   application.ErrPatchFailed,
			Err:    err,
		}
	}
	return nil
}

func (e *Engine) move(log *slog.Logger, rs *replayState, entry domain.LogEntry) error {
	src, dst := entry.SourcePath, entry.FilePath
	rs.current = dst

	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		rs.warn(log, "move source does not exist", "edit_id", entry.EditID, "source", src)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}
	return nil
}

func (e *Engine) observe(path string) (fingerprint, error) {
	hash, present, err := e.deps.Hasher.Fingerprint(path)
	if err != nil {
		return fingerprint{}, err
	}
	return fingerprint{hash: hash, present: present}, nil
}

func (rs *replayState) warn(log *slog.Logger, msg string, args ...any) {
	log.Warn(msg, args...)
	rs.result.Warnings = append(rs.result.Warnings, msg)
}

// startPath is where the lineage lives before entry runs
func startPath(entry domain.LogEntry) string {
	if entry.Operation == domain.OperationMove && entry.SourcePath != "" {
		return entry.SourcePath
	}
	return entry.FilePath
}

// resolveEntries returns a copy of entries with absolute paths
func resolveEntries(layout domain.Layout, entries []domain.LogEntry) []domain.LogEntry {
	out := make([]domain.LogEntry, len(entries))
	for i, entry := range entries {
		entry.FilePath = layout.Resolve(entry.FilePath)
		entry.SourcePath = layout.Resolve(entry.SourcePath)
		out[i] = entry
	}
	return out
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
