package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"mcpdiff/internal/application"
	"mcpdiff/internal/domain"
)

// LineKind classifies a line of a drift report
type LineKind int

const (
	LineSame LineKind = iota
	LineAdded
	LineRemoved
)

// DriftLine is one line of a drift report
type DriftLine struct {
	Kind LineKind
	Text string
}

// DriftResult compares a file with its newest checkpoint
type DriftResult struct {
	FilePath   string
	Checkpoint domain.LogEntry
	Present    bool
	Lines      []DriftLine
	Added      int
	Removed    int
	Message    string
}

// Changed reports whether the file differs from the checkpoint
func (r *DriftResult) Changed() bool {
	return r.Added > 0 || r.Removed > 0 || !r.Present
}

// DriftCommand shows how a file moved away from its newest checkpoint
type DriftCommand struct {
	journal        *Journal
	FilePath       string
	ConversationID string // optional, limits the checkpoint search
}

// NewDriftCommand creates a new DriftCommand
func NewDriftCommand(j *Journal, filePath, conversationID string) *DriftCommand {
	return &DriftCommand{journal: j, FilePath: filePath, ConversationID: conversationID}
}

// Validate checks the path and optional conversation
func (c *DriftCommand) Validate() error {
	if err := application.ValidateRequired("filePath", c.FilePath); err != nil {
		return err
	}
	if c.ConversationID != "" {
		return application.ValidateIdentifier("conversationID", c.ConversationID)
	}
	return nil
}

// Execute diffs the newest checkpoint of the file against its current content
func (c *DriftCommand) Execute(ctx context.Context) (*DriftResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	j := c.journal
	target := j.Layout.Resolve(c.FilePath)
	chk, err := c.newestCheckpoint(target)
	if err != nil {
		return nil, err
	}

	before, err := j.Artifacts.ReadCheckpoint(chk.CheckpointFile)
	if err != nil {
		return nil, err
	}
	current, present, err := readTarget(target)
	if err != nil {
		return nil, err
	}

	result := &DriftResult{FilePath: target, Checkpoint: chk, Present: present}
	result.Lines = lineDiff(string(before), string(current))
	for _, l := range result.Lines {
		switch l.Kind {
		case LineAdded:
			result.Added++
		case LineRemoved:
			result.Removed++
		}
	}

	rel := j.Layout.Rel(target)
	switch {
	case !present:
		result.Message = fmt.Sprintf("%s no longer exists (checkpoint %s)", rel, chk.EditID)
	case result.Changed():
		result.Message = fmt.Sprintf("%s: +%d -%d since checkpoint %s", rel, result.Added, result.Removed, chk.EditID)
	default:
		result.Message = fmt.Sprintf("%s matches checkpoint %s", rel, chk.EditID)
	}
	return result, nil
}

func (c *DriftCommand) newestCheckpoint(target string) (domain.LogEntry, error) {
	j := c.journal
	convs := []string{c.ConversationID}
	if c.ConversationID == "" {
		var err error
		if convs, err = j.Logs.Conversations(); err != nil {
			return domain.LogEntry{}, err
		}
	}

	var newest *domain.LogEntry
	for _, conv := range convs {
		entries, err := j.Logs.Read(conv)
		if err != nil {
			return domain.LogEntry{}, err
		}
		for i := range entries {
			e := entries[i]
			if e.CheckpointFile == "" {
				continue
			}
			// a Move checkpoints its source
			path := e.FilePath
			if e.Operation == domain.OperationMove {
				path = e.SourcePath
			}
			if j.Layout.Resolve(path) != target {
				continue
			}
			if newest == nil || domain.Compare(e, *newest) > 0 {
				newest = &e
			}
		}
	}

	if newest == nil {
		return domain.LogEntry{}, fmt.Errorf("no checkpoint for %s: %w", j.Layout.Rel(target), application.ErrNotFound)
	}
	return *newest, nil
}

// lineDiff computes a line-level diff with diff-match-patch
func lineDiff(before, after string) []DriftLine {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DriftLine
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		kind := LineSame
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = LineAdded
		case diffmatchpatch.DiffDelete:
			kind = LineRemoved
		}
		for _, text := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			lines = append(lines, DriftLine{Kind: kind, Text: text})
		}
	}
	return lines
}
