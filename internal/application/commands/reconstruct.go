package commands

import (
	"context"
	"fmt"

	"mcpdiff/internal/application"
	"mcpdiff/internal/application/replay"
)

// ReconstructResult wraps the replay outcome for display
type ReconstructResult struct {
	*replay.Result
	Message string
}

// ReconstructCommand rebuilds one file from its conversation history
type ReconstructCommand struct {
	journal        *Journal
	ConversationID string
	FilePath       string
	Force          bool
}

// NewReconstructCommand creates a new ReconstructCommand
func NewReconstructCommand(j *Journal, conversationID, filePath string, force bool) *ReconstructCommand {
	return &ReconstructCommand{journal: j, ConversationID: conversationID, FilePath: filePath, Force: force}
}

// Validate checks the conversation id and path
func (c *ReconstructCommand) Validate() error {
	if err := application.ValidateIdentifier("conversationID", c.ConversationID); err != nil {
		return err
	}
	return application.ValidateRequired("filePath", c.FilePath)
}

// Execute runs the reconstruction. On a verification failure the result is
// returned along with the error.
func (c *ReconstructCommand) Execute(ctx context.Context) (*ReconstructResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	res, err := c.journal.Replay.Reconstruct(ctx, c.ConversationID, c.FilePath, replay.Options{Force: c.Force})
	if res == nil {
		return nil, err
	}

	rel := c.journal.Layout.Rel(res.FinalPath)
	msg := fmt.Sprintf("%s unchanged", rel)
	switch {
	case res.Changed && res.Present:
		msg = fmt.Sprintf("Reconstructed %s (%d applied, %d skipped)", rel, res.Applied, res.Skipped)
	case res.Changed:
		msg = fmt.Sprintf("Reconstructed %s as absent (%d applied, %d skipped)", rel, res.Applied, res.Skipped)
	}
	if res.VerificationMismatch {
		msg += "; final content does not match the recorded history"
	}
	return &ReconstructResult{Result: res, Message: msg}, err
}
