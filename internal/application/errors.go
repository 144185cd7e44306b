package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrNotFound                  = errors.New("not found")
	ErrLockBusy                  = errors.New("lock busy")
	ErrNoBaseline                = errors.New("no baseline")
	ErrExternalModification      = errors.New("external modification")
	ErrPatchFailed               = errors.New("patch failed")
	ErrMalformedRecord           = errors.New("malformed record")
	ErrFinalVerificationMismatch = errors.New("final verification mismatch")
	ErrInvalidTransition         = errors.New("invalid status transition")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ReplayError is a reconstruction failure tied to one entry or file
type ReplayError struct {
	EditID string
	Path   string
	Reason string
	Kind   error // one of the sentinels above
	Err    error
}

func (e *ReplayError) Error() string {
	msg := fmt.Sprintf("reconstruct %s", e.Path)
	if e.EditID != "" {
		msg += fmt.Sprintf(" at edit %s", e.EditID)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReplayError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}

// PatchError carries the output of a failed patch run
type PatchError struct {
	Target string
	Output string
	Err    error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %s failed: %v\n%s", e.Target, e.Err, e.Output)
}

func (e *PatchError) Is(target error) bool {
	return target == ErrPatchFailed
}

func (e *PatchError) Unwrap() error {
	return e.Err
}

// LockBusyError reports a lock held by another process
type LockBusyError struct {
	Target   string
	LockPath string
}

func (e *LockBusyError) Error() string {
	return fmt.Sprintf("%s is locked by another process (%s)", e.Target, e.LockPath)
}

func (e *LockBusyError) Is(target error) bool {
	return target == ErrLockBusy
}

// MalformedRecordError identifies an unreadable log line
type MalformedRecordError struct {
	Log  string
	Line int
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s:%d: malformed record: %v", e.Log, e.Line, e.Err)
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// FileFailure is a per-file reconstruction failure within a batch
type FileFailure struct {
	ConversationID string
	FilePath       string
	Err            error
}

// ReconstructionError aggregates failures of a multi-file reconstruction.
// Is matches any sentinel carried by one of the failures.
type ReconstructionError struct {
	Failures []FileFailure
}

func (e *ReconstructionError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Err.Error()
	}
	return fmt.Sprintf("%d files failed to reconstruct", len(e.Failures))
}

func (e *ReconstructionError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
