package ports

import "mcpdiff/internal/domain"

// LogStore persists conversation logs
type LogStore interface {
	// Read returns the entries of a conversation in disk order.
	// A missing log is an empty conversation.
	Read(conversationID string) ([]domain.LogEntry, error)

	// Write atomically replaces the whole log of a conversation
	Write(conversationID string, entries []domain.LogEntry) error

	// Append adds one entry to its conversation's log
	Append(entry domain.LogEntry) error

	// Conversations lists every conversation with a log, sorted
	Conversations() ([]string, error)

	// FindEntry locates an entry by edit id across all conversations
	FindEntry(editID string) (*domain.LogEntry, error)
}

// ArtifactStore reads and writes diff artifacts and checkpoints.
// References are history-relative paths as stored on log entries.
type ArtifactStore interface {
	ReadDiff(ref string) ([]byte, error)
	WriteDiff(ref string, diff []byte) error

	// ReadCheckpoint returns the snapshot bytes, decompressing when needed
	ReadCheckpoint(ref string) ([]byte, error)
	WriteCheckpoint(ref string, content []byte) error

	// RestoreCheckpoint copies a snapshot onto target, creating parents
	RestoreCheckpoint(ref, target string) error
}

// StateStore persists reconstruction results per conversation
type StateStore interface {
	// Load returns an empty state when none was saved
	Load(conversationID string) (*domain.ReconstructionState, error)
	Save(state *domain.ReconstructionState) error
}
