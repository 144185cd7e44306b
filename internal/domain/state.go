package domain

import "time"

// FileState is the last fingerprint written to a file by a reconstruction
type FileState struct {
	Hash            string    `json:"hash,omitempty"` // empty when absent
	Present         bool      `json:"present"`
	LastEditID      string    `json:"last_edit_id,omitempty"`
	ReconstructedAt time.Time `json:"reconstructed_at"`
}

// ReconstructionState holds per-file reconstruction results of one conversation
type ReconstructionState struct {
	ConversationID string               `json:"conversation_id"`
	Files          map[string]FileState `json:"files"` // keyed by absolute path
}

// NewReconstructionState returns an empty state for a conversation
func NewReconstructionState(conversationID string) *ReconstructionState {
	return &ReconstructionState{
		ConversationID: conversationID,
		Files:          make(map[string]FileState),
	}
}

// Lookup returns the recorded state for path
func (s *ReconstructionState) Lookup(path string) (FileState, bool) {
	if s == nil || s.Files == nil {
		return FileState{}, false
	}
	fs, ok := s.Files[path]
	return fs, ok
}

// Record stores the outcome of a reconstruction of path
func (s *ReconstructionState) Record(path string, fs FileState) {
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	s.Files[path] = fs
}
