package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"mcpdiff/internal/domain"
	"mcpdiff/internal/ports"
)

// StateStore implements ports.StateStore with one JSON file per conversation
type StateStore struct {
	layout domain.Layout
}

var _ ports.StateStore = (*StateStore)(nil)

// NewStateStore creates a state store for layout
func NewStateStore(layout domain.Layout) *StateStore {
	return &StateStore{layout: layout}
}

// Load returns the saved state, or an empty one
func (s *StateStore) Load(conversationID string) (*domain.ReconstructionState, error) {
	data, err := os.ReadFile(s.layout.StatePath(conversationID))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewReconstructionState(conversationID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	state := domain.NewReconstructionState(conversationID)
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	if state.Files == nil {
		state.Files = make(map[string]domain.FileState)
	}
	return state, nil
}

// Save atomically writes state
func (s *StateStore) Save(state *domain.ReconstructionState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return writeFileAtomic(s.layout.StatePath(state.ConversationID), append(data, '\n'), 0644)
}
