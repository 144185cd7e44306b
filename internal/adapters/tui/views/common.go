package views

import (
	"mcpdiff/internal/domain"
)

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// Messages for view switching
type SwitchToBrowserMsg struct{}

type SwitchToDiffMsg struct {
	Entry domain.LogEntry
}

// SwitchToRejectMsg asks for confirmation before rejecting Entry, or its
// whole conversation when Conversation is set
type SwitchToRejectMsg struct {
	Entry        domain.LogEntry
	Conversation bool
}

type SwitchToHelpMsg struct{}

// OpenEditorMsg requests the editor at Path, cursor on Line (0 for the top)
type OpenEditorMsg struct {
	Path string
	Line int
}

// StatusChangedMsg reports the outcome of an accept or reject
type StatusChangedMsg struct {
	Message string
	Err     error
}

type errMsg struct {
	err error
}
