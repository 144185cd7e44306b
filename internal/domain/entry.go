package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Status is the review state of a log entry
type Status int

const (
	StatusPending Status = iota
	StatusAccepted
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus parses a status name. Unknown names are an error: status is a
// closed set and a record carrying anything else is malformed.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "accepted":
		return StatusAccepted, nil
	case "rejected":
		return StatusRejected, nil
	default:
		return 0, fmt.Errorf("invalid status %q", s)
	}
}

// Applies reports whether entries with this status contribute to file state
func (s Status) Applies() bool {
	return s == StatusPending || s == StatusAccepted
}

func (s Status) MarshalJSON() ([]byte, error) {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return json.Marshal(s.String())
	default:
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Operation is the kind of edit an entry records
type Operation int

const (
	OperationUnknown Operation = iota
	OperationCreate
	OperationReplace
	OperationEdit
	OperationDelete
	OperationMove
)

func (o Operation) String() string {
	switch o {
	case OperationCreate:
		return "create"
	case OperationReplace:
		return "replace"
	case OperationEdit:
		return "edit"
	case OperationDelete:
		return "delete"
	case OperationMove:
		return "move"
	default:
		return "unknown"
	}
}

// ParseOperation maps an operation name to its Operation. Names written by
// newer tools decode as OperationUnknown so old readers can skip them.
func ParseOperation(s string) Operation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "create":
		return OperationCreate
	case "replace":
		return OperationReplace
	case "edit":
		return OperationEdit
	case "delete":
		return OperationDelete
	case "move":
		return OperationMove
	default:
		return OperationUnknown
	}
}

// HasDiff reports whether the operation is materialized by a diff artifact
func (o Operation) HasDiff() bool {
	return o == OperationCreate || o == OperationReplace || o == OperationEdit
}

// ChangesContent reports whether the operation alters the bytes or presence
// of the file it targets
func (o Operation) ChangesContent() bool {
	return o.HasDiff() || o == OperationDelete
}

func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("operation: %w", err)
	}
	*o = ParseOperation(name)
	return nil
}

// LogEntry records a single edit action within a conversation.
// Status is the only field that changes after the entry is written.
type LogEntry struct {
	EditID         string
	ConversationID string
	ToolCallIndex  int64
	Timestamp      time.Time
	Operation      Operation
	OperationName  string // as written, kept for operations this version does not know
	FilePath       string
	SourcePath     string // Move only
	ToolName       string
	Status         Status
	DiffFile       string // relative to the history root
	CheckpointFile string // relative to the history root
	HashBefore     string // empty when the file was absent
	HashAfter      string // empty when the file is absent afterwards

	// Extra holds fields written by other tools so a rewrite keeps them
	Extra map[string]json.RawMessage

	// rawTimestamp is the timestamp as decoded, written back unchanged
	rawTimestamp json.RawMessage
}

type entryRecord struct {
	EditID         string          `json:"edit_id"`
	ConversationID string          `json:"conversation_id"`
	ToolCallIndex  int64           `json:"tool_call_index"`
	Timestamp      json.RawMessage `json:"timestamp"`
	Operation      string          `json:"operation"`
	FilePath       string          `json:"file_path"`
	SourcePath     string          `json:"source_path,omitempty"`
	ToolName       string          `json:"tool_name,omitempty"`
	Status         *Status         `json:"status"`
	DiffFile       string          `json:"diff_file,omitempty"`
	CheckpointFile string          `json:"checkpoint_file,omitempty"`
	HashBefore     string          `json:"hash_before,omitempty"`
	HashAfter      string          `json:"hash_after,omitempty"`
}

var knownFields = []string{
	"edit_id", "conversation_id", "tool_call_index", "timestamp", "operation",
	"file_path", "source_path", "tool_name", "status", "diff_file",
	"checkpoint_file", "hash_before", "hash_after",
}

// TimestampLayout is the on-disk timestamp format
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (e LogEntry) MarshalJSON() ([]byte, error) {
	ts := e.rawTimestamp
	if t, err := parseTimestamp(ts); err != nil || !t.Equal(e.Timestamp) {
		ts, err = json.Marshal(e.Timestamp.UTC().Format(TimestampLayout))
		if err != nil {
			return nil, err
		}
	}
	status := e.Status
	rec := entryRecord{
		EditID:         e.EditID,
		ConversationID: e.ConversationID,
		ToolCallIndex:  e.ToolCallIndex,
		Timestamp:      ts,
		Operation:      e.Operation.String(),
		FilePath:       e.FilePath,
		SourcePath:     e.SourcePath,
		ToolName:       e.ToolName,
		Status:         &status,
		DiffFile:       e.DiffFile,
		CheckpointFile: e.CheckpointFile,
		HashBefore:     e.HashBefore,
		HashAfter:      e.HashAfter,
	}
	if e.Operation == OperationUnknown && e.OperationName != "" {
		rec.Operation = e.OperationName
	}
	data, err := json.Marshal(rec)
	if err != nil || len(e.Extra) == 0 {
		return data, err
	}

	merged := make(map[string]json.RawMessage, len(e.Extra)+len(knownFields))
	for k, v := range e.Extra {
		merged[k] = v
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(data, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (e *LogEntry) UnmarshalJSON(data []byte) error {
	var rec entryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.EditID == "" {
		return fmt.Errorf("missing edit_id")
	}
	if rec.Status == nil {
		return fmt.Errorf("missing status")
	}
	ts, err := parseTimestamp(rec.Timestamp)
	if err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range knownFields {
		delete(all, k)
	}
	// some writers emit explicit nulls for absent optional fields
	for k, v := range all {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			delete(all, k)
		}
	}
	if len(all) == 0 {
		all = nil
	}

	op := ParseOperation(rec.Operation)
	var opName string
	if op == OperationUnknown {
		opName = rec.Operation
	}

	*e = LogEntry{
		EditID:         rec.EditID,
		ConversationID: rec.ConversationID,
		ToolCallIndex:  rec.ToolCallIndex,
		Timestamp:      ts,
		Operation:      op,
		OperationName:  opName,
		FilePath:       rec.FilePath,
		SourcePath:     rec.SourcePath,
		ToolName:       rec.ToolName,
		Status:         *rec.Status,
		DiffFile:       rec.DiffFile,
		CheckpointFile: rec.CheckpointFile,
		HashBefore:     rec.HashBefore,
		HashAfter:      rec.HashAfter,
		Extra:          all,
		rawTimestamp:   append(json.RawMessage(nil), bytes.TrimSpace(rec.Timestamp)...),
	}
	return nil
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts RFC 3339 strings, zone-less ISO strings (read as UTC)
// and numeric epoch seconds.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}

	if raw[0] != '"' {
		secs, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %s: %w", raw, err)
		}
		whole := int64(secs)
		frac := int64((secs - float64(whole)) * 1e9)
		return time.Unix(whole, frac).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// Compare orders entries by (timestamp, tool_call_index)
func Compare(a, b LogEntry) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	switch {
	case a.ToolCallIndex < b.ToolCallIndex:
		return -1
	case a.ToolCallIndex > b.ToolCallIndex:
		return 1
	default:
		return 0
	}
}

// SortChronological sorts entries in place. Ties keep their log order.
func SortChronological(entries []LogEntry) {
	slices.SortStableFunc(entries, Compare)
}

// FileRef identifies one file lineage inside one conversation
type FileRef struct {
	ConversationID string
	FilePath       string
}

func (r FileRef) String() string {
	return fmt.Sprintf("%s (%s)", r.FilePath, r.ConversationID)
}
