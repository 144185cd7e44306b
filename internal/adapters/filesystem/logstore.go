package filesystem

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"mcpdiff/internal/application"
	"mcpdiff/internal/domain"
	"mcpdiff/internal/ports"
)

const maxLineSize = 4 * 1024 * 1024

// LogStore implements ports.LogStore with one JSON-lines file per conversation
type LogStore struct {
	layout domain.Layout
	logger *slog.Logger
}

var _ ports.LogStore = (*LogStore)(nil)

// NewLogStore creates a log store rooted at the layout's history root
func NewLogStore(layout domain.Layout) *LogStore {
	return &LogStore{layout: layout, logger: slog.Default()}
}

// WithLogger sets the logger used for skipped records
func (s *LogStore) WithLogger(logger *slog.Logger) *LogStore {
	s.logger = logger
	return s
}

// Read returns the entries of a conversation in disk order. Blank lines are
// ignored and malformed lines are skipped with a warning.
func (s *LogStore) Read(conversationID string) ([]domain.LogEntry, error) {
	path := s.layout.LogPath(conversationID)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}

	var entries []domain.LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var e domain.LogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			s.logger.Warn("skipping log record",
				"error", &application.MalformedRecordError{Log: path, Line: lineNo, Err: err})
			continue
		}
		if e.ConversationID == "" {
			e.ConversationID = conversationID
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan log %s: %w", path, err)
	}

	return entries, nil
}

// Write atomically replaces a conversation's log
func (s *LogStore) Write(conversationID string, entries []domain.LogEntry) error {
	var buf bytes.Buffer
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", e.EditID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	path := s.layout.LogPath(conversationID)
	return writeFileAtomic(path, buf.Bytes(), fileMode(path, 0644))
}

// Append adds an entry to the end of its conversation's log
func (s *LogStore) Append(entry domain.LogEntry) error {
	if entry.ConversationID == "" {
		return &application.ValidationError{Field: "conversationID", Message: "conversation ID is required"}
	}
	entries, err := s.Read(entry.ConversationID)
	if err != nil {
		return err
	}
	return s.Write(entry.ConversationID, append(entries, entry))
}

// Conversations lists the ids of all logs, sorted
func (s *LogStore) Conversations() ([]string, error) {
	dirEntries, err := os.ReadDir(s.layout.LogsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read logs directory: %w", err)
	}

	var convs []string
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, domain.LogExt) || strings.HasPrefix(name, ".") {
			continue
		}
		convs = append(convs, strings.TrimSuffix(name, domain.LogExt))
	}
	sort.Strings(convs)
	return convs, nil
}

// FindEntry scans every log for editID
func (s *LogStore) FindEntry(editID string) (*domain.LogEntry, error) {
	convs, err := s.Conversations()
	if err != nil {
		return nil, err
	}
	for _, conv := range convs {
		entries, err := s.Read(conv)
		if err != nil {
			return nil, err
		}
		for i := range entries {
			if entries[i].EditID == editID {
				return &entries[i], nil
			}
		}
	}
	return nil, fmt.Errorf("edit %s: %w", editID, application.ErrNotFound)
}
