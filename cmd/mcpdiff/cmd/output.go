package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"mcpdiff/internal/domain"
)

// entryView is the serialized form of a log entry in status output
type entryView struct {
	EditID         string    `json:"edit_id" yaml:"edit_id"`
	ConversationID string    `json:"conversation_id" yaml:"conversation_id"`
	ToolCallIndex  int64     `json:"tool_call_index" yaml:"tool_call_index"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	Operation      string    `json:"operation" yaml:"operation"`
	FilePath       string    `json:"file_path" yaml:"file_path"`
	SourcePath     string    `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	Status         string    `json:"status" yaml:"status"`
}

type statusView struct {
	Entries []entryView    `json:"entries" yaml:"entries"`
	Counts  map[string]int `json:"counts" yaml:"counts"`
}

func newEntryView(layout domain.Layout, e domain.LogEntry) entryView {
	op := e.Operation.String()
	if e.OperationName != "" {
		op = e.OperationName
	}
	v := entryView{
		EditID:         e.EditID,
		ConversationID: e.ConversationID,
		ToolCallIndex:  e.ToolCallIndex,
		Timestamp:      e.Timestamp.UTC(),
		Operation:      op,
		FilePath:       layout.Rel(layout.Resolve(e.FilePath)),
		Status:         e.Status.String(),
	}
	if e.SourcePath != "" {
		v.SourcePath = layout.Rel(layout.Resolve(e.SourcePath))
	}
	return v
}

func newStatusView(layout domain.Layout, entries []domain.LogEntry, counts map[domain.Status]int) statusView {
	view := statusView{
		Entries: make([]entryView, 0, len(entries)),
		Counts:  make(map[string]int, len(counts)),
	}
	for _, e := range entries {
		view.Entries = append(view.Entries, newEntryView(layout, e))
	}
	for _, s := range []domain.Status{domain.StatusPending, domain.StatusAccepted, domain.StatusRejected} {
		view.Counts[s.String()] = counts[s]
	}
	return view
}

func writeStatus(w io.Writer, format string, view statusView, summary string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		if len(view.Entries) == 0 {
			_, err := fmt.Fprintln(w, "No entries.")
			return err
		}
		_, err := fmt.Fprintf(w, "%s\n%s\n", renderTable(view.Entries), summary)
		return err
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func renderTable(entries []entryView) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("TIME", "EDIT", "CONVERSATION", "STATUS", "OP", "FILE")
	for _, e := range entries {
		path := e.FilePath
		if e.SourcePath != "" {
			path = e.SourcePath + " -> " + path
		}
		t.Row(e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.EditID, e.ConversationID, e.Status, e.Operation, path)
	}
	return t.String()
}
