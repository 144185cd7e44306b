package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"mcpdiff/internal/adapters/tui/styles"
	"mcpdiff/internal/domain"
)

// RenderKeyHelp formats a key binding as help text (key + description)
func RenderKeyHelp(b key.Binding) string {
	help := b.Help()
	return fmt.Sprintf("%s %s",
		styles.HelpKey.Render(help.Key),
		styles.HelpDesc.Render(help.Desc),
	)
}

// RenderHelpLine renders multiple key bindings as a help line separated by bullets
func RenderHelpLine(bindings ...key.Binding) string {
	var parts []string
	for _, b := range bindings {
		parts = append(parts, RenderKeyHelp(b))
	}
	return strings.Join(parts, styles.HelpSeparator.String())
}

// RenderMessage renders a message with appropriate styling based on isError
func RenderMessage(message string, isError bool) string {
	if message == "" {
		return ""
	}
	if isError {
		return styles.ErrorMsg.Render(message)
	}
	return styles.Success.Render(message)
}

// RenderDiff colors a unified diff line by line
func RenderDiff(diff []byte) string {
	text := strings.TrimSuffix(string(diff), "\n")
	if text == "" {
		return styles.MutedText.Render("(no diff recorded)")
	}

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			lines[i] = styles.DiffHeader.Render(l)
		case strings.HasPrefix(l, "@@"):
			lines[i] = styles.DiffHunk.Render(l)
		case strings.HasPrefix(l, "+"):
			lines[i] = styles.DiffAdded.Render(l)
		case strings.HasPrefix(l, "-"):
			lines[i] = styles.DiffRemoved.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}

// entryPath renders the workspace-relative path of e, with the source for moves
func entryPath(layout domain.Layout, e domain.LogEntry) string {
	path := layout.Rel(layout.Resolve(e.FilePath))
	if e.Operation == domain.OperationMove {
		return layout.Rel(layout.Resolve(e.SourcePath)) + " -> " + path
	}
	return path
}

func operationName(e domain.LogEntry) string {
	if e.OperationName != "" {
		return e.OperationName
	}
	return e.Operation.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
