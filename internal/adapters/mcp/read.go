package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mcpdiff/internal/application/commands"
	"mcpdiff/internal/domain"
)

// RegisterReadTools adds all read-only journal tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, j *commands.Journal) {
	s.AddTool(statusTool(), statusHandler(j))
	s.AddTool(showTool(), showHandler(j))
	s.AddTool(driftTool(), driftHandler(j))
}

// --- status ---

func statusTool() mcp.Tool {
	return mcp.NewTool("status",
		mcp.WithDescription("List journaled edits, oldest first. Filters combine."),
		mcp.WithString("conversation_id",
			mcp.Description("Only entries of this conversation"),
		),
		mcp.WithString("file",
			mcp.Description("Glob over workspace-relative paths (e.g. src/**/*.go)"),
		),
		mcp.WithString("status",
			mcp.Description("Only entries in this status"),
			mcp.Enum("pending", "accepted", "rejected"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Keep only the newest N entries. 0 for all."),
		),
	)
}

func statusHandler(j *commands.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := domain.EntryFilter{
			ConversationID: req.GetString("conversation_id", ""),
			FileGlob:       req.GetString("file", ""),
			Limit:          req.GetInt("limit", 0),
		}
		if name := req.GetString("status", ""); name != "" {
			status, err := domain.ParseStatus(name)
			if err != nil {
				return toolError(err)
			}
			filter.Status = &status
		}

		result, err := commands.NewListEntriesCommand(j, filter).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(result.Entries) == 0 {
			return mcp.NewToolResultText("No entries."), nil
		}

		var sb strings.Builder
		for _, e := range result.Entries {
			sb.WriteString(formatEntry(j, e))
			sb.WriteByte('\n')
		}
		sb.WriteString(result.Message)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- show ---

func showTool() mcp.Tool {
	return mcp.NewTool("show",
		mcp.WithDescription("Show the diff of an edit, or of every edit in a conversation."),
		mcp.WithString("id",
			mcp.Description("Edit ID or conversation ID"),
			mcp.Required(),
		),
	)
}

func showHandler(j *commands.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewShowCommand(j, req.GetString("id", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		for _, s := range result.Entries {
			sb.WriteString(formatEntry(j, s.Entry))
			sb.WriteByte('\n')
			if len(s.Diff) > 0 {
				sb.Write(s.Diff)
				if !strings.HasSuffix(string(s.Diff), "\n") {
					sb.WriteByte('\n')
				}
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- drift ---

func driftTool() mcp.Tool {
	return mcp.NewTool("drift",
		mcp.WithDescription("Compare a file with its newest checkpoint, line by line."),
		mcp.WithString("file_path",
			mcp.Description("File to compare, relative to the workspace"),
			mcp.Required(),
		),
		mcp.WithString("conversation_id",
			mcp.Description("Only consider checkpoints of this conversation"),
		),
	)
}

func driftHandler(j *commands.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewDriftCommand(j, req.GetString("file_path", ""), req.GetString("conversation_id", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		sb.WriteString(result.Message)
		sb.WriteByte('\n')
		for _, l := range result.Lines {
			switch l.Kind {
			case commands.LineAdded:
				sb.WriteString("+")
			case commands.LineRemoved:
				sb.WriteString("-")
			default:
				sb.WriteString(" ")
			}
			sb.WriteString(l.Text)
			sb.WriteByte('\n')
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntry(j *commands.Journal, e domain.LogEntry) string {
	op := e.Operation.String()
	if e.OperationName != "" {
		op = e.OperationName
	}
	path := j.Layout.Rel(j.Layout.Resolve(e.FilePath))
	if e.Operation == domain.OperationMove {
		path = fmt.Sprintf("%s -> %s", j.Layout.Rel(j.Layout.Resolve(e.SourcePath)), path)
	}
	return fmt.Sprintf("%s  %s  %-8s  %-8s  %s",
		e.Timestamp.UTC().Format("2006-01-02 15:04:05"), e.EditID, e.Status, op, path)
}
