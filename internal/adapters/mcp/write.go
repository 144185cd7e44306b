package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mcpdiff/internal/application"
	"mcpdiff/internal/application/commands"
)

// RegisterWriteTools adds the journaled file tools and review tools to the
// MCP server.
func RegisterWriteTools(s *server.MCPServer, j *commands.Journal) {
	s.AddTool(writeFileTool(), writeFileHandler(j))
	s.AddTool(editFileTool(), editFileHandler(j))
	s.AddTool(deleteFileTool(), deleteFileHandler(j))
	s.AddTool(moveFileTool(), moveFileHandler(j))
	s.AddTool(snapshotTool(), snapshotHandler(j))
	s.AddTool(acceptTool(), acceptHandler(j))
	s.AddTool(rejectTool(), rejectHandler(j))
	s.AddTool(reconstructTool(), reconstructHandler(j))
}

func conversationParam() mcp.ToolOption {
	return mcp.WithString("conversation_id",
		mcp.Description("Conversation the edit belongs to"),
		mcp.Required(),
	)
}

func pathParam(name, desc string) mcp.ToolOption {
	return mcp.WithString(name,
		mcp.Description(desc),
		mcp.Required(),
	)
}

// --- write_file ---

func writeFileTool() mcp.Tool {
	return mcp.NewTool("write_file",
		mcp.WithDescription("Create or overwrite a file. The change is journaled and can be rejected later."),
		conversationParam(),
		pathParam("file_path", "File to write, relative to the workspace"),
		mcp.WithString("content",
			mcp.Description("Full new content of the file"),
			mcp.Required(),
		),
	)
}

func writeFileHandler(j *commands.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewWriteFileCommand(j,
			req.GetString("conversation_id", ""),
			req.GetString("file_path", ""),
			[]byte(req.GetString("content", "")))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- edit_file ---

func editFileTool() mcp.Tool {
	return mcp.NewTool("edit_file",
		mcp.WithDescription("Replace text in an existing file. old_text must be unique unless replace_all is set."),
		conversationParam(),
		pathParam("file_path", "File to edit, relative to the workspace"),
		mcp.WithString("old_text",
			mcp.Description("Exact text to replace"),
			mcp.Required(),
		),
		mcp.WithString("new_text",
			mcp.Description("Replacement text"),
			mcp.Required(),
		),
		mcp.WithBoolean("replace_all",
			mcp.Description("Replace every occurrence"),
		),
	)
}

func editFileHandler(j *commands.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewEditFileCommand(j,
			req.GetString("conversation_id", ""),
			req.GetString("file_path", ""),
			req.GetString("old_text", ""),
			req.GetString("new_text", ""),
			req.GetBool("replace_all", false))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- delete_file ---

func deleteFileTool() mcp.Tool {
	return mcp.NewTool("delete_file",
		mcp.WithDescription("Delete a file. The file content is checkpointed so the deletion can be rejected."),
		conversationParam(),
		pathParam("file_path", "File to delete, relative to the workspace"),
	)
}

func deleteFileHandler(j *commands.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewDeleteFileCommand(j, req.GetString("conversation_id", ""), req.GetString("file_path", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- move_file ---

func moveFileTool() mcp.Tool {
	return mcp.NewTool("move_file",
		mcp.WithDescription("Rename a file. The destination must not exist."),
		conversationParam(),
		pathParam("source_path", "File to move, relative to the workspace"),
		pathParam("dest_path", "New path, relative to the workspace"),
	)
}

func moveFileHandler(j *commands.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewMoveFileCommand(j,
			req.GetString("conversation_id", ""),
			req.GetString("source_path", ""),
			req.GetString("dest_path", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- snapshot ---

func snapshotTool() mcp.Tool {
	return mcp.NewTool("snapshot",
		mcp.WithDescription("Checkpoint a file without changing it."),
		conversationParam(),
		pathParam("file_path", "File to checkpoint, relative to the workspace"),
	)
}

func snapshotHandler(j *commands.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewSnapshotCommand(j, req.GetString("conversation_id", ""), req.GetString("file_path", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- accept / reject ---

func selectorParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("edit_id",
			mcp.Description("Single edit to update. Give either this or conversation_id."),
		),
		mcp.WithString("conversation_id",
			mcp.Description("Update every eligible edit of this conversation"),
		),
	}
}

func acceptTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Mark pending edits as accepted. Files are not touched."),
	}, selectorParams()...)
	return mcp.NewTool("accept", opts...)
}

func acceptHandler(j *commands.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewAcceptCommand(j, req.GetString("edit_id", ""), req.GetString("conversation_id", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(withWarnings(result.Message, result.Warnings)), nil
	}
}

func rejectTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Reject edits and rebuild the files they touched from the remaining history."),
	}, selectorParams()...)
	opts = append(opts, mcp.WithBoolean("force",
		mcp.Description("Overwrite files that were changed outside the journal"),
	))
	return mcp.NewTool("reject", opts...)
}

func rejectHandler(j *commands.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewRejectCommand(j,
			req.GetString("edit_id", ""),
			req.GetString("conversation_id", ""),
			req.GetBool("force", false))
		result, err := cmd.Execute(ctx)
		if result == nil {
			return toolError(err)
		}

		msg := withWarnings(result.Message, result.Warnings)
		if err != nil {
			return mcp.NewToolResultError(msg + "\n" + formatFailures(j, err)), nil
		}
		return mcp.NewToolResultText(msg), nil
	}
}

// --- reconstruct ---

func reconstructTool() mcp.Tool {
	return mcp.NewTool("reconstruct",
		mcp.WithDescription("Rebuild a file from the surviving edits of a conversation."),
		conversationParam(),
		pathParam("file_path", "File to rebuild, relative to the workspace"),
		mcp.WithBoolean("force",
			mcp.Description("Overwrite the file even if it was changed outside the journal"),
		),
	)
}

func reconstructHandler(j *commands.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewReconstructCommand(j,
			req.GetString("conversation_id", ""),
			req.GetString("file_path", ""),
			req.GetBool("force", false))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(withWarnings(result.Message, result.Warnings)), nil
	}
}

func withWarnings(msg string, warnings []string) string {
	if len(warnings) == 0 {
		return msg
	}
	return msg + "\nwarning: " + strings.Join(warnings, "\nwarning: ")
}

func formatFailures(j *commands.Journal, err error) string {
	var recErr *application.ReconstructionError
	if !errors.As(err, &recErr) {
		return err.Error()
	}
	lines := make([]string, 0, len(recErr.Failures))
	for _, f := range recErr.Failures {
		lines = append(lines, fmt.Sprintf("%s: %v", j.Layout.Rel(f.FilePath), f.Err))
	}
	return strings.Join(lines, "\n")
}
