package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "mcpdiff/internal/adapters/mcp"
	"mcpdiff/internal/bootstrap"
	"mcpdiff/internal/config"
)

func main() {
	workspaceFlag := flag.String("workspace", "", "workspace root (default: nearest parent with .mcp)")
	levelFlag := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	// stdout carries the protocol; logs go to stderr
	logger, err := bootstrap.NewLogger(os.Stderr, *levelFlag)
	if err != nil {
		log.Fatalf("mcpdiff-mcp: %v", err)
	}

	cfg, err := config.Load(*workspaceFlag)
	if err != nil {
		log.Fatalf("mcpdiff-mcp: %v", err)
	}

	journal, closeIndex, err := bootstrap.Open(cfg, logger)
	if err != nil {
		log.Fatalf("mcpdiff-mcp: %v", err)
	}
	defer closeIndex()

	mcpServer := server.NewMCPServer(
		"mcpdiff-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, journal)
	mcpadapter.RegisterWriteTools(mcpServer, journal)

	logger.Info("serving", "workspace", cfg.Layout.WorkspaceRoot)
	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("mcpdiff-mcp: %v", err)
	}
}
