package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"mcpdiff/internal/adapters/editor"
	"mcpdiff/internal/adapters/tui"
	"mcpdiff/internal/bootstrap"
	"mcpdiff/internal/config"
)

func main() {
	workspaceFlag := flag.String("workspace", "", "workspace root (default: nearest parent with .mcp)")
	flag.Parse()

	cfg, err := config.Load(*workspaceFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs are dropped
	journal, closeIndex, err := bootstrap.Open(cfg, bootstrap.DiscardLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeIndex()

	app := tui.NewApp(journal, editor.NewOpener())

	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
