package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mcpdiff/internal/application/commands"
	"mcpdiff/internal/bootstrap"
	"mcpdiff/internal/config"
)

var (
	workspacePath string
	logLevel      string

	cfg        *config.Config
	journal    *commands.Journal
	closeIndex func() error
)

var rootCmd = &cobra.Command{
	Use:   "mcpdiff",
	Short: "Review and reject edits recorded per conversation",
	Long: `mcpdiff inspects the edit journal kept under .mcp/edit_history.

Every file change made through the journal is logged per conversation with
a diff and, on first touch, a checkpoint of the previous content. Edits can
be accepted, or rejected, in which case the affected files are rebuilt from
the edits that remain.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger, err := bootstrap.NewLogger(os.Stderr, logLevel)
		if err != nil {
			return err
		}
		cfg, err = config.Load(workspacePath)
		if err != nil {
			return err
		}
		journal, closeIndex, err = bootstrap.Open(cfg, logger)
		return err
	},
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	if closeIndex != nil {
		closeIndex()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspacePath, "workspace", "w", "", "workspace root (default: nearest parent with .mcp)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
}

// GetJournal returns the initialized journal
func GetJournal() *commands.Journal {
	return journal
}
