package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"mcpdiff/internal/application/commands"
	"mcpdiff/internal/domain"
)

var (
	statusConv   string
	statusFile   string
	statusStatus string
	statusLimit  int
	statusFormat string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List recorded edits",
	Long: `List recorded edits across conversations, oldest first.

Filters combine. With --limit only the newest entries are shown; the
default comes from status.limit in the configuration.

Examples:
  mcpdiff status
  mcpdiff status --conv 5f1c --status pending
  mcpdiff status --file 'src/**/*.go' --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := domain.EntryFilter{
			ConversationID: statusConv,
			FileGlob:       statusFile,
			Limit:          cfg.StatusLimit,
		}
		if cmd.Flags().Changed("limit") {
			filter.Limit = statusLimit
		}
		if statusStatus != "" {
			s, err := domain.ParseStatus(statusStatus)
			if err != nil {
				return err
			}
			filter.Status = &s
		}

		j := GetJournal()
		result, err := commands.NewListEntriesCommand(j, filter).Execute(context.Background())
		if err != nil {
			return err
		}
		view := newStatusView(j.Layout, result.Entries, result.Counts)
		return writeStatus(os.Stdout, statusFormat, view, result.Message)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusConv, "conv", "", "only entries of this conversation")
	statusCmd.Flags().StringVar(&statusFile, "file", "", "glob over workspace-relative paths")
	statusCmd.Flags().StringVar(&statusStatus, "status", "", "pending, accepted or rejected")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 0, "show only the newest N entries (0 for all)")
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "table", "output format: table, json, yaml")
}
