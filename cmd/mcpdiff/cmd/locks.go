package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mcpdiff/internal/application/commands"
)

var pruneOlderThan time.Duration

var locksCmd = &cobra.Command{
	Use:   "locks",
	Short: "Manage advisory lock files",
}

var locksPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove lock files no process holds",
	Long: `Remove lock files under .mcp/edit_history/locks that no running
process holds. Files touched more recently than --older-than are kept.

Examples:
  mcpdiff locks prune
  mcpdiff locks prune --older-than 1h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := commands.NewPruneLocksCommand(GetJournal(), pruneOlderThan)
		result, err := c.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(locksCmd)
	locksCmd.AddCommand(locksPruneCmd)
	locksPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "minimum age of a lock file")
}
