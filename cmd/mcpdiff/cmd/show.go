package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mcpdiff/internal/application/commands"
)

var showCmd = &cobra.Command{
	Use:   "show <edit-id|conversation-id>",
	Short: "Show the diff of an edit or a whole conversation",
	Long: `Show the recorded diff of a single edit, or of every edit in a
conversation in chronological order. Edit ids are tried first.

Examples:
  mcpdiff show 0b7d2c4e-1c9a-4f57-9d43-0b0f5c9f7c11
  mcpdiff show 5f1c`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j := GetJournal()
		result, err := commands.NewShowCommand(j, args[0]).Execute(context.Background())
		if err != nil {
			return err
		}

		for _, s := range result.Entries {
			v := newEntryView(j.Layout, s.Entry)
			path := v.FilePath
			if v.SourcePath != "" {
				path = v.SourcePath + " -> " + path
			}
			fmt.Printf("# %s %s %s [%s]\n", v.EditID, v.Operation, path, v.Status)
			if len(s.Diff) > 0 {
				os.Stdout.Write(s.Diff)
				if s.Diff[len(s.Diff)-1] != '\n' {
					fmt.Println()
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
