package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mcpdiff/internal/application"
	"mcpdiff/internal/application/commands"
)

var (
	reviewEditID string
	reviewConv   string
	rejectForce  bool
)

var acceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "Mark pending edits as accepted",
	Long: `Mark a pending edit, or every pending edit of a conversation, as accepted.
Files are not touched.

Examples:
  mcpdiff accept --edit-id 0b7d2c4e-1c9a-4f57-9d43-0b0f5c9f7c11
  mcpdiff accept --conv 5f1c`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := commands.NewAcceptCommand(GetJournal(), reviewEditID, reviewConv)
		result, err := c.Execute(context.Background())
		if err != nil {
			return err
		}
		printWarnings(result.Warnings)
		fmt.Println(result.Message)
		return nil
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Reject edits and rebuild the files they touched",
	Long: `Reject an edit, or every pending and accepted edit of a conversation,
then rebuild each affected file from the edits that remain.

Reconstruction refuses to overwrite a file changed outside the journal
since it was last rebuilt; --force overrides that check.

Examples:
  mcpdiff reject --edit-id 0b7d2c4e-1c9a-4f57-9d43-0b0f5c9f7c11
  mcpdiff reject --conv 5f1c --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		j := GetJournal()
		c := commands.NewRejectCommand(j, reviewEditID, reviewConv, rejectForce)
		result, err := c.Execute(context.Background())
		if result == nil {
			return err
		}
		printWarnings(result.Warnings)
		fmt.Println(result.Message)

		var recErr *application.ReconstructionError
		if errors.As(err, &recErr) {
			for _, f := range recErr.Failures {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", j.Layout.Rel(f.FilePath), f.Err)
			}
			if errors.Is(err, application.ErrExternalModification) && !rejectForce {
				fmt.Fprintln(os.Stderr, "rerun with --force to overwrite local changes")
			}
		}
		return err
	},
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func init() {
	for _, c := range []*cobra.Command{acceptCmd, rejectCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVar(&reviewEditID, "edit-id", "", "single edit to update")
		c.Flags().StringVar(&reviewConv, "conv", "", "update every eligible edit of this conversation")
		c.MarkFlagsMutuallyExclusive("edit-id", "conv")
		c.MarkFlagsOneRequired("edit-id", "conv")
	}
	rejectCmd.Flags().BoolVar(&rejectForce, "force", false, "overwrite files changed outside the journal")
}
