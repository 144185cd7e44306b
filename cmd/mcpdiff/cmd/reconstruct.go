package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mcpdiff/internal/application/commands"
)

var (
	reconstructConv  string
	reconstructFile  string
	reconstructForce bool
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct",
	Short: "Rebuild a file from the surviving edits of a conversation",
	Long: `Rebuild a file from its earliest checkpoint in the conversation and
the pending and accepted edits recorded after it.

Examples:
  mcpdiff reconstruct --conv 5f1c --file src/main.go
  mcpdiff reconstruct --conv 5f1c --file src/main.go --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := commands.NewReconstructCommand(GetJournal(), reconstructConv, reconstructFile, reconstructForce)
		result, err := c.Execute(context.Background())
		if result == nil {
			return err
		}
		printWarnings(result.Warnings)
		fmt.Println(result.Message)
		return err
	},
}

var snapshotConv, snapshotFile string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Checkpoint a file without changing it",
	Long: `Record the current content of a file as a checkpoint in a conversation.
The checkpoint can serve as the baseline for later reconstructions.

Example:
  mcpdiff snapshot --conv 5f1c --file src/main.go`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := commands.NewSnapshotCommand(GetJournal(), snapshotConv, snapshotFile)
		result, err := c.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconstructCmd)
	reconstructCmd.Flags().StringVar(&reconstructConv, "conv", "", "conversation to replay")
	reconstructCmd.Flags().StringVar(&reconstructFile, "file", "", "file to rebuild")
	reconstructCmd.Flags().BoolVar(&reconstructForce, "force", false, "overwrite a file changed outside the journal")
	reconstructCmd.MarkFlagRequired("conv")
	reconstructCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVar(&snapshotConv, "conv", "", "conversation to record the checkpoint in")
	snapshotCmd.Flags().StringVar(&snapshotFile, "file", "", "file to checkpoint")
	snapshotCmd.MarkFlagRequired("conv")
	snapshotCmd.MarkFlagRequired("file")
}
