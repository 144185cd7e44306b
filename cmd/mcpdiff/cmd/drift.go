package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"mcpdiff/internal/application/commands"
)

var driftFile, driftConv string

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Compare a file with its newest checkpoint",
	Long: `Show a line diff between the newest checkpoint of a file and its
current content.

Examples:
  mcpdiff drift --file src/main.go
  mcpdiff drift --file src/main.go --conv 5f1c`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := commands.NewDriftCommand(GetJournal(), driftFile, driftConv)
		result, err := c.Execute(context.Background())
		if err != nil {
			return err
		}

		fmt.Println(result.Message)
		for _, l := range result.Lines {
			switch l.Kind {
			case commands.LineAdded:
				fmt.Println(addedStyle.Render("+" + l.Text))
			case commands.LineRemoved:
				fmt.Println(removedStyle.Render("-" + l.Text))
			default:
				fmt.Println(" " + l.Text)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(driftCmd)
	driftCmd.Flags().StringVar(&driftFile, "file", "", "file to compare")
	driftCmd.Flags().StringVar(&driftConv, "conv", "", "only consider checkpoints of this conversation")
	driftCmd.MarkFlagRequired("file")
}
