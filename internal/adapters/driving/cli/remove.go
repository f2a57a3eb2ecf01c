package cli

import (
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <document-id>",
	Short: "Remove a document from the index",
	Long:  `Delete every indexed chunk of a document along with its ingestion status.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireIngestion(); err != nil {
			return err
		}
		if err := ingestionService.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Removed %s.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
