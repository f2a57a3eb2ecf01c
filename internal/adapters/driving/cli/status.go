package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [document-id]",
	Short: "Show ingestion status",
	Long:  `Show the latest ingestion state of one document, or of every known document.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := requireIngestion(); err != nil {
		return err
	}
	st := stylesFor(cmd.OutOrStdout())

	if len(args) == 1 {
		s, err := ingestionService.Status(cmd.Context(), args[0])
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %s has not been ingested", args[0])
		}
		if err != nil {
			return err
		}
		cmd.Printf("Document: %s\n", s.DocumentID)
		cmd.Printf("State:    %s\n", renderState(st, s.State))
		if s.Reason != "" {
			cmd.Printf("Reason:   %s\n", s.Reason)
		}
		cmd.Printf("Chunks:   %d\n", s.ChunkCount)
		if !s.UpdatedAt.IsZero() {
			cmd.Printf("Updated:  %s\n", s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	}

	statuses, err := ingestionService.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		cmd.Println("No documents ingested yet.")
		return nil
	}

	cmd.Println(st.Title.Render(fmt.Sprintf("%-40s  %-10s  %6s", "DOCUMENT", "STATE", "CHUNKS")))
	for _, s := range statuses {
		line := fmt.Sprintf("%-40s  %s  %6d", s.DocumentID, renderState(st, s.State), s.ChunkCount)
		if s.Reason != "" {
			line += "  " + st.Muted.Render(s.Reason)
		}
		cmd.Println(line)
	}
	return nil
}

func renderState(st styles, state domain.IngestionState) string {
	text := fmt.Sprintf("%-10s", state)
	switch state {
	case domain.IngestionComplete:
		return st.Success.Render(text)
	case domain.IngestionFailed:
		return st.Error.Render(text)
	default:
		return st.Warning.Render(text)
	}
}
