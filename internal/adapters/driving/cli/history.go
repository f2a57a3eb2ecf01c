package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Show the turns stored for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireQuery(); err != nil {
			return err
		}
		return printHistory(cmd, stylesFor(cmd.OutOrStdout()), args[0], historyLimit)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum number of turns (default: the whole window)")
	rootCmd.AddCommand(historyCmd)
}

// printHistory prints up to limit turns; zero means the retained window.
func printHistory(cmd *cobra.Command, st styles, sessionID string, limit int) error {
	if sessionID == "" {
		return errors.New("no session yet")
	}
	if limit <= 0 {
		limit = domain.DefaultHistoryWindow
		if settingsService != nil {
			if s, err := settingsService.Get(); err == nil {
				limit = s.Session.HistoryWindow
			}
		}
	}

	turns, err := queryService.History(cmd.Context(), sessionID, limit)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		cmd.Println("No turns stored for this session.")
		return nil
	}

	for _, t := range turns {
		label := "User"
		if t.Role == domain.RoleAssistant {
			label = "Assistant"
		}
		cmd.Println(st.Prompt.Render(fmt.Sprintf("[%d] %s", t.Index, label)) + " " +
			st.Muted.Render(t.Timestamp.Format("2006-01-02 15:04:05")))
		cmd.Println(st.Answer.Render(t.Content))
	}
	return nil
}
