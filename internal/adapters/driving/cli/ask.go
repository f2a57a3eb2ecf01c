package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

var (
	askSessionID string
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about your documents",
	Long: `Answer one question using only the indexed documents.

Pass --session to continue a conversation; the session id is printed with
every answer. When no indexed content is relevant, ragent says so instead of
guessing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSessionID, "session", "s", "", "session id to continue")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireQuery(); err != nil {
		return err
	}

	resp, err := queryService.Ask(cmd.Context(), domain.QueryRequest{
		Query:     strings.Join(args, " "),
		SessionID: askSessionID,
	})
	if err != nil {
		return err
	}

	if askJSON {
		if resp.Sources == nil {
			resp.Sources = []string{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	printAnswer(cmd, stylesFor(cmd.OutOrStdout()), resp)
	cmd.Println(stylesFor(cmd.OutOrStdout()).Muted.Render("Session: " + resp.SessionID))
	return nil
}

// printAnswer writes the answer followed by its sources.
func printAnswer(cmd *cobra.Command, st styles, resp *domain.QueryResponse) {
	cmd.Println(st.Answer.Render(resp.Answer))
	if len(resp.Sources) > 0 {
		cmd.Println(st.Muted.Render("Sources: " + strings.Join(resp.Sources, ", ")))
	}
}
