package cli

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question session",
	Long: `Ask questions one after another in the same session, so follow-up
questions can refer to earlier answers.

Commands:
  /history  - show the conversation so far
  /new      - start a new session
  /exit     - quit (Ctrl-D also works)`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "session id to continue")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := requireQuery(); err != nil {
		return err
	}

	st := stylesFor(cmd.OutOrStdout())
	interactive := isTerminal(cmd.InOrStdin())
	sessionID := chatSessionID

	if interactive {
		cmd.Println(st.Title.Render("ragent chat"))
		cmd.Println(st.Muted.Render("Type /exit to quit."))
		cmd.Println()
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		if interactive {
			cmd.Print(st.Prompt.Render("you> "))
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/new":
			sessionID = ""
			cmd.Println(st.Muted.Render("Started a new session."))
			continue
		case "/history":
			if err := printHistory(cmd, st, sessionID, 0); err != nil {
				cmd.Println(st.Error.Render("Error: " + err.Error()))
			}
			continue
		}

		resp, err := queryService.Ask(cmd.Context(), domain.QueryRequest{Query: line, SessionID: sessionID})
		if err != nil {
			if cmd.Context().Err() != nil {
				return nil
			}
			cmd.Println(st.Error.Render("Error: " + err.Error()))
			continue
		}
		sessionID = resp.SessionID
		printAnswer(cmd, st, resp)
		cmd.Println()
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	if sessionID != "" {
		cmd.Println(st.Muted.Render("Session: " + sessionID))
	}
	return nil
}
