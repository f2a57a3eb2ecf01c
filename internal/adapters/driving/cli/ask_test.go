package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask <question>", askCmd.Use)
}

func TestAskCmd_RequiresQuestion(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "", "ask")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestAskCmd_PrintsAnswer(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()
	ts.query.answers = []*domain.QueryResponse{{
		Answer: "Refunds take 14 days [1].", Sources: []string{"policy.md", "faq.md"}, SessionID: "s1",
	}}

	out, err := execute(t, "", "ask", "--session", "s1", "how", "long", "do", "refunds", "take?")

	require.NoError(t, err)
	assert.Contains(t, out, "Refunds take 14 days [1].")
	assert.Contains(t, out, "Sources: policy.md, faq.md")
	assert.Contains(t, out, "Session: s1")
	require.Len(t, ts.query.requests, 1)
	assert.Equal(t, domain.QueryRequest{Query: "how long do refunds take?", SessionID: "s1"}, ts.query.requests[0])
	askSessionID = ""
}

func TestAskCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute(t, "", "ask", "--json", "weather?")
	askJSON = false

	require.NoError(t, err)
	var resp domain.QueryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, domain.RefusalAnswer, resp.Answer)
	assert.NotNil(t, resp.Sources)
}

func TestAskCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()
	ts.query.err = errors.New("generation failed: timeout")

	_, err := execute(t, "", "ask", "refunds?")

	assert.ErrorContains(t, err, "generation failed")
}

func TestChatCmd_KeepsSession(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()
	ts.query.answers = []*domain.QueryResponse{
		{Answer: "14 days.", Sources: []string{"policy.md"}, SessionID: "s9"},
		{Answer: "Yes, with a receipt.", Sources: []string{"policy.md"}, SessionID: "s9"},
	}

	out, err := execute(t, "refund time?\n\nand a receipt?\n/exit\nignored\n", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "14 days.")
	assert.Contains(t, out, "Yes, with a receipt.")
	require.Len(t, ts.query.requests, 2)
	assert.Equal(t, "", ts.query.requests[0].SessionID)
	assert.Equal(t, "s9", ts.query.requests[1].SessionID)
}

func TestChatCmd_NewSession(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()
	ts.query.answers = []*domain.QueryResponse{{Answer: "ok", SessionID: "s1"}}

	out, err := execute(t, "first\n/new\nsecond\n", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "Started a new session.")
	require.Len(t, ts.query.requests, 2)
	assert.Equal(t, "", ts.query.requests[1].SessionID)
}

func TestHistoryCmd(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()
	ts.query.turns = []domain.SessionTurn{
		{Index: 4, Role: domain.RoleUser, Content: "refund time?"},
		{Index: 5, Role: domain.RoleAssistant, Content: "14 days."},
	}

	out, err := execute(t, "", "history", "s1")

	require.NoError(t, err)
	assert.Contains(t, out, "[4] User")
	assert.Contains(t, out, "[5] Assistant")
	assert.Contains(t, out, "14 days.")
	assert.Equal(t, domain.DefaultHistoryWindow, ts.query.lastMax)
}

func TestHistoryCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute(t, "", "history", "unknown")

	require.NoError(t, err)
	assert.Contains(t, out, "No turns stored")
}
