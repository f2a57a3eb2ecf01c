package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the grounded answer", func(t *testing.T) {
		q := &mockQueryService{response: &domain.QueryResponse{
			Answer:    "Refunds take 14 days [1].",
			Sources:   []string{"policy.md"},
			SessionID: "s1",
		}}
		server, err := newTestServer(q, &mockIngestionService{})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Query: "refunds?", SessionID: "s1"})

		require.NoError(t, err)
		assert.Equal(t, "Refunds take 14 days [1].", output.Answer)
		assert.Equal(t, []string{"policy.md"}, output.Sources)
		assert.Equal(t, "s1", output.SessionID)
		assert.Equal(t, domain.QueryRequest{Query: "refunds?", SessionID: "s1"}, q.lastReq)
	})

	t.Run("refusal has empty sources", func(t *testing.T) {
		q := &mockQueryService{response: &domain.QueryResponse{Answer: domain.RefusalAnswer, SessionID: "s2"}}
		server, err := newTestServer(q, &mockIngestionService{})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Query: "weather?"})

		require.NoError(t, err)
		assert.Equal(t, domain.RefusalAnswer, output.Answer)
		assert.NotNil(t, output.Sources)
		assert.Empty(t, output.Sources)
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		q := &mockQueryService{err: domain.ErrGenerationFailed}
		server, err := newTestServer(q, &mockIngestionService{})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Query: "refunds?"})

		assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes inline content", func(t *testing.T) {
		ing := &mockIngestionService{status: &domain.IngestionStatus{
			DocumentID: "notes", State: domain.IngestionComplete, ChunkCount: 2,
		}}
		server, err := newTestServer(&mockQueryService{}, ing)
		require.NoError(t, err)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{ID: "notes", Content: "hello"})

		require.NoError(t, err)
		assert.Equal(t, IngestOutput{DocumentID: "notes", State: "complete", Chunks: 2}, output)
		assert.Equal(t, "text/plain", ing.lastRaw.MIMEType)
		assert.Equal(t, []byte("hello"), ing.lastRaw.Content)
	})

	t.Run("reads a local file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "guide.md")
		require.NoError(t, os.WriteFile(path, []byte("# Guide"), 0o600))
		ing := &mockIngestionService{status: &domain.IngestionStatus{DocumentID: "guide.md", State: domain.IngestionComplete}}
		server, err := newTestServer(&mockQueryService{}, ing)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Path: path})

		require.NoError(t, err)
		assert.Equal(t, "guide.md", ing.lastRaw.ID)
		assert.Equal(t, "text/markdown", ing.lastRaw.MIMEType)
		assert.Equal(t, path, ing.lastRaw.URI)
	})

	t.Run("failed document is reported in the output", func(t *testing.T) {
		ing := &mockIngestionService{
			status: &domain.IngestionStatus{DocumentID: "x", State: domain.IngestionFailed, Reason: "extraction failed"},
			err:    domain.ErrExtractionFailed,
		}
		server, err := newTestServer(&mockQueryService{}, ing)
		require.NoError(t, err)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{ID: "x", Content: "?", MIMEType: "image/png"})

		require.NoError(t, err)
		assert.Equal(t, "failed", output.State)
		assert.Equal(t, "extraction failed", output.Reason)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		tests := []struct {
			name  string
			input IngestInput
		}{
			{"nothing", IngestInput{}},
			{"content without id", IngestInput{Content: "text"}},
			{"both", IngestInput{ID: "a", Content: "text", Path: "/tmp/a"}},
			{"missing file", IngestInput{Path: filepath.Join(t.TempDir(), "missing.txt")}},
		}
		server, err := newTestServer(&mockQueryService{}, &mockIngestionService{})
		require.NoError(t, err)

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, _, err := server.handleIngest(ctx, nil, tt.input)
				assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			})
		}
	})
}

func TestServer_handleHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("returns turns oldest first", func(t *testing.T) {
		q := &mockQueryService{turns: []domain.SessionTurn{
			{SessionID: "s1", Index: 0, Role: domain.RoleUser, Content: "hi"},
			{SessionID: "s1", Index: 1, Role: domain.RoleAssistant, Content: "hello"},
		}}
		server, err := newTestServer(q, &mockIngestionService{})
		require.NoError(t, err)

		_, output, err := server.handleHistory(ctx, nil, HistoryInput{SessionID: "s1"})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, TurnOutput{Index: 0, Role: "user", Content: "hi"}, output.Turns[0])
		assert.Equal(t, "assistant", output.Turns[1].Role)
		assert.Equal(t, defaultHistoryTurns, q.lastMax)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		q := &mockQueryService{err: domain.ErrInvalidInput}
		server, err := newTestServer(q, &mockIngestionService{})
		require.NoError(t, err)

		_, _, err = server.handleHistory(ctx, nil, HistoryInput{Limit: 3})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Equal(t, 3, q.lastMax)
	})
}
