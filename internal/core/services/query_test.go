package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/config/file"
	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/storage/memory"
	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

type queryFixture struct {
	svc      *QueryService
	embedder *mockEmbedder
	index    *failingIndex
	sessions *SessionService
	llm      *mockLLM
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()
	f := &queryFixture{
		embedder: newMockEmbedder(),
		index:    &failingIndex{VectorIndex: memory.NewVectorIndex(3)},
		sessions: NewSessionService(memory.NewSessionStore(), 10),
		llm:      &mockLLM{answer: "Refunds take 14 days [1]."},
	}
	f.embedder.vectors = map[string][]float32{
		"refund":  {1, 0, 0},
		"weather": {0, 0, 1},
	}
	f.svc = NewQueryService(f.embedder, f.index, f.sessions, f.llm,
		memory.NewPromptStore(file.DefaultPrompts()),
		QueryConfig{TopK: 4, SimilarityThreshold: 0.5, MaxTokens: 256})
	return f
}

func (f *queryFixture) seed(t *testing.T, records ...domain.IndexRecord) {
	t.Helper()
	require.NoError(t, f.index.Upsert(context.Background(), records))
}

func record(doc string, idx int, content string, vec ...float32) domain.IndexRecord {
	return domain.IndexRecord{
		Key:     domain.RecordKey{DocumentID: doc, ChunkIndex: idx},
		Vector:  vec,
		Content: content,
	}
}

func TestQueryService_Ask_RefusesWithoutContext(t *testing.T) {
	f := newQueryFixture(t)
	f.seed(t, record("policy.md", 0, "Refunds take 14 days.", 1, 0, 0))
	ctx := context.Background()

	resp, err := f.svc.Ask(ctx, domain.QueryRequest{Query: "what is the weather?", SessionID: "s1"})

	require.NoError(t, err)
	assert.Equal(t, domain.RefusalAnswer, resp.Answer)
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
	assert.True(t, resp.Refused())
	assert.Equal(t, "s1", resp.SessionID)
	assert.Zero(t, f.llm.calls, "no generation call without context")

	history, err := f.svc.History(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, history, "refusal leaves memory untouched")
}

func TestQueryService_Ask_EmptyIndexRefuses(t *testing.T) {
	f := newQueryFixture(t)

	resp, err := f.svc.Ask(context.Background(), domain.QueryRequest{Query: "refund policy?"})

	require.NoError(t, err)
	assert.True(t, resp.Refused())
}

func TestQueryService_Ask_Grounded(t *testing.T) {
	f := newQueryFixture(t)
	f.seed(t,
		record("policy.md", 0, "Refunds take 14 days.", 1, 0, 0),
		record("faq.md", 2, "Ask support for a refund.", 0.9, 0.1, 0),
		record("policy.md", 1, "Refunds need a receipt.", 0.8, 0.2, 0),
		record("weather.md", 0, "Sunny.", 0, 0, 1),
	)
	ctx := context.Background()

	resp, err := f.svc.Ask(ctx, domain.QueryRequest{Query: "How long does a refund take?"})

	require.NoError(t, err)
	assert.Equal(t, "Refunds take 14 days [1].", resp.Answer)
	assert.Equal(t, []string{"policy.md", "faq.md"}, resp.Sources)
	_, err = uuid.Parse(resp.SessionID)
	assert.NoError(t, err, "a new session id is assigned")

	messages := f.llm.lastMessages()
	require.Len(t, messages, 2)
	assert.Equal(t, driven.ChatRoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, domain.RefusalAnswer)
	assert.Equal(t, driven.ChatRoleUser, messages[1].Role)
	assert.Contains(t, messages[1].Content, "[1] policy.md (chunk 0)\nRefunds take 14 days.")
	assert.Contains(t, messages[1].Content, "[3] policy.md (chunk 1)")
	assert.NotContains(t, messages[1].Content, "Sunny.")
	assert.Contains(t, messages[1].Content, "How long does a refund take?")

	history, err := f.svc.History(ctx, resp.SessionID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "How long does a refund take?", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, resp.Answer, history[1].Content)
}

func TestQueryService_Ask_IncludesHistory(t *testing.T) {
	f := newQueryFixture(t)
	f.seed(t, record("policy.md", 0, "Refunds take 14 days.", 1, 0, 0))
	ctx := context.Background()

	first, err := f.svc.Ask(ctx, domain.QueryRequest{Query: "refund time?", SessionID: "s1"})
	require.NoError(t, err)
	_, err = f.svc.Ask(ctx, domain.QueryRequest{Query: "and the refund receipt?", SessionID: "s1"})
	require.NoError(t, err)

	prompt := f.llm.lastMessages()[1].Content
	assert.Contains(t, prompt, "User: refund time?\nAssistant: "+first.Answer)
}

func TestQueryService_Ask_TopK(t *testing.T) {
	f := newQueryFixture(t)
	f.svc.cfg.TopK = 1
	f.seed(t,
		record("a.md", 0, "refund a", 1, 0, 0),
		record("b.md", 0, "refund b", 0.9, 0.1, 0),
	)

	resp, err := f.svc.Ask(context.Background(), domain.QueryRequest{Query: "refund?"})

	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, resp.Sources)
}

func TestQueryService_Ask_GenerationFailure(t *testing.T) {
	f := newQueryFixture(t)
	f.seed(t, record("policy.md", 0, "Refunds take 14 days.", 1, 0, 0))
	f.llm.err = errors.New("context deadline exceeded")
	ctx := context.Background()

	resp, err := f.svc.Ask(ctx, domain.QueryRequest{Query: "refund?", SessionID: "s1"})

	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, domain.ErrGenerationFailed))
	history, err := f.svc.History(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestQueryService_Ask_PreGenerationFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *queryFixture)
		cause error
	}{
		{
			name: "embedding",
			setup: func(f *queryFixture) {
				f.embedder.err = &domain.ProviderError{Kind: domain.ErrProviderUnavailable, Err: errors.New("timeout")}
			},
			cause: domain.ErrProviderUnavailable,
		},
		{
			name:  "search",
			setup: func(f *queryFixture) { f.index.searchErr = errors.New("disk I/O error") },
		},
		{
			name:  "dimension mismatch",
			setup: func(f *queryFixture) { f.embedder.vectors["refund"] = []float32{1, 0} },
			cause: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQueryFixture(t)
			f.seed(t, record("policy.md", 0, "Refunds take 14 days.", 1, 0, 0))
			tt.setup(f)

			_, err := f.svc.Ask(context.Background(), domain.QueryRequest{Query: "refund?"})

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrQueryFailed))
			if tt.cause != nil {
				assert.True(t, errors.Is(err, tt.cause))
			}
			assert.Zero(t, f.llm.calls)
		})
	}
}

func TestQueryService_Ask_EmptyQuery(t *testing.T) {
	f := newQueryFixture(t)

	_, err := f.svc.Ask(context.Background(), domain.QueryRequest{Query: "   "})

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Zero(t, f.embedder.callCount())
}

func TestQueryService_Ask_MissingPrompt(t *testing.T) {
	f := newQueryFixture(t)
	f.seed(t, record("policy.md", 0, "Refunds take 14 days.", 1, 0, 0))
	f.svc.prompts = memory.NewPromptStore(nil)

	_, err := f.svc.Ask(context.Background(), domain.QueryRequest{Query: "refund?"})

	assert.True(t, errors.Is(err, domain.ErrQueryFailed))
}

func TestQueryService_History_RequiresSession(t *testing.T) {
	f := newQueryFixture(t)

	_, err := f.svc.History(context.Background(), "", 5)

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSourceIDs(t *testing.T) {
	matches := []domain.ScoredRecord{
		{Record: record("b", 0, "")},
		{Record: record("a", 1, "")},
		{Record: record("b", 3, "")},
	}

	assert.Equal(t, []string{"b", "a"}, sourceIDs(matches))
	assert.Empty(t, sourceIDs(nil))
}
