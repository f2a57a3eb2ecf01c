package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driving"
	"github.com/vippawar1104/RAG-agent/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryConfig holds retrieval and generation parameters.
type QueryConfig struct {
	TopK                int
	SimilarityThreshold float64
	MaxTokens           int
}

// QueryService answers questions strictly from retrieved document content.
// Asks on the same session run one at a time so each sees the previous
// exchange in its history.
type QueryService struct {
	embedder driven.EmbeddingClient
	index    driven.VectorIndex
	sessions *SessionService
	llm      driven.LLMService
	prompts  driven.PromptStore
	cfg      QueryConfig
	locks    *keyedMutex
}

// NewQueryService creates a query orchestrator.
func NewQueryService(
	embedder driven.EmbeddingClient,
	index driven.VectorIndex,
	sessions *SessionService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg QueryConfig,
) *QueryService {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	return &QueryService{
		embedder: embedder,
		index:    index,
		sessions: sessions,
		llm:      llm,
		prompts:  prompts,
		cfg:      cfg,
		locks:    newKeyedMutex(),
	}
}

// Ask answers one query. With no chunk above the similarity threshold the
// answer is domain.RefusalAnswer, no generation call is made and session
// memory is left unchanged.
func (s *QueryService) Ask(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	matches, err := s.retrieve(ctx, query)
	if errors.Is(err, domain.ErrNoRelevantContext) {
		logger.Debug("query: no relevant context session_id=%s", sessionID)
		return &domain.QueryResponse{
			Answer:    domain.RefusalAnswer,
			Sources:   []string{},
			SessionID: sessionID,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	history, err := s.sessions.History(ctx, sessionID, s.sessions.Window())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}

	messages, err := s.buildMessages(matches, history, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}

	answer, err := s.llm.Chat(ctx, messages, driven.ChatOptions{MaxTokens: s.cfg.MaxTokens})
	if err != nil {
		logger.Error("query: generation failed session_id=%s model=%s: %v", sessionID, s.llm.ModelName(), err)
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	answer = strings.TrimSpace(answer)

	if err := s.sessions.AppendExchange(ctx, sessionID, query, answer); err != nil {
		return nil, fmt.Errorf("%w: recording exchange: %w", domain.ErrQueryFailed, err)
	}

	return &domain.QueryResponse{
		Answer:    answer,
		Sources:   sourceIDs(matches),
		SessionID: sessionID,
	}, nil
}

// retrieve embeds the query and searches the index. An empty result is
// reported as domain.ErrNoRelevantContext.
func (s *QueryService) retrieve(ctx context.Context, query string) ([]domain.ScoredRecord, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", domain.ErrQueryFailed, err)
	}

	matches, err := s.index.Search(ctx, vector, s.cfg.TopK, s.cfg.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: searching index: %w", domain.ErrQueryFailed, err)
	}
	if len(matches) == 0 {
		return nil, domain.ErrNoRelevantContext
	}

	logger.Debug("query: retrieved %d chunks, best similarity %.3f", len(matches), matches[0].Similarity)
	return matches, nil
}

// History returns up to maxTurns recent turns of a session, oldest first.
func (s *QueryService) History(ctx context.Context, sessionID string, maxTurns int) ([]domain.SessionTurn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	return s.sessions.History(ctx, sessionID, maxTurns)
}

func (s *QueryService) buildMessages(
	matches []domain.ScoredRecord,
	history []domain.SessionTurn,
	query string,
) ([]driven.ChatMessage, error) {
	system, err := s.prompts.Load(driven.PromptGroundedSystem)
	if err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}
	layout, err := s.prompts.Load(driven.PromptGroundedAnswer)
	if err != nil {
		return nil, fmt.Errorf("load answer prompt: %w", err)
	}

	return []driven.ChatMessage{
		{Role: driven.ChatRoleSystem, Content: system},
		{Role: driven.ChatRoleUser, Content: fmt.Sprintf(layout, formatExcerpts(matches), formatHistory(history), query)},
	}, nil
}

// formatExcerpts numbers chunks in similarity order.
func formatExcerpts(matches []domain.ScoredRecord) string {
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s (chunk %d)\n%s", i+1, m.Record.Key.DocumentID, m.Record.Key.ChunkIndex, m.Record.Content)
	}
	return b.String()
}

func formatHistory(turns []domain.SessionTurn) string {
	if len(turns) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch t.Role {
		case domain.RoleUser:
			b.WriteString("User: ")
		default:
			b.WriteString("Assistant: ")
		}
		b.WriteString(t.Content)
	}
	return b.String()
}

// sourceIDs returns distinct document ids in first-seen order.
func sourceIDs(matches []domain.ScoredRecord) []string {
	seen := make(map[string]bool, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id := m.Record.Key.DocumentID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
