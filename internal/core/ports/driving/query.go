package driving

import (
	"context"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// QueryService answers questions strictly from retrieved document content.
type QueryService interface {
	// Ask answers one query. When nothing relevant is retrieved the answer is
	// domain.RefusalAnswer with no sources.
	Ask(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)

	// History returns up to maxTurns recent turns of a session, oldest first.
	History(ctx context.Context, sessionID string, maxTurns int) ([]domain.SessionTurn, error)
}
