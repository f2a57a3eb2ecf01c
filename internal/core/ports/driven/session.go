package driven

import (
	"context"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// SessionStore persists conversation turns.
// Callers serialise access per session; implementations only need to be
// safe for concurrent use across sessions.
type SessionStore interface {
	// AppendTurns stores turns of one session, all or none. Turn indexes are
	// assigned by the caller; reusing an index is an error.
	AppendTurns(ctx context.Context, sessionID string, turns []domain.SessionTurn) error

	// LastTurns returns up to n most recent turns, oldest first.
	LastTurns(ctx context.Context, sessionID string, n int) ([]domain.SessionTurn, error)

	// NextTurnIndex returns the index the next appended turn should use.
	NextTurnIndex(ctx context.Context, sessionID string) (int, error)

	// TrimTurns drops all but the keep most recent turns.
	TrimTurns(ctx context.Context, sessionID string, keep int) error

	// Close releases resources.
	Close() error
}
