package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// SessionService keeps a bounded turn log per session id.
// Sessions are created implicitly by their first turn.
type SessionService struct {
	store  driven.SessionStore
	window int
	locks  *keyedMutex
	now    func() time.Time
}

// NewSessionService creates session memory retaining window turns per session.
func NewSessionService(store driven.SessionStore, window int) *SessionService {
	if window <= 0 {
		window = domain.DefaultHistoryWindow
	}
	return &SessionService{
		store:  store,
		window: window,
		locks:  newKeyedMutex(),
		now:    time.Now,
	}
}

// Window returns the number of turns retained per session.
func (s *SessionService) Window() int {
	return s.window
}

// Append stores one turn and returns its index.
func (s *SessionService) Append(ctx context.Context, sessionID string, role domain.Role, content string) (int, error) {
	indexes, err := s.appendTurns(ctx, sessionID, []domain.SessionTurn{{Role: role, Content: content}})
	if err != nil {
		return 0, err
	}
	return indexes[0], nil
}

// AppendExchange stores a question and its answer as consecutive turns,
// with no other turn of the session between them.
func (s *SessionService) AppendExchange(ctx context.Context, sessionID, question, answer string) error {
	_, err := s.appendTurns(ctx, sessionID, []domain.SessionTurn{
		{Role: domain.RoleUser, Content: question},
		{Role: domain.RoleAssistant, Content: answer},
	})
	return err
}

func (s *SessionService) appendTurns(ctx context.Context, sessionID string, turns []domain.SessionTurn) ([]int, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	for _, t := range turns {
		if !t.Role.IsValid() {
			return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, t.Role)
		}
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	next, err := s.store.NextTurnIndex(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: next turn: %w", sessionID, err)
	}

	stamped := make([]domain.SessionTurn, len(turns))
	indexes := make([]int, len(turns))
	now := s.now()
	for i, t := range turns {
		t.SessionID = sessionID
		t.Index = next + i
		t.Timestamp = now
		stamped[i] = t
		indexes[i] = t.Index
	}
	// One call so a question is never stored without its answer.
	if err := s.store.AppendTurns(ctx, sessionID, stamped); err != nil {
		return nil, fmt.Errorf("session %s: append turns: %w", sessionID, err)
	}

	if err := s.store.TrimTurns(ctx, sessionID, s.window); err != nil {
		return nil, fmt.Errorf("session %s: trim: %w", sessionID, err)
	}
	return indexes, nil
}

// History returns up to maxTurns most recent turns, oldest first.
// maxTurns is capped at the retention window; zero or less yields none.
func (s *SessionService) History(ctx context.Context, sessionID string, maxTurns int) ([]domain.SessionTurn, error) {
	if maxTurns > s.window {
		maxTurns = s.window
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	turns, err := s.store.LastTurns(ctx, sessionID, maxTurns)
	if err != nil {
		return nil, fmt.Errorf("session %s: history: %w", sessionID, err)
	}
	return turns, nil
}
