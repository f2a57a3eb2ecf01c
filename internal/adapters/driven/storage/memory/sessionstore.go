package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
// Turns are lost on restart.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.SessionTurn
	next     map[string]int
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string][]domain.SessionTurn),
		next:     make(map[string]int),
	}
}

// AppendTurns stores turns under one lock after checking all of them, so a
// rejected batch leaves the session untouched.
func (s *SessionStore) AppendTurns(_ context.Context, sessionID string, turns []domain.SessionTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.next[sessionID]
	for _, turn := range turns {
		if turn.SessionID != sessionID {
			return fmt.Errorf("%w: turn for session %q in batch for %q", domain.ErrInvalidInput, turn.SessionID, sessionID)
		}
		if turn.Index < next {
			return fmt.Errorf("session %s: turn index %d already used", sessionID, turn.Index)
		}
		next = turn.Index + 1
	}

	s.sessions[sessionID] = append(s.sessions[sessionID], turns...)
	if len(turns) > 0 {
		s.next[sessionID] = next
	}
	return nil
}

// LastTurns returns up to n most recent turns, oldest first.
func (s *SessionStore) LastTurns(_ context.Context, sessionID string, n int) ([]domain.SessionTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	if n <= 0 || len(turns) == 0 {
		return []domain.SessionTurn{}, nil
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]domain.SessionTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// NextTurnIndex returns the index the next appended turn should use.
// Indexes keep increasing after older turns are trimmed.
func (s *SessionStore) NextTurnIndex(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.next[sessionID], nil
}

// TrimTurns drops all but the keep most recent turns.
func (s *SessionStore) TrimTurns(_ context.Context, sessionID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.sessions[sessionID]
	if keep < 0 {
		keep = 0
	}
	if len(turns) <= keep {
		return nil
	}
	kept := make([]domain.SessionTurn, keep)
	copy(kept, turns[len(turns)-keep:])
	s.sessions[sessionID] = kept
	return nil
}

// Close releases resources (no-op for memory store).
func (s *SessionStore) Close() error {
	return nil
}
