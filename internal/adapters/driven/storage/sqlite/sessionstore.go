package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// SessionStore implements driven.SessionStore on the sessions and
// session_turns tables.
type SessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*SessionStore)(nil)

// AppendTurns stores turns in one transaction and advances the session's
// next index past the highest of them.
func (s *SessionStore) AppendTurns(ctx context.Context, sessionID string, turns []domain.SessionTurn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC()
	next := 0
	for _, turn := range turns {
		if turn.SessionID != sessionID {
			return fmt.Errorf("%w: turn for session %q in batch for %q", domain.ErrInvalidInput, turn.SessionID, sessionID)
		}
		next = max(next, turn.Index+1)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (session_id, next_turn_index, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			next_turn_index = MAX(next_turn_index, excluded.next_turn_index),
			updated_at = excluded.updated_at
	`, sessionID, next, now, now); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	for _, turn := range turns {
		ts := turn.Timestamp
		if ts.IsZero() {
			ts = now
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO session_turns (session_id, turn_index, role, content, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, sessionID, turn.Index, string(turn.Role), turn.Content, ts.UTC()); err != nil {
			return fmt.Errorf("saving turn %d: %w", turn.Index, err)
		}
	}

	return tx.Commit()
}

// LastTurns returns up to n most recent turns, oldest first.
func (s *SessionStore) LastTurns(ctx context.Context, sessionID string, n int) ([]domain.SessionTurn, error) {
	if n <= 0 {
		return []domain.SessionTurn{}, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT session_id, turn_index, role, content, created_at FROM (
			SELECT session_id, turn_index, role, content, created_at
			FROM session_turns
			WHERE session_id = ?
			ORDER BY turn_index DESC
			LIMIT ?
		) ORDER BY turn_index ASC
	`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	turns := []domain.SessionTurn{}
	for rows.Next() {
		var (
			turn      domain.SessionTurn
			role      string
			createdAt sql.NullTime
		)
		if err := rows.Scan(&turn.SessionID, &turn.Index, &role, &turn.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Role = domain.Role(role)
		if createdAt.Valid {
			turn.Timestamp = createdAt.Time
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// NextTurnIndex returns the index the next appended turn should use.
func (s *SessionStore) NextTurnIndex(ctx context.Context, sessionID string) (int, error) {
	var next int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT next_turn_index FROM sessions WHERE session_id = ?", sessionID).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading next turn index: %w", err)
	}
	return next, nil
}

// TrimTurns drops all but the keep most recent turns.
func (s *SessionStore) TrimTurns(ctx context.Context, sessionID string, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM session_turns
		WHERE session_id = ? AND turn_index NOT IN (
			SELECT turn_index FROM session_turns
			WHERE session_id = ?
			ORDER BY turn_index DESC
			LIMIT ?
		)
	`, sessionID, sessionID, keep)
	if err != nil {
		return fmt.Errorf("trimming turns: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the database.
func (s *SessionStore) Close() error {
	return nil
}
