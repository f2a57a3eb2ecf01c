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

// IngestionStatusStore implements driven.IngestionStatusStore on the
// ingestion_status table.
type IngestionStatusStore struct {
	store *Store
}

var _ driven.IngestionStatusStore = (*IngestionStatusStore)(nil)

const statusColumns = `document_id, state, reason, chunk_count, content_hash, skipped, started_at, updated_at`

// SaveStatus creates or replaces a document's status.
func (s *IngestionStatusStore) SaveStatus(ctx context.Context, status domain.IngestionStatus) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingestion_status (`+statusColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			state = excluded.state,
			reason = excluded.reason,
			chunk_count = excluded.chunk_count,
			content_hash = excluded.content_hash,
			skipped = excluded.skipped,
			started_at = excluded.started_at,
			updated_at = excluded.updated_at
	`, status.DocumentID, string(status.State), status.Reason, status.ChunkCount,
		status.ContentHash, status.Skipped, nullTime(status.StartedAt), nullTime(status.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving status: %w", err)
	}
	return nil
}

// GetStatus retrieves a document's status.
func (s *IngestionStatusStore) GetStatus(ctx context.Context, documentID string) (*domain.IngestionStatus, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+statusColumns+` FROM ingestion_status WHERE document_id = ?`, documentID)

	status, err := scanStatus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return status, nil
}

// ListStatuses returns all statuses ordered by document id.
func (s *IngestionStatusStore) ListStatuses(ctx context.Context) ([]domain.IngestionStatus, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+statusColumns+` FROM ingestion_status ORDER BY document_id`)
	if err != nil {
		return nil, fmt.Errorf("querying statuses: %w", err)
	}
	defer rows.Close()

	statuses := []domain.IngestionStatus{}
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statuses: %w", err)
	}
	return statuses, nil
}

// DeleteStatus removes a document's status.
func (s *IngestionStatusStore) DeleteStatus(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM ingestion_status WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting status: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatus(row rowScanner) (*domain.IngestionStatus, error) {
	var (
		status               domain.IngestionStatus
		state                string
		startedAt, updatedAt sql.NullTime
	)
	if err := row.Scan(&status.DocumentID, &state, &status.Reason, &status.ChunkCount,
		&status.ContentHash, &status.Skipped, &startedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning status: %w", err)
	}

	status.State = domain.IngestionState(state)
	if startedAt.Valid {
		status.StartedAt = startedAt.Time
	}
	if updatedAt.Valid {
		status.UpdatedAt = updatedAt.Time
	}
	return &status, nil
}

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
