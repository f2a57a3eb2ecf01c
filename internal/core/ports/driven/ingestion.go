package driven

import (
	"context"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// IngestionStatusStore persists the latest ingestion status per document.
type IngestionStatusStore interface {
	// SaveStatus creates or replaces the status for status.DocumentID.
	SaveStatus(ctx context.Context, status domain.IngestionStatus) error

	// GetStatus returns domain.ErrNotFound for unknown documents.
	GetStatus(ctx context.Context, documentID string) (*domain.IngestionStatus, error)

	// ListStatuses returns all statuses ordered by document id.
	ListStatuses(ctx context.Context) ([]domain.IngestionStatus, error)

	// DeleteStatus removes a document's status. Unknown ids are not an error.
	DeleteStatus(ctx context.Context, documentID string) error
}
