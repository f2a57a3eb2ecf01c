package driving

import (
	"context"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// IngestionService drives documents through extract, chunk, embed and index.
type IngestionService interface {
	// Ingest runs one document to a terminal state. A per-document failure is
	// reported in the returned status and as an error wrapping the cause.
	Ingest(ctx context.Context, raw domain.RawDocument) (*domain.IngestionStatus, error)

	// IngestBatch ingests documents concurrently. One document failing never
	// stops the others; the result has one status per input, in input order.
	IngestBatch(ctx context.Context, raws []domain.RawDocument) []domain.IngestionStatus

	// Remove deletes a document's records and status.
	Remove(ctx context.Context, documentID string) error

	// Status returns the latest status for a document.
	Status(ctx context.Context, documentID string) (*domain.IngestionStatus, error)

	// List returns the latest status of every known document.
	List(ctx context.Context) ([]domain.IngestionStatus, error)

	// HandleChange applies a trigger event: created and updated documents are
	// ingested, deleted ones removed.
	HandleChange(ctx context.Context, change domain.RawDocumentChange) error
}
