package driven

import (
	"context"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// VectorIndex stores IndexRecords keyed by (document id, chunk index) and
// answers cosine-similarity queries.
//
// Implementations must let concurrent searches run alongside writes and must
// never expose a partial set of one document's records.
type VectorIndex interface {
	// Upsert inserts records, replacing any that share a natural key.
	Upsert(ctx context.Context, records []domain.IndexRecord) error

	// ReplaceDocument atomically removes every record for documentID and
	// inserts records in its place.
	ReplaceDocument(ctx context.Context, documentID string, records []domain.IndexRecord) error

	// DeleteDocument removes all records for documentID.
	DeleteDocument(ctx context.Context, documentID string) error

	// Search returns at most topK records with similarity strictly above
	// threshold, ordered by descending similarity then ascending natural key.
	Search(ctx context.Context, query []float32, topK int, threshold float64) ([]domain.ScoredRecord, error)

	// Count returns the number of records for documentID, or all records when empty.
	Count(ctx context.Context, documentID string) (int, error)

	// Close releases resources.
	Close() error
}
