package driven

import (
	"context"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// Connector is an upstream trigger: it enumerates documents in a source and
// reports later changes. Duplicate deliveries are allowed.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks the source is reachable and readable.
	Validate(ctx context.Context) error

	// FullSync delivers every document currently in the source.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch delivers changes until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}
