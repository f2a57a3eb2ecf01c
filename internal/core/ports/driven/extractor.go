package driven

import (
	"context"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// Extractor yields plain text from raw bytes of the MIME types it supports.
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors should return 50-89.
	// Fallback extractors should return 1-9.
	Priority() int

	// Extract produces a Document whose Content is the normalised text.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// ExtractorRegistry is the MIME-keyed lookup table of extractors.
type ExtractorRegistry interface {
	// Register adds an extractor for each of its MIME types.
	Register(e Extractor)

	// Get returns the highest-priority extractor for mimeType.
	// Returns domain.ErrExtractionFailed if none matches.
	Get(mimeType string) (Extractor, error)

	// Extract looks up an extractor and runs it. All failures wrap
	// domain.ErrExtractionFailed.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// SupportedMIMETypes lists every registered MIME type.
	SupportedMIMETypes() []string
}
