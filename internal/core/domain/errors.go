package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent pipeline failures.
// Adapters wrap these with %w so callers can classify with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates configuration that must be fixed before startup.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidChunking indicates a chunk size or overlap outside its bounds.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrExtractionFailed indicates no extractor matched or extraction errored.
	// The document is marked failed; other documents are unaffected.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrIndexWrite indicates a storage failure during upsert or delete.
	// No partial set of chunks is persisted.
	ErrIndexWrite = errors.New("index write failed")

	// Provider Errors.

	// ErrProviderUnavailable indicates a transient provider failure. Embedding
	// calls report it once their retries are spent; generation calls report
	// it directly.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderRejected indicates a quota or permission failure.
	// These are never retried.
	ErrProviderRejected = errors.New("provider rejected request")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Query Errors.

	// ErrNoRelevantContext signals that retrieval found nothing above the
	// similarity threshold. It is not surfaced to callers; they receive
	// RefusalAnswer instead.
	ErrNoRelevantContext = errors.New("no relevant context")

	// ErrQueryFailed indicates embedding or retrieval failed before generation.
	ErrQueryFailed = errors.New("query failed")

	// ErrGenerationFailed indicates the answer-generation call failed.
	// Session memory is left unchanged.
	ErrGenerationFailed = errors.New("generation failed")
)

// ProviderError is returned by the embedding client when a batch cannot be
// embedded. IDs lists the units in the failed batch so callers can isolate them.
type ProviderError struct {
	// Kind is ErrProviderUnavailable or ErrProviderRejected.
	Kind error

	// IDs identifies the failed units, typically "document:index" keys.
	IDs []string

	// Attempts is the number of provider calls made.
	Attempts int

	// Err is the last underlying error.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Attempts > 0 {
		fmt.Fprintf(&b, " after %d attempt(s)", e.Attempts)
	}
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.IDs, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
