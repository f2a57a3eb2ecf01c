package domain

import "time"

// IngestionState is a step in a document's ingestion state machine.
type IngestionState string

const (
	IngestionPending    IngestionState = "pending"
	IngestionExtracting IngestionState = "extracting"
	IngestionChunking   IngestionState = "chunking"
	IngestionEmbedding  IngestionState = "embedding"
	IngestionIndexing   IngestionState = "indexing"
	IngestionComplete   IngestionState = "complete"
	IngestionFailed     IngestionState = "failed"
)

// String returns the string representation.
func (s IngestionState) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s IngestionState) IsTerminal() bool {
	return s == IngestionComplete || s == IngestionFailed
}

// CanTransition reports whether the state machine allows moving to next.
// Failed is reachable from every non-terminal state.
func (s IngestionState) CanTransition(next IngestionState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == IngestionFailed {
		return true
	}
	switch s {
	case IngestionPending:
		return next == IngestionExtracting
	case IngestionExtracting:
		return next == IngestionChunking
	case IngestionChunking:
		return next == IngestionEmbedding
	case IngestionEmbedding:
		return next == IngestionIndexing
	case IngestionIndexing:
		return next == IngestionComplete
	default:
		return false
	}
}

// IngestionStatus tracks one document's latest ingestion run.
type IngestionStatus struct {
	// DocumentID identifies the document.
	DocumentID string

	// State is the current state.
	State IngestionState

	// Reason explains a failed state.
	Reason string

	// ChunkCount is the number of records indexed on completion.
	ChunkCount int

	// ContentHash is the SHA-256 of the extracted text of the last completed
	// run, keyed with the chunking and embedding settings it ran under.
	ContentHash string

	// Skipped is true when an unchanged document was not re-indexed.
	Skipped bool

	// StartedAt is when the run began.
	StartedAt time.Time

	// UpdatedAt is when the state last changed.
	UpdatedAt time.Time
}

// Failed reports whether the run ended in the failed state.
func (s *IngestionStatus) Failed() bool {
	return s.State == IngestionFailed
}
