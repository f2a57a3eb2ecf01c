// Package domain defines the core business entities for ragent.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Opaque bytes delivered by an ingestion trigger
//   - Document: Extracted, normalised text with metadata
//   - Chunk: A bounded slice of a document, the unit of embedding
//   - IndexRecord: The persisted vector, text and metadata for one chunk
//   - SessionTurn: One message in a conversation's bounded history
//   - IngestionStatus: Per-document progress through the ingestion states
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
