package domain

import (
	"fmt"
	"time"
)

// Document represents the extracted text of one source file.
// It is immutable once extracted; re-ingestion produces a new version.
type Document struct {
	// ID is the stable external identifier for the document.
	ID string

	// MIMEType is the content type the text was extracted from.
	MIMEType string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full normalised text before chunking.
	Content string

	// Metadata contains scalar key-value pairs such as source path or upload time.
	Metadata map[string]any

	// ExtractedAt is when the text was produced.
	ExtractedAt time.Time
}

// Chunk represents a bounded contiguous slice of a document's text.
// Chunks are deterministic for a given (text, chunk size, overlap).
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the 0-based, gap-free position within the document.
	Index int

	// Content is the text content of this chunk.
	Content string

	// Start is the rune offset of the first character in the document text.
	Start int

	// End is the rune offset one past the last character.
	End int

	// Metadata inherits document metadata plus chunk position.
	Metadata map[string]any
}

// ID returns the chunk's natural key in "document:index" form.
func (c Chunk) ID() string {
	return RecordKey{DocumentID: c.DocumentID, ChunkIndex: c.Index}.String()
}

// RecordKey is the natural key of an IndexRecord.
type RecordKey struct {
	DocumentID string
	ChunkIndex int
}

// String formats the key as "document:index".
func (k RecordKey) String() string {
	return fmt.Sprintf("%s:%d", k.DocumentID, k.ChunkIndex)
}

// Less orders keys by document id then chunk index.
func (k RecordKey) Less(other RecordKey) bool {
	if k.DocumentID != other.DocumentID {
		return k.DocumentID < other.DocumentID
	}
	return k.ChunkIndex < other.ChunkIndex
}

// IndexRecord is the persisted unit of the vector index.
// Upserting a record whose key already exists replaces it.
type IndexRecord struct {
	// Key is the natural key (document id, chunk index).
	Key RecordKey

	// Vector is the embedding; its length is fixed by the provider.
	Vector []float32

	// Content is the chunk text returned to the query path.
	Content string

	// Metadata is carried from the chunk.
	Metadata map[string]any
}

// ScoredRecord pairs an IndexRecord with its similarity to a query.
type ScoredRecord struct {
	Record IndexRecord

	// Similarity is 1 - cosine distance; higher is better.
	Similarity float64
}

// CopyMetadata creates a shallow copy of metadata.
func CopyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
