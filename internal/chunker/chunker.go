// Package chunker splits normalised document text into overlapping
// fixed-size windows.
package chunker

import (
	"fmt"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Metadata keys added to every chunk.
const (
	MetaChunkIndex = "chunk_index"
	MetaCharStart  = "char_start"
	MetaCharEnd    = "char_end"
)

// Chunker splits text into windows of size characters whose starts advance
// by size-overlap. Offsets count runes, so a window never splits a code point.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. It returns domain.ErrInvalidChunking unless
// size > 0 and 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Validate checks chunking parameters.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidChunking, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidChunking, size, overlap)
	}
	return nil
}

// Size returns the window length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the shared characters between consecutive windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Span is a half-open rune range [Start, End).
type Span struct {
	Start int
	End   int
}

// Spans returns the windows for a text of n runes. The final window may be
// shorter than the chunk size; a zero-length text has no windows.
func (c *Chunker) Spans(n int) []Span {
	if n <= 0 {
		return nil
	}

	step := c.size - c.overlap
	spans := make([]Span, 0, n/step+1)
	for start := 0; start < n; start += step {
		end := start + c.size
		if end > n {
			end = n
		}
		spans = append(spans, Span{Start: start, End: end})
	}
	return spans
}

// Split chunks a document's content. Each chunk inherits the document
// metadata plus its index and offsets.
func (c *Chunker) Split(doc *domain.Document) []domain.Chunk {
	if doc == nil || doc.Content == "" {
		return nil
	}

	runes := []rune(doc.Content)
	spans := c.Spans(len(runes))
	chunks := make([]domain.Chunk, len(spans))

	for i, span := range spans {
		meta := domain.CopyMetadata(doc.Metadata)
		if meta == nil {
			meta = make(map[string]any, 3)
		}
		meta[MetaChunkIndex] = i
		meta[MetaCharStart] = span.Start
		meta[MetaCharEnd] = span.End

		chunks[i] = domain.Chunk{
			DocumentID: doc.ID,
			Index:      i,
			Content:    string(runes[span.Start:span.End]),
			Start:      span.Start,
			End:        span.End,
			Metadata:   meta,
		}
	}

	return chunks
}

// Chunk splits text with the given parameters. Empty text yields no chunks.
func Chunk(documentID, text string, size, overlap int) ([]domain.Chunk, error) {
	c, err := New(size, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(&domain.Document{ID: documentID, Content: text}), nil
}
