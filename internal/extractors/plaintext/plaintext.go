// Package plaintext extracts text from plain-text formats, including source
// code and structured text. It is the fallback for every text/* type the
// other extractors do not claim.
package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/x-go",
		"text/x-python",
		"text/x-rust",
		"text/x-java",
		"text/x-c",
		"text/x-c++",
		"text/x-ruby",
		"text/x-shellscript",
		"text/x-sql",
		"text/csv",
		"text/yaml",
		"text/toml",
		"text/javascript",
		"text/typescript",
		"text/css",
		"text/markdown",
		"text/html",
		"application/json",
		"application/xml",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor
}

// Extract returns the bytes as text with line endings normalised.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, domain.ErrInvalidInput
	}

	doc := &domain.Document{
		ID:          raw.ID,
		MIMEType:    raw.MIMEType,
		URI:         raw.URI,
		Title:       titleFromMetadataOrURI(raw),
		Content:     normaliseNewlines(string(raw.Content)),
		Metadata:    domain.CopyMetadata(raw.Metadata),
		ExtractedAt: time.Now(),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["mime_type"] = raw.MIMEType
	doc.Metadata["title"] = doc.Title

	return doc, nil
}

// titleFromMetadataOrURI checks metadata for a title first, then falls back to URI.
func titleFromMetadataOrURI(raw *domain.RawDocument) string {
	if raw.Metadata != nil {
		if title, ok := raw.Metadata["title"].(string); ok && title != "" {
			return title
		}
	}
	return titleFromURI(raw.URI)
}

// titleFromURI turns "notes/release_plan-v2.txt" into "release plan v2".
func titleFromURI(uri string) string {
	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

func normaliseNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
