package extractors

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
	"github.com/vippawar1104/RAG-agent/internal/extractors/docx"
	"github.com/vippawar1104/RAG-agent/internal/extractors/html"
	"github.com/vippawar1104/RAG-agent/internal/extractors/markdown"
	"github.com/vippawar1104/RAG-agent/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps MIME types to extractors.
type Registry struct {
	mu     sync.RWMutex
	byType map[string][]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string][]driven.Extractor)}
}

// NewDefaultRegistry returns a registry with every built-in extractor.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	return r
}

// Register adds e under each of its MIME types.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mt := range e.SupportedMIMETypes() {
		mt = NormaliseMIMEType(mt)
		list := append(r.byType[mt], e)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byType[mt] = list
	}
}

// Get returns the highest-priority extractor for mimeType.
func (r *Registry) Get(mimeType string) (driven.Extractor, error) {
	mt := NormaliseMIMEType(mimeType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byType[mt]
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no extractor for MIME type %q", domain.ErrExtractionFailed, mimeType)
	}
	return list[0], nil
}

// Extract selects an extractor for raw and runs it. Every failure, including
// a document that yields no text, wraps domain.ErrExtractionFailed.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrExtractionFailed)
	}

	e, err := r.Get(raw.MIMEType)
	if err != nil {
		return nil, err
	}

	doc, err := e.Extract(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtractionFailed, raw.MIMEType, err)
	}
	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: %s yielded no text", domain.ErrExtractionFailed, raw.ID)
	}
	return doc, nil
}

// SupportedMIMETypes lists every registered MIME type in sorted order.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byType))
	for mt := range r.byType {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// NormaliseMIMEType lowercases mimeType and drops parameters such as charset.
func NormaliseMIMEType(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
