// Package markdown extracts readable text from Markdown, dropping formatting
// markers and keeping link text.
package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles Markdown documents.
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Generic MIME extractor, higher than plaintext
}

// Extract converts a markdown document to plain text.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	rawContent := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")

	doc := &domain.Document{
		ID:          raw.ID,
		MIMEType:    raw.MIMEType,
		URI:         raw.URI,
		Title:       extractMarkdownTitle(rawContent, raw.URI),
		Content:     stripMarkdown(rawContent),
		Metadata:    domain.CopyMetadata(raw.Metadata),
		ExtractedAt: time.Now(),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["mime_type"] = raw.MIMEType
	doc.Metadata["format"] = "markdown"
	doc.Metadata["title"] = doc.Title

	return doc, nil
}

// Pre-compiled regular expressions for markdown stripping.
var (
	frontMatter   = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	codeFence     = regexp.MustCompile("(?m)^```.*$")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	emphasis      = regexp.MustCompile(`(\*\*|__|\*|~~)([^*_~\n]+)(\*\*|__|\*|~~)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s?`)
	horizontal    = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	listMarkers   = regexp.MustCompile(`(?m)^([ \t]*)[-*+][ \t]+`)
	numberedList  = regexp.MustCompile(`(?m)^([ \t]*)\d+\.[ \t]+`)
	htmlTags      = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// extractMarkdownTitle returns the first H1 heading, or a title built from the
// file name.
func extractMarkdownTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// stripMarkdown removes markdown formatting. Code block contents are kept as
// text; only the fences go.
func stripMarkdown(content string) string {
	content = frontMatter.ReplaceAllString(content, "")
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "$1")
	content = numberedList.ReplaceAllString(content, "$1")
	content = htmlTags.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
