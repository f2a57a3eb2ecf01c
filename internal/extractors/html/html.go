// Package html extracts readable text from HTML documents using goquery.
// Scripts, styles and page chrome are dropped; block elements become line
// breaks.
package html

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Generic MIME extractor, higher than plaintext
}

// removed lists elements whose text never belongs in the document body.
const removed = "head, script, style, noscript, svg, template, iframe, nav, footer"

// blockElements get a line break before and after their text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "hr": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "section": true,
	"article": true, "header": true, "main": true, "ul": true, "ol": true,
	"dt": true, "dd": true, "figcaption": true,
}

var (
	multiSpaces   = regexp.MustCompile(`[ \t\f\v]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Extract converts an HTML document to plain text.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(page.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(page.Find("h1").First().Text())
	}
	if title == "" {
		title = titleFromURI(raw.URI)
	}

	page.Find(removed).Remove()

	doc := &domain.Document{
		ID:          raw.ID,
		MIMEType:    raw.MIMEType,
		URI:         raw.URI,
		Title:       title,
		Content:     textOf(page.Selection),
		Metadata:    domain.CopyMetadata(raw.Metadata),
		ExtractedAt: time.Now(),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["mime_type"] = raw.MIMEType
	doc.Metadata["format"] = "html"
	doc.Metadata["title"] = doc.Title

	return doc, nil
}

// textOf renders the selection's text with block elements on their own lines.
func textOf(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(&b, n)
	}

	content := multiSpaces.ReplaceAllString(b.String(), " ")
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return multiNewlines.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
}

func writeText(b *strings.Builder, n *nethtml.Node) {
	switch n.Type {
	case nethtml.TextNode:
		b.WriteString(n.Data)
		return
	case nethtml.CommentNode:
		return
	}

	block := n.Type == nethtml.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

func titleFromURI(uri string) string {
	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
