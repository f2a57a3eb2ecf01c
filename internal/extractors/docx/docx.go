// Package docx extracts paragraph text from Office Open XML word-processing
// documents by reading word/document.xml out of the zip container.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// MIMEType is the registered type of .docx files.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// maxPartSize caps how much of one zip part is read.
const maxPartSize = 64 << 20

var errNoDocumentPart = errors.New("word/document.xml not found")

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Generic MIME extractor
}

// Extract reads the paragraphs of a DOCX document.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("opening docx container: %w", err)
	}

	body, err := readPart(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	content, err := parseDocumentXML(body)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:          raw.ID,
		MIMEType:    raw.MIMEType,
		URI:         raw.URI,
		Title:       extractTitle(reader, raw.URI),
		Content:     content,
		Metadata:    domain.CopyMetadata(raw.Metadata),
		ExtractedAt: time.Now(),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["mime_type"] = raw.MIMEType
	doc.Metadata["format"] = "docx"
	doc.Metadata["title"] = doc.Title

	return doc, nil
}

func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return data, nil
	}
	if name == "word/document.xml" {
		return nil, errNoDocumentPart
	}
	return nil, fmt.Errorf("%s not found", name)
}

// parseDocumentXML walks the token stream rather than unmarshalling into
// structs so paragraphs nested in tables and text boxes are kept.
func parseDocumentXML(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		b      strings.Builder
		inRun  bool
		inText bool
		para   strings.Builder
	)
	flush := func() {
		line := strings.TrimSpace(para.String())
		para.Reset()
		if line == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				inRun = true
			case "t":
				inText = true
			case "tab":
				if inRun {
					para.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					para.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				inRun = false
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flush()

	return b.String(), nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle reads docProps/core.xml or falls back to the file name.
func extractTitle(reader *zip.Reader, uri string) string {
	if data, err := readPart(reader, "docProps/core.xml"); err == nil {
		var core coreXML
		if err := xml.Unmarshal(data, &core); err == nil && strings.TrimSpace(core.Title) != "" {
			return strings.TrimSpace(core.Title)
		}
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
