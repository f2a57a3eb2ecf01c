package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// ManifestEntry names one document to ingest.
type ManifestEntry struct {
	// ID is the document id. Defaults to Path.
	ID string `yaml:"id"`

	// Path is the file to read, relative to the manifest's directory unless absolute.
	Path string `yaml:"path"`

	// MIMEType overrides detection by file extension.
	MIMEType string `yaml:"mime_type,omitempty"`

	// Metadata is copied onto every chunk of the document.
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// Manifest is a YAML list of documents for batch ingestion:
//
//	documents:
//	  - id: handbook
//	    path: docs/handbook.md
//	    metadata:
//	      team: people
type Manifest struct {
	Documents []ManifestEntry `yaml:"documents"`
}

// LoadManifest reads and validates a manifest. Relative paths are resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parsing manifest %s: %w", domain.ErrInvalidInput, path, err)
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool, len(m.Documents))
	var errs []error

	for i := range m.Documents {
		e := &m.Documents[i]
		if e.Path == "" {
			errs = append(errs, fmt.Errorf("%w: manifest entry %d has no path", domain.ErrInvalidInput, i))
			continue
		}
		if e.ID == "" {
			e.ID = filepath.ToSlash(e.Path)
		}
		if !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(base, e.Path)
		}
		if seen[e.ID] {
			errs = append(errs, fmt.Errorf("%w: duplicate document id %q in manifest", domain.ErrInvalidInput, e.ID))
		}
		seen[e.ID] = true
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}
