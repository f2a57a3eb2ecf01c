// Package filesystem is the directory trigger: it enumerates files under a
// root and reports changes with fsnotify. Document ids are slash-separated
// paths relative to the root.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
	"github.com/vippawar1104/RAG-agent/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// ConnectorType identifies this connector.
const ConnectorType = "filesystem"

// MaxFileSize is the largest file read; bigger files are reported as errors.
const MaxFileSize = 32 << 20

// Metadata keys set on every document.
const (
	MetaFilename   = "filename"
	MetaExtension  = "extension"
	MetaPath       = "path"
	MetaSize       = "size"
	MetaModifiedAt = "modified_at"
)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("connector closed")

// Connector watches a local directory tree.
type Connector struct {
	rootPath string
	accept   func(mimeType string) bool

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// Option configures a Connector.
type Option func(*Connector)

// WithMIMETypes restricts the connector to files of the given types.
// Other files are skipped silently.
func WithMIMETypes(types []string) Option {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return func(c *Connector) {
		c.accept = func(mimeType string) bool { return allowed[mimeType] }
	}
}

// New creates a connector rooted at rootPath.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{
		rootPath: rootPath,
		accept:   func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return ConnectorType
}

// Root returns the watched directory.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks the root exists and is a directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.checkRoot()
}

func (c *Connector) checkRoot() error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("root path error: %s does not exist", c.rootPath)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}
	return nil
}

// FullSync walks the tree and delivers every visible, accepted file.
// Unreadable files are reported on the error channel without stopping the walk.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.checkRoot(); err != nil {
			errs <- err
			return
		}

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				logger.Warn("filesystem: walking %s: %v", path, walkErr)
				return nil
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}

			doc, ok, err := c.readDocument(path)
			if err != nil {
				logger.Warn("filesystem: %v", err)
				return nil
			}
			if !ok {
				return nil
			}

			select {
			case docs <- *doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return docs, errs
}

// Watch reports changes under the root until ctx is cancelled or the
// connector is closed. New subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := c.checkRoot(); err != nil {
		return nil, err
	}
	if c.watcher != nil {
		return nil, errors.New("watch already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(watcher, c.rootPath); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	c.watcher = watcher

	changes := make(chan domain.RawDocumentChange)
	go c.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- domain.RawDocumentChange) {
	defer close(changes)
	defer c.stopWatcher(watcher)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					if err := addTree(watcher, event.Name); err != nil {
						logger.Warn("filesystem: watching %s: %v", event.Name, err)
					}
					continue
				}
			}
			change := c.handleFsEvent(event)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("filesystem: watcher error: %v", err)
		}
	}
}

func (c *Connector) stopWatcher(watcher *fsnotify.Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == watcher {
		c.watcher = nil
	}
	_ = watcher.Close()
}

// handleFsEvent maps an fsnotify event to a change. Directories, hidden
// paths, chmod-only events and files of unaccepted types yield nil.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	rel, err := filepath.Rel(c.rootPath, event.Name)
	if err != nil || isHidden(rel) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !c.accept(DetectMIMEType(event.Name)) {
			return nil
		}
		return &domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: domain.RawDocument{ID: filepath.ToSlash(rel), URI: event.Name},
		}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		doc, ok, err := c.readDocument(event.Name)
		if err != nil {
			logger.Warn("filesystem: %v", err)
			return nil
		}
		if !ok {
			return nil
		}
		changeType := domain.ChangeUpdated
		if event.Has(fsnotify.Create) {
			changeType = domain.ChangeCreated
		}
		return &domain.RawDocumentChange{Type: changeType, Document: *doc}

	default:
		return nil
	}
}

// readDocument loads path. ok is false for files of unaccepted types.
func (c *Connector) readDocument(path string) (*domain.RawDocument, bool, error) {
	mimeType := DetectMIMEType(path)
	if !c.accept(mimeType) {
		return nil, false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return nil, false, fmt.Errorf("%s is %d bytes, above the %d byte limit", path, info.Size(), MaxFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return nil, false, fmt.Errorf("relative path of %s: %w", path, err)
	}

	return &domain.RawDocument{
		ID:       filepath.ToSlash(rel),
		URI:      path,
		MIMEType: mimeType,
		Content:  content,
		Metadata: map[string]any{
			MetaFilename:   filepath.Base(path),
			MetaExtension:  strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
			MetaPath:       path,
			MetaSize:       info.Size(),
			MetaModifiedAt: info.ModTime().UTC().Format(time.RFC3339),
		},
	}, true, nil
}

// Close stops any running watch. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// extensionTypes covers extensions the platform MIME table often lacks or
// reports inconsistently.
var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".csv":      "text/csv",
	".json":     "application/json",
	".xml":      "application/xml",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".sh":       "text/x-shellscript",
	".bash":     "text/x-shellscript",
	".sql":      "text/x-sql",
}

// DetectMIMEType maps a file name to a MIME type without parameters.
// Files with no extension are treated as plain text.
func DetectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
	}
	return "application/octet-stream"
}
