package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
	"github.com/vippawar1104/RAG-agent/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves the grounded-answer prompts from <dir>/<name>.txt.
//
// Nothing touches the disk until the first Load. That call writes any
// missing default files, then reads every prompt into memory; later calls
// are served from that snapshot until Reload. A file that cannot be read,
// or that breaks the placeholder layout, is replaced by its built-in default.
type PromptStore struct {
	dir string

	mu      sync.Mutex
	prompts map[string]string // nil until loaded
}

//nolint:lll // prompt text is kept unwrapped
var defaultPrompts = map[string]string{
	driven.PromptGroundedSystem: `You answer questions using only the document excerpts provided in the user message.
Do not use prior knowledge. Do not guess. If the excerpts do not contain the answer, reply exactly:
` + domain.RefusalAnswer + `
Keep answers concise and mention the excerpt numbers you relied on.`,

	driven.PromptGroundedAnswer: `Document excerpts:
%s

Conversation so far:
%s

Question: %s`,
}

// placeholders is the number of %s verbs each prompt must contain.
var placeholders = map[string]int{
	driven.PromptGroundedSystem: 0,
	driven.PromptGroundedAnswer: 3,
}

const promptReadme = "# ragent prompts\n\n" +
	"These files shape the grounded answers.\n\n" +
	"- `grounded_system.txt`: system instruction. It forbids answers outside the retrieved excerpts.\n" +
	"- `grounded_answer.txt`: user message layout. It must keep exactly three `%s` placeholders,\n" +
	"  filled in order with the excerpts, the conversation so far and the question.\n\n" +
	"A file with the wrong number of placeholders is ignored and the built-in default is used.\n" +
	"Edits apply to the next command; a running server picks them up after a reload.\n"

// DefaultPrompt returns the built-in text for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// DefaultPrompts returns a copy of every built-in prompt.
func DefaultPrompts() map[string]string {
	out := make(map[string]string, len(defaultPrompts))
	for k, v := range defaultPrompts {
		out[k] = v
	}
	return out
}

// NewPromptStore returns a store rooted at dir, or ~/.ragent/prompts when dir
// is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the prompt called name.
func (s *PromptStore) Load(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prompts == nil {
		s.prompts = s.readAll()
	}
	prompt, ok := s.prompts[name]
	if !ok {
		return "", fmt.Errorf("load prompt %q: %w", name, domain.ErrNotFound)
	}
	return prompt, nil
}

// Reload drops the snapshot so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.prompts = nil
	s.mu.Unlock()
}

func (s *PromptStore) readAll() map[string]string {
	if err := s.seed(); err != nil {
		logger.Warn("prompts: %v; using built-in prompts", err)
		return DefaultPrompts()
	}

	out := make(map[string]string, len(defaultPrompts))
	for name, def := range defaultPrompts {
		data, err := os.ReadFile(s.path(name))
		if err != nil {
			logger.Debug("prompts: read %s: %v", name, err)
			out[name] = def
			continue
		}
		text := strings.TrimSpace(string(data))
		if want := placeholders[name]; strings.Count(text, "%s") != want {
			logger.Warn("prompt %s.txt must contain %d %%s placeholder(s); using the built-in default", name, want)
			text = def
		}
		out[name] = text
	}
	return out
}

// seed creates the directory and writes whichever default files are missing.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	files := map[string]string{"README.md": promptReadme}
	for name, text := range defaultPrompts {
		files[name+".txt"] = text
	}
	for file, text := range files {
		path := filepath.Join(s.dir, file)
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
	}
	return nil
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}
