package memory

import (
	"fmt"
	"sync"

	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves prompts from memory. It backs tests and --ephemeral
// runs, which never create the prompts directory.
type PromptStore struct {
	mu      sync.RWMutex
	prompts map[string]string
}

// NewPromptStore creates a prompt store holding a copy of prompts.
func NewPromptStore(prompts map[string]string) *PromptStore {
	s := &PromptStore{prompts: make(map[string]string, len(prompts))}
	for k, v := range prompts {
		s.prompts[k] = v
	}
	return s
}

// Load returns the named prompt.
func (s *PromptStore) Load(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[name]
	if !ok {
		return "", fmt.Errorf("load prompt %q: not found", name)
	}
	return p, nil
}

// Reload is a no-op; memory prompts never change underneath the store.
func (s *PromptStore) Reload() {}

// Set replaces a prompt.
func (s *PromptStore) Set(name, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[name] = prompt
}
