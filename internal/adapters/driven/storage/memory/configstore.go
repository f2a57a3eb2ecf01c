package memory

import (
	"sync"
	"time"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/config"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map. It backs tests and the --ephemeral
// flag, where nothing is written to disk.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore returns a store seeded with a copy of values.
func NewConfigStore(values map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) value(key string) any {
	v, _ := s.Get(key)
	return v
}

func (s *ConfigStore) GetString(key string) string          { return config.String(s.value(key)) }
func (s *ConfigStore) GetInt(key string) int                { return config.Int(s.value(key)) }
func (s *ConfigStore) GetFloat(key string) float64          { return config.Float(s.value(key)) }
func (s *ConfigStore) GetBool(key string) bool              { return config.Bool(s.value(key)) }
func (s *ConfigStore) GetDuration(key string) time.Duration { return config.Duration(s.value(key)) }

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save and Load have nothing to do.
func (s *ConfigStore) Save() error { return nil }
func (s *ConfigStore) Load() error { return nil }

// Path reports ":memory:".
func (s *ConfigStore) Path() string {
	return ":memory:"
}
