package services

import (
	"context"
	"strings"
	"sync"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/storage/memory"
	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingClient for testing.
// Texts containing a key of vectors embed to that vector; anything else
// embeds to fallback.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
	texts    []string
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{fallback: []float32{1, 0, 0}}
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	for key, v := range m.vectors {
		if strings.Contains(text, key) {
			return append([]float32(nil), v...)
		}
	}
	return append([]float32(nil), m.fallback...)
}

func (m *mockEmbedder) EmbedItems(_ context.Context, items []driven.EmbedItem) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(items))
	for i, item := range items {
		m.texts = append(m.texts, item.Text)
		out[i] = m.vectorFor(item.Text)
	}
	return out, nil
}

func (m *mockEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) Dimensions() int {
	return len(m.fallback)
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu       sync.Mutex
	answer   string
	err      error
	calls    int
	messages [][]driven.ChatMessage
}

func (m *mockLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return m.answer, m.err
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.messages = append(m.messages, messages)
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) lastMessages() []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

// failingIndex wraps the memory index and fails selected operations.
type failingIndex struct {
	*memory.VectorIndex
	replaceErr error
	searchErr  error
}

func (f *failingIndex) ReplaceDocument(ctx context.Context, documentID string, records []domain.IndexRecord) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	return f.VectorIndex.ReplaceDocument(ctx, documentID, records)
}

func (f *failingIndex) Search(ctx context.Context, query []float32, topK int, threshold float64) ([]domain.ScoredRecord, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.VectorIndex.Search(ctx, query, topK, threshold)
}
