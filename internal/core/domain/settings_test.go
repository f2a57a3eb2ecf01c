package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 1000, s.Pipeline.ChunkSize)
	assert.Equal(t, 200, s.Pipeline.ChunkOverlap)
	assert.Equal(t, 4, s.Retrieval.TopK)
	assert.InDelta(t, 0.75, s.Retrieval.SimilarityThreshold, 1e-9)
	assert.Equal(t, 768, s.Embedding.Dimensions)
	assert.Equal(t, AIProviderOllama, s.Embedding.Provider)
	assert.Equal(t, VectorBackendSQLite, s.VectorIndex.Backend)
	require.NoError(t, s.Validate())
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppSettings)
		want   string
	}{
		{"zero chunk size", func(s *AppSettings) { s.Pipeline.ChunkSize = 0 }, "chunk_size"},
		{"overlap equals size", func(s *AppSettings) { s.Pipeline.ChunkOverlap = s.Pipeline.ChunkSize }, "chunk_overlap"},
		{"negative overlap", func(s *AppSettings) { s.Pipeline.ChunkOverlap = -1 }, "chunk_overlap"},
		{"zero top_k", func(s *AppSettings) { s.Retrieval.TopK = 0 }, "top_k"},
		{"threshold above one", func(s *AppSettings) { s.Retrieval.SimilarityThreshold = 1.5 }, "similarity_threshold"},
		{"zero history window", func(s *AppSettings) { s.Session.HistoryWindow = 0 }, "history_window"},
		{"anthropic embeddings", func(s *AppSettings) { s.Embedding.Provider = AIProviderAnthropic }, "does not support embeddings"},
		{"unknown llm", func(s *AppSettings) { s.LLM.Provider = "gemini" }, "llm.provider"},
		{"postgres without dsn", func(s *AppSettings) { s.VectorIndex.Backend = VectorBackendPostgres }, "vector_index.dsn"},
		{"unknown backend", func(s *AppSettings) { s.VectorIndex.Backend = "faiss" }, "vector_index.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)

			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
}

func TestParseSessionBackend(t *testing.T) {
	tests := []struct {
		in    string
		want  SessionBackend
		valid bool
	}{
		{"memory", SessionBackendMemory, true},
		{"index", SessionBackendIndex, true},
		{"sqlite", SessionBackendIndex, true},
		{"postgres", SessionBackend("postgres"), false},
		{"", SessionBackend(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseSessionBackend(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, got.IsValid())
		})
	}
}
