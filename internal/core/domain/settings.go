package domain

import (
	"errors"
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbeddings returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend selects the Vector Index implementation.
type VectorBackend string

// Available vector index backends.
const (
	VectorBackendMemory   VectorBackend = "memory"
	VectorBackendSQLite   VectorBackend = "sqlite"
	VectorBackendPostgres VectorBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendPostgres:
		return true
	default:
		return false
	}
}

// SessionBackend selects where session turns are kept.
type SessionBackend string

// Available session backends. SessionBackendIndex keeps turns in the same
// database as the vector index, whichever backend that is.
const (
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendIndex  SessionBackend = "index"
)

// ParseSessionBackend reads a session.store value. "sqlite" is the name
// older config files use for SessionBackendIndex.
func ParseSessionBackend(v string) SessionBackend {
	if v == "sqlite" {
		return SessionBackendIndex
	}
	return SessionBackend(v)
}

// IsValid returns true if the backend is recognised.
func (b SessionBackend) IsValid() bool {
	return b == SessionBackendMemory || b == SessionBackendIndex
}

// PipelineSettings configures chunking.
type PipelineSettings struct {
	// ChunkSize is the window length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by consecutive chunks.
	ChunkOverlap int
}

// RetrievalSettings configures similarity search on the query path.
type RetrievalSettings struct {
	// TopK caps the number of chunks placed in the prompt.
	TopK int

	// SimilarityThreshold is the exclusive lower bound on similarity.
	SimilarityThreshold float64
}

// SessionSettings configures conversational memory.
type SessionSettings struct {
	// HistoryWindow is the number of turns retained per session.
	HistoryWindow int

	// Store selects the backend.
	Store SessionBackend
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size produced by Model.
	Dimensions int

	// BatchSize is the number of texts per provider call.
	BatchSize int

	// MaxAttempts bounds provider calls per batch, including the first.
	MaxAttempts int

	// Timeout applies to each provider call.
	Timeout time.Duration

	// RequestsPerSecond limits outbound provider calls. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Timeout applies to each generation call.
	Timeout time.Duration

	// MaxTokens caps the generated answer length.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorIndexSettings selects and locates the vector index.
type VectorIndexSettings struct {
	// Backend is the index implementation.
	Backend VectorBackend

	// DSN is the sqlite file path or postgres connection string.
	DSN string
}

// IngestionSettings configures the ingestion coordinator.
type IngestionSettings struct {
	// Workers bounds concurrent document ingestion in a batch.
	Workers int
}

// ServerSettings configures the network entry points.
type ServerSettings struct {
	// HTTPAddr is the listen address of the HTTP API.
	HTTPAddr string

	// MCPAddr is the listen address of the MCP HTTP endpoint. Empty disables it.
	MCPAddr string
}

// WatchSettings configures the filesystem trigger.
type WatchSettings struct {
	// Dir is the directory to watch.
	Dir string

	// RescanSchedule is a cron expression for periodic full rescans.
	RescanSchedule string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Pipeline    PipelineSettings
	Retrieval   RetrievalSettings
	Session     SessionSettings
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorIndex VectorIndexSettings
	Ingestion   IngestionSettings
	Server      ServerSettings
	Watch       WatchSettings
}

// Default values for settings.
const (
	DefaultChunkSize           = 1000
	DefaultChunkOverlap        = 200
	DefaultTopK                = 4
	DefaultSimilarityThreshold = 0.75
	DefaultHistoryWindow       = 10
	DefaultEmbeddingDimensions = 768
	DefaultEmbeddingBatchSize  = 32
	DefaultEmbeddingAttempts   = 4
	DefaultIngestionWorkers    = 4
	DefaultRescanSchedule      = "@every 15m"
	DefaultHTTPAddr            = ":8080"
)

// DefaultAppSettings returns settings with sensible defaults.
// The local Ollama provider is used for both embeddings and generation.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Pipeline: PipelineSettings{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:                DefaultTopK,
			SimilarityThreshold: DefaultSimilarityThreshold,
		},
		Session: SessionSettings{
			HistoryWindow: DefaultHistoryWindow,
			Store:         SessionBackendMemory,
		},
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOllama,
			Model:             DefaultEmbeddingModels()[AIProviderOllama],
			Dimensions:        DefaultEmbeddingDimensions, // nomic-embed-text
			BatchSize:         DefaultEmbeddingBatchSize,
			MaxAttempts:       DefaultEmbeddingAttempts,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
		},
		LLM: LLMSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultLLMModels()[AIProviderOllama],
			Timeout:   120 * time.Second,
			MaxTokens: 1024,
		},
		VectorIndex: VectorIndexSettings{
			Backend: VectorBackendSQLite,
		},
		Ingestion: IngestionSettings{
			Workers: DefaultIngestionWorkers,
		},
		Server: ServerSettings{
			HTTPAddr: DefaultHTTPAddr,
		},
		Watch: WatchSettings{
			RescanSchedule: DefaultRescanSchedule,
		},
	}
}

// Validate checks every setting that would otherwise fail mid-operation.
// All problems are reported together, each wrapping ErrInvalidConfig.
func (s *AppSettings) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if s.Pipeline.ChunkSize <= 0 {
		invalid("pipeline.chunk_size must be positive, got %d", s.Pipeline.ChunkSize)
	}
	if s.Pipeline.ChunkOverlap < 0 || s.Pipeline.ChunkOverlap >= s.Pipeline.ChunkSize {
		invalid("pipeline.chunk_overlap must be in [0, chunk_size), got %d", s.Pipeline.ChunkOverlap)
	}
	if s.Retrieval.TopK <= 0 {
		invalid("retrieval.top_k must be positive, got %d", s.Retrieval.TopK)
	}
	if s.Retrieval.SimilarityThreshold < 0 || s.Retrieval.SimilarityThreshold > 1 {
		invalid("retrieval.similarity_threshold must be in [0, 1], got %g", s.Retrieval.SimilarityThreshold)
	}
	if s.Session.HistoryWindow <= 0 {
		invalid("session.history_window must be positive, got %d", s.Session.HistoryWindow)
	}
	if !s.Session.Store.IsValid() {
		invalid("unknown session.store %q", s.Session.Store)
	}
	if !s.Embedding.Provider.SupportsEmbeddings() {
		invalid("embedding.provider %q does not support embeddings", s.Embedding.Provider)
	}
	if s.Embedding.Dimensions <= 0 {
		invalid("embedding.dimensions must be positive, got %d", s.Embedding.Dimensions)
	}
	if s.Embedding.BatchSize <= 0 {
		invalid("embedding.batch_size must be positive, got %d", s.Embedding.BatchSize)
	}
	if s.Embedding.MaxAttempts <= 0 {
		invalid("embedding.max_attempts must be positive, got %d", s.Embedding.MaxAttempts)
	}
	if !s.LLM.Provider.IsValid() {
		invalid("unknown llm.provider %q", s.LLM.Provider)
	}
	if !s.VectorIndex.Backend.IsValid() {
		invalid("unknown vector_index.backend %q", s.VectorIndex.Backend)
	}
	if s.VectorIndex.Backend == VectorBackendPostgres && s.VectorIndex.DSN == "" {
		invalid("vector_index.dsn is required for the postgres backend")
	}
	if s.Ingestion.Workers <= 0 {
		invalid("ingestion.workers must be positive, got %d", s.Ingestion.Workers)
	}

	return errors.Join(errs...)
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
