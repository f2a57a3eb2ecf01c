// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/embedding"
	ollamaembed "github.com/vippawar1104/RAG-agent/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/vippawar1104/RAG-agent/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/vippawar1104/RAG-agent/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/vippawar1104/RAG-agent/internal/adapters/driven/llm/ollama"
	openaillm "github.com/vippawar1104/RAG-agent/internal/adapters/driven/llm/openai"
	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the AI adapters built from settings.
type Services struct {
	// Embedder is the resilient client shared by ingestion and queries.
	Embedder *embedding.Client

	// EmbeddingService is the raw provider under Embedder.
	EmbeddingService driven.EmbeddingService

	// LLMService answers grounded prompts.
	LLMService driven.LLMService
}

// Close releases all resources held by the services.
func (s *Services) Close() {
	if s.EmbeddingService != nil {
		s.EmbeddingService.Close()
	}
	if s.LLMService != nil {
		s.LLMService.Close()
	}
}

// NewServices builds the embedding client and LLM service from settings.
// Connectivity is not checked here; use Check for that.
func NewServices(settings *domain.AppSettings) (*Services, error) {
	provider, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if llm == nil {
		provider.Close()
		return nil, fmt.Errorf("%w: llm provider %q is not configured",
			domain.ErrLLMUnavailable, settings.LLM.Provider)
	}

	return &Services{
		Embedder:         NewEmbeddingClient(&settings.Embedding, provider),
		EmbeddingService: provider,
		LLMService:       llm,
	}, nil
}

// NewEmbeddingClient wraps provider with batching, retry and rate limiting
// configured from settings.
func NewEmbeddingClient(settings *domain.EmbeddingSettings, provider driven.EmbeddingService) *embedding.Client {
	return embedding.NewClient(provider, embedding.Config{
		BatchSize:   settings.BatchSize,
		MaxAttempts: settings.MaxAttempts,
		CallTimeout: settings.Timeout,
		Dimensions:  settings.Dimensions,
		RateLimit: embedding.RateLimitConfig{
			RequestsPerSecond: settings.RequestsPerSecond,
		},
	})
}

// Check pings both providers. It is used by `ragent settings check` and the
// health endpoint; failures name the provider and suggest the fix.
func Check(ctx context.Context, s *Services) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.EmbeddingService.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w). Run 'ragent settings show' to check the configuration",
			domain.ErrEmbeddingUnavailable, err)
	}
	if err := s.LLMService.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w). Run 'ragent settings show' to check the configuration",
			domain.ErrLLMUnavailable, err)
	}
	return nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// dimensionsFor prefers the configured size, then the known-model table.
func dimensionsFor(settings *domain.EmbeddingSettings) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	return domain.EmbeddingDimensions()[settings.Model]
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    settings.Timeout,
		Dimensions: dimensionsFor(settings),
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    settings.Timeout,
		Dimensions: dimensionsFor(settings),
	})
}

func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: settings.Timeout,
	})
}

func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: settings.Timeout,
	})
}

func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:    settings.APIKey,
		BaseURL:   settings.BaseURL,
		Model:     settings.Model,
		Timeout:   settings.Timeout,
		MaxTokens: settings.MaxTokens,
	})
}
