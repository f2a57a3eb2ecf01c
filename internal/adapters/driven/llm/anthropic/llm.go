// Package anthropic provides an LLM service adapter using the Anthropic API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/llm"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// MaxTokens is used when a call does not set its own limit.
	// The Messages API requires one.
	MaxTokens int
}

// LLMService provides LLM operations using the Anthropic API.
type LLMService struct {
	client    sdk.Client
	model     string
	maxTokens int
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	client := sdk.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)

	return &LLMService{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	messages := []driven.ChatMessage{
		{Role: driven.ChatRoleUser, Content: prompt},
	}
	chatOpts := driven.ChatOptions{
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	return s.sendMessages(ctx, "", messages, chatOpts, opts.StopWords)
}

// Chat conducts a multi-turn conversation. System messages are lifted into
// the request's system prompt.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var systemParts []string
	var chatMessages []driven.ChatMessage

	for _, msg := range messages {
		if msg.Role == driven.ChatRoleSystem {
			systemParts = append(systemParts, msg.Content)
		} else {
			chatMessages = append(chatMessages, msg)
		}
	}

	return s.sendMessages(ctx, strings.Join(systemParts, "\n\n"), chatMessages, opts, nil)
}

func (s *LLMService) sendMessages(
	ctx context.Context,
	system string,
	messages []driven.ChatMessage,
	opts driven.ChatOptions,
	stopWords []string,
) (string, error) {
	maxTokens := s.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	params := sdk.MessageNewParams{
		Model:         sdk.Model(s.model),
		MaxTokens:     int64(maxTokens),
		Messages:      make([]sdk.MessageParam, 0, len(messages)),
		StopSequences: stopWords,
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if opts.Temperature > 0 {
		params.Temperature = sdk.Float(opts.Temperature)
	}

	for _, msg := range messages {
		block := sdk.NewTextBlock(msg.Content)
		if msg.Role == driven.ChatRoleAssistant {
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, sdk.NewUserMessage(block))
		}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", llm.Classify("anthropic", statusOf(err), err)
	}

	var b strings.Builder
	for _, content := range resp.Content {
		if text, ok := content.AsAny().(sdk.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic: no text content returned")
	}

	return b.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models, without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.List(ctx, sdk.ModelListParams{}); err != nil {
		return llm.Classify("anthropic", statusOf(err), err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

func statusOf(err error) int {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
