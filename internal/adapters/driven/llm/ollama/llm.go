// Package ollama answers prompts with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/llm"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

const provider = "ollama"

// LLMConfig configures the Ollama client. Zero values take the defaults.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls /api/chat and /api/generate without streaming.
type LLMService struct {
	client  *http.Client
	baseURL string
	model   string
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewLLMService creates an Ollama generation client.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Generate completes a single prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := generateRequest{
		Model:   s.model,
		Prompt:  prompt,
		Options: newOptions(opts.MaxTokens, opts.Temperature, opts.StopWords),
	}
	var resp generateResponse
	if err := s.call(ctx, http.MethodPost, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Chat sends the whole conversation, system messages included; Ollama
// accepts the system role inline.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatRequest{
		Model:    s.model,
		Messages: make([]chatMessage, len(messages)),
		Options:  newOptions(opts.MaxTokens, opts.Temperature, nil),
	}
	for i, msg := range messages {
		req.Messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	var resp chatResponse
	if err := s.call(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists local models, which needs no inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.call(ctx, http.MethodGet, "/api/tags", nil, nil)
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}

func newOptions(maxTokens int, temperature float64, stop []string) *options {
	if maxTokens <= 0 && temperature <= 0 && len(stop) == 0 {
		return nil
	}
	return &options{NumPredict: maxTokens, Temperature: temperature, Stop: stop}
}

// call sends in as JSON (when non-nil) and decodes the reply into out (when
// non-nil). Failures come back classified by llm.Classify.
func (s *LLMService) call(ctx context.Context, method, path string, in, out any) error {
	body := io.Reader(http.NoBody)
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", provider, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", provider, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return llm.Classify(provider, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llm.Classify(provider, resp.StatusCode, responseError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return llm.Classify(provider, 0, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// responseError turns a non-200 reply into an error. Ollama reports failures
// as {"error": "..."}; other bodies are used as is.
func responseError(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}
