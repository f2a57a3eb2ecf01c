// Package embedding provides the pipeline's embedding client: ordered,
// batched and retrying calls over a provider adapter.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
	"github.com/vippawar1104/RAG-agent/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.EmbeddingClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBatchSize   = domain.DefaultEmbeddingBatchSize
	DefaultMaxAttempts = domain.DefaultEmbeddingAttempts
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 10 * time.Second
	DefaultCallTimeout = 30 * time.Second
)

// QueryItemID identifies a query text in provider errors.
const QueryItemID = "query"

// Config holds configuration for the embedding client.
type Config struct {
	// BatchSize is the number of texts sent per provider call.
	BatchSize int

	// MaxAttempts bounds provider calls per batch, including the first.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff.
	MaxDelay time.Duration

	// CallTimeout bounds each provider call. A timed-out call is retried.
	CallTimeout time.Duration

	// Dimensions is the expected vector length. Zero uses the provider's value.
	Dimensions int

	// RateLimit throttles provider calls.
	RateLimit RateLimitConfig
}

// Client wraps a provider with batching, retry and rate limiting.
// It is safe for concurrent use and shared by ingestion and queries.
type Client struct {
	provider driven.EmbeddingService
	cfg      Config
	limiter  *RateLimiter
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures the client.
type Option func(*Client)

// WithSleep replaces the backoff sleep, e.g. to make tests instant.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// NewClient creates an embedding client over provider.
func NewClient(provider driven.EmbeddingService, cfg Config, opts ...Option) *Client {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = provider.Dimensions()
	}

	c := &Client{
		provider: provider,
		cfg:      cfg,
		limiter:  NewRateLimiter(cfg.RateLimit),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dimensions returns the vector size every result is checked against.
func (c *Client) Dimensions() int {
	return c.cfg.Dimensions
}

// ModelName returns the provider's model.
func (c *Client) ModelName() string {
	return c.provider.ModelName()
}

// EmbedQuery embeds a single query text.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedItems(ctx, []driven.EmbedItem{{ID: QueryItemID, Text: text}})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedItems returns one vector per item, in item order. Items are sent in
// batches of Config.BatchSize; the first failing batch aborts the call.
func (c *Client) EmbedItems(ctx context.Context, items []driven.EmbedItem) ([][]float32, error) {
	vectors := make([][]float32, len(items))

	for start := 0; start < len(items); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(items) {
			end = len(items)
		}

		batch := items[start:end]
		texts := make([]string, len(batch))
		ids := make([]string, len(batch))
		for i, item := range batch {
			texts[i] = item.Text
			ids[i] = item.ID
		}

		out, err := c.embedWithRetry(ctx, ids, texts)
		if err != nil {
			return nil, err
		}
		copy(vectors[start:end], out)
	}

	return vectors, nil
}

// embedWithRetry sends one batch, retrying transient failures with
// exponential backoff.
func (c *Client) embedWithRetry(ctx context.Context, ids, texts []string) ([][]float32, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vectors, err := c.callProvider(ctx, texts)
		if err == nil {
			if err := c.checkShape(vectors, len(texts)); err != nil {
				return nil, &domain.ProviderError{Kind: domain.ErrProviderRejected, IDs: ids, Attempts: attempt, Err: err}
			}
			return vectors, nil
		}

		// The caller gave up; that is not a provider failure.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		retryable, retryAfter := classify(err)
		if !retryable {
			return nil, &domain.ProviderError{Kind: domain.ErrProviderRejected, IDs: ids, Attempts: attempt, Err: err}
		}
		lastErr = err

		if retryAfter > 0 {
			c.limiter.RecordRateLimit(retryAfter)
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}

		delay := c.backoff(attempt, retryAfter)
		logger.Debug("embedding batch of %d failed (attempt %d/%d), retrying in %s: %v",
			len(texts), attempt, c.cfg.MaxAttempts, delay, err)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &domain.ProviderError{
		Kind:     domain.ErrProviderUnavailable,
		IDs:      ids,
		Attempts: c.cfg.MaxAttempts,
		Err:      lastErr,
	}
}

func (c *Client) callProvider(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()
	return c.provider.EmbedBatch(callCtx, texts)
}

func (c *Client) checkShape(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), want)
	}
	for i, v := range vectors {
		if len(v) != c.cfg.Dimensions {
			return fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), c.cfg.Dimensions)
		}
	}
	return nil
}

// backoff returns BaseDelay * 2^(attempt-1), raised to retryAfter and
// capped at MaxDelay.
func (c *Client) backoff(attempt int, retryAfter time.Duration) time.Duration {
	delay := c.cfg.BaseDelay << (attempt - 1)
	if delay <= 0 || delay > c.cfg.MaxDelay {
		delay = c.cfg.MaxDelay
	}
	if retryAfter > delay {
		delay = retryAfter
		if delay > c.cfg.MaxDelay {
			delay = c.cfg.MaxDelay
		}
	}
	return delay
}

// classify reports whether err is transient and any server-requested delay.
// Errors without an HTTP status (network failures, call timeouts) are transient.
func classify(err error) (bool, time.Duration) {
	if se, ok := asStatusError(err); ok {
		return se.Retryable(), se.RetryAfter
	}
	if errors.Is(err, domain.ErrProviderRejected) {
		return false, 0
	}
	return true, 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
