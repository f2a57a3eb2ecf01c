// Package llm holds what the generation adapters share. Each provider lives
// in its own subpackage.
package llm

import (
	"fmt"
	"net/http"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// Classify wraps a failed provider call in the domain error for its kind.
// statusCode is zero when no response arrived, which counts as a transient
// ErrProviderUnavailable. Timeouts and rate limits are transient too; other
// 4xx responses mean the provider rejected the request.
func Classify(provider string, statusCode int, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, kindOf(statusCode), err)
}

func kindOf(statusCode int) error {
	switch {
	case statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusTooManyRequests:
		return domain.ErrProviderUnavailable
	case statusCode >= 400 && statusCode < 500:
		return domain.ErrProviderRejected
	default:
		return domain.ErrProviderUnavailable
	}
}
