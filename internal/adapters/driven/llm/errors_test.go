package llm

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

func TestClassify(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"no response", 0, domain.ErrProviderUnavailable},
		{"server error", http.StatusBadGateway, domain.ErrProviderUnavailable},
		{"rate limited", http.StatusTooManyRequests, domain.ErrProviderUnavailable},
		{"timeout", http.StatusRequestTimeout, domain.ErrProviderUnavailable},
		{"bad request", http.StatusBadRequest, domain.ErrProviderRejected},
		{"unauthorised", http.StatusUnauthorized, domain.ErrProviderRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("test", tt.status, cause)

			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, cause)
			assert.NotErrorIs(t, err, domain.ErrLLMUnavailable, "reserved for a missing LLM configuration")
			assert.Contains(t, err.Error(), "test: ")
		})
	}
}
