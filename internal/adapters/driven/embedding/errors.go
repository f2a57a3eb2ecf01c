package embedding

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError is a non-2xx provider response. Provider adapters return it so
// the client can tell transient failures from rejections.
type StatusError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s error (status %d, %s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	if e.isQuota() {
		return false
	}
	switch {
	case e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

func (e *StatusError) isQuota() bool {
	return e.StatusCode == http.StatusPaymentRequired ||
		strings.Contains(e.Code, "quota") ||
		strings.Contains(strings.ToLower(e.Message), "quota")
}

// NewStatusError builds a StatusError from an HTTP response and its body.
func NewStatusError(provider string, resp *http.Response, body []byte) *StatusError {
	return &StatusError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// ParseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func ParseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// asStatusError unwraps err to a *StatusError.
func asStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
