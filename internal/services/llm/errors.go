package llm

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

var (
	// ErrRateLimited is returned as soon as a provider signals quota exhaustion.
	// Retries are not attempted for it.
	ErrRateLimited = errors.New("llm rate limited")

	// ErrMissingAPIKey is returned when no credential resolves for the provider
	ErrMissingAPIKey = errors.New("llm api key not configured")

	// ErrMalformedResponse is returned when model output holds no parseable JSON
	ErrMalformedResponse = errors.New("llm response could not be parsed")
)

// IsRateLimitError reports whether err carries a rate-limit indicator.
// Matches 429 status codes, RESOURCE_EXHAUSTED, quota messages and Anthropic's rate_limit_error.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(errStr), "quota") ||
		strings.Contains(errStr, "rate_limit_error")
}
