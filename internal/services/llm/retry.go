package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/common"
)

// Default retry constants
const (
	DefaultMaxAttempts = 2
	DefaultBaseBackoff = time.Second
)

// RetryPolicy retries transient failures with a delay that doubles from BaseBackoff.
// Rate-limit errors are never retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	// Timeout bounds each attempt; zero means no per-attempt timeout
	Timeout time.Duration
}

// NewRetryPolicy builds a policy from the [llm] section and the default provider's timeout
func NewRetryPolicy(config *common.Config) RetryPolicy {
	timeout := config.Gemini.Timeout
	if config.LLM.DefaultProvider == common.LLMProviderClaude {
		timeout = config.Claude.Timeout
	}
	policy := RetryPolicy{
		MaxAttempts: config.LLM.MaxAttempts,
		BaseBackoff: common.ParseDurationOr(config.LLM.BaseBackoff, DefaultBaseBackoff),
		Timeout:     common.ParseDurationOr(timeout, 0),
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	return policy
}

// Backoff returns the wait before attempt n+1 (n is 0-based)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseBackoff << uint(attempt)
}

// Do runs fn until it succeeds, the attempts are exhausted, a rate limit is hit,
// or ctx is cancelled. A rate-limit failure returns an error wrapping ErrRateLimited.
func (p RetryPolicy) Do(ctx context.Context, logger arbor.ILogger, operation string, fn func(ctx context.Context) (string, error)) (string, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		text, err := p.attempt(ctx, fn)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if IsRateLimitError(err) {
			logger.Warn().Str("operation", operation).Err(err).Msg("Rate limit reached, not retrying")
			return "", fmt.Errorf("%s: %w: %v", operation, ErrRateLimited, err)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt == attempts-1 {
			break
		}

		backoff := p.Backoff(attempt)
		logger.Warn().
			Str("operation", operation).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("Retrying LLM call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(callCtx)
}
