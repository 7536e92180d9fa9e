package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RetryConfig controls retries of transient provider failures.
type RetryConfig struct {
	MaxRetries      int           // attempts after the first failure
	InitialInterval time.Duration // first backoff delay
	MaxInterval     time.Duration // backoff ceiling
}

// DefaultRetryConfig returns the defaults used when Options.Retry is zero.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups error substrings by failure category, matched
// case-insensitively. String matching is unavoidable here: Genkit and the
// provider SDKs do not expose typed errors for transient failures.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "timeout", "temporary"}, // network errors
}

// retryableError reports whether err looks transient.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, pattern := range group {
			if strings.Contains(msg, pattern) {
				return true
			}
		}
	}
	return false
}

// withRetry runs fn with the client's rate limiter applied to every attempt
// and exponential backoff between attempts. Non-retryable errors and context
// cancellation abort immediately.
func withRetry[T any](ctx context.Context, c *Client, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := c.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, fmt.Errorf("rate limiter: %w", err)
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("provider call succeeded after retry",
					"attempts", attempt+1,
					"elapsed", time.Since(start))
			}
			return result, nil
		}
		lastErr = err

		if !retryableError(err) {
			return zero, err
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		c.logger.Warn("transient provider error, backing off",
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.retry.MaxInterval {
			delay = c.retry.MaxInterval
		}
	}

	return zero, fmt.Errorf("provider call failed after %d attempts: %w", c.retry.MaxRetries+1, lastErr)
}
