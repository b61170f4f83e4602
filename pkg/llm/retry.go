// Retry support for chat completions.
//
// Wrap any client to retry throttled or transiently failing calls:
//
//	retryClient := llm.RetryChatCompletion(client)
//	resp, err := retryClient.ChatCompletion(ctx, request)
//
// A custom policy can be passed for rate-limited deployments:
//
//	retryClient := llm.RetryChatCompletion(client, llm.RetryConfig{
//		MaxRetries:    5,
//		BaseDelay:     2 * time.Second,
//		MaxDelay:      5 * time.Minute,
//		BackoffFactor: 2.5,
//		Jitter:        true,
//	})
package llm

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// ChatCompleter is the minimal surface needed to run a completion. Every
// built-in provider client implements it, so any of them can be wrapped
// with RetryChatCompletion.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// RetryConfig defines a backoff policy for repeated completion attempts.
type RetryConfig struct {
	// MaxRetries is the number of retries after the original attempt
	// (default: 3), so total requests = MaxRetries + 1.
	MaxRetries int

	// BaseDelay is the delay before the first retry (default: 1 second).
	// Each subsequent retry multiplies it by BackoffFactor.
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries (default: 60 seconds).
	MaxDelay time.Duration

	// BackoffFactor multiplies the delay after each retry (default: 2.0).
	BackoffFactor float64

	// Jitter scales each delay by a random factor between 0.5 and 1.5 to
	// avoid synchronized retry bursts (default: true).
	Jitter bool

	// RetryableErrors lists additional error codes that should trigger
	// retries on top of the built-in throttling and 5xx handling.
	RetryableErrors []string
}

// DefaultRetryConfig returns a sensible default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		BaseDelay:       1 * time.Second,
		MaxDelay:        60 * time.Second,
		BackoffFactor:   2.0,
		Jitter:          true,
		RetryableErrors: []string{"rate_limit_exceeded"},
	}
}

// RetryableChatCompleter wraps a ChatCompleter with retry functionality
type RetryableChatCompleter struct {
	client ChatCompleter
	config RetryConfig
}

// RetryChatCompletion creates a retrying wrapper around any ChatCompleter.
// Throttling errors (HTTP 429), rate limit errors and temporary server
// errors (5xx) are retried with exponential backoff; everything else is
// returned immediately.
func RetryChatCompletion(client ChatCompleter, config ...RetryConfig) ChatCompleter {
	cfg := DefaultRetryConfig()
	if len(config) > 0 {
		cfg = config[0]
		if cfg.MaxRetries <= 0 {
			cfg.MaxRetries = 3
		}
		if cfg.BaseDelay <= 0 {
			cfg.BaseDelay = 1 * time.Second
		}
		if cfg.MaxDelay <= 0 {
			cfg.MaxDelay = 60 * time.Second
		}
		if cfg.BackoffFactor <= 0 {
			cfg.BackoffFactor = 2.0
		}
		if cfg.RetryableErrors == nil {
			cfg.RetryableErrors = []string{"rate_limit_exceeded"}
		}
	}

	return &RetryableChatCompleter{
		client: client,
		config: cfg,
	}
}

// ChatCompletion executes the chat completion with retry logic
func (r *RetryableChatCompleter) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		resp, err := r.client.ChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if attempt == r.config.MaxRetries {
			break
		}

		if !r.isRetryableError(err) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.calculateDelay(attempt)):
		}
	}

	return nil, lastErr
}

// isRetryableError determines if an error should trigger a retry
func (r *RetryableChatCompleter) isRetryableError(err error) bool {
	llmErr, ok := err.(*Error)
	if !ok {
		return false
	}

	if llmErr.Type == ErrorTypeRateLimit || llmErr.StatusCode == 429 {
		return true
	}

	for _, code := range r.config.RetryableErrors {
		if llmErr.Code == code {
			return true
		}
	}

	// Server errors might be temporary.
	return llmErr.StatusCode >= 500 && llmErr.StatusCode < 600
}

// calculateDelay computes the delay for a given retry attempt using exponential backoff
func (r *RetryableChatCompleter) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.BaseDelay) * math.Pow(r.config.BackoffFactor, float64(attempt))

	if r.config.Jitter {
		delay *= 0.5 + rand.Float64()
	}

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	return time.Duration(delay)
}

var _ ChatCompleter = (*RetryableChatCompleter)(nil)
