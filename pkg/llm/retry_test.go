package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCompleter replays queued errors then responses.
type scriptedCompleter struct {
	responses []*ChatResponse
	errors    []error
	callCount int
}

func (s *scriptedCompleter) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	idx := s.callCount
	s.callCount++

	if idx < len(s.errors) && s.errors[idx] != nil {
		return nil, s.errors[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return &ChatResponse{ID: "scripted", Model: req.Model}, nil
}

func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:    maxRetries,
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetryChatCompletionSuccessFirstTry(t *testing.T) {
	mock := &scriptedCompleter{
		responses: []*ChatResponse{{ID: "ok", Model: "m"}},
	}

	resp, err := RetryChatCompletion(mock, fastRetryConfig(3)).ChatCompletion(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.ID)
	assert.Equal(t, 1, mock.callCount)
}

func TestRetryChatCompletionRetriesRateLimit(t *testing.T) {
	rateLimited := &Error{
		Code:       "rate_limit_exceeded",
		Message:    "slow down",
		Type:       ErrorTypeRateLimit,
		StatusCode: 429,
	}
	mock := &scriptedCompleter{
		errors:    []error{rateLimited, rateLimited},
		responses: []*ChatResponse{nil, nil, {ID: "eventually", Model: "m"}},
	}

	resp, err := RetryChatCompletion(mock, fastRetryConfig(3)).ChatCompletion(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "eventually", resp.ID)
	assert.Equal(t, 3, mock.callCount)
}

func TestRetryChatCompletionDoesNotRetryValidation(t *testing.T) {
	badRequest := &Error{
		Code:       "bad_request",
		Message:    "model is required",
		Type:       ErrorTypeValidation,
		StatusCode: 400,
	}
	mock := &scriptedCompleter{errors: []error{badRequest}}

	_, err := RetryChatCompletion(mock, fastRetryConfig(3)).ChatCompletion(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, mock.callCount)
}

func TestRetryChatCompletionExhaustsRetries(t *testing.T) {
	serverErr := &Error{
		Code:       "server_error",
		Message:    "upstream down",
		Type:       ErrorTypeAPI,
		StatusCode: 503,
	}
	mock := &scriptedCompleter{
		errors: []error{serverErr, serverErr, serverErr, serverErr},
	}

	_, err := RetryChatCompletion(mock, fastRetryConfig(2)).ChatCompletion(context.Background(), ChatRequest{})
	require.Error(t, err)
	// Original attempt plus two retries.
	assert.Equal(t, 3, mock.callCount)
}

func TestRetryChatCompletionHonorsContextCancel(t *testing.T) {
	serverErr := &Error{Code: "server_error", Type: ErrorTypeAPI, StatusCode: 500}
	mock := &scriptedCompleter{
		errors: []error{serverErr, serverErr, serverErr},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryChatCompletion(mock, RetryConfig{
		MaxRetries:    3,
		BaseDelay:     time.Second,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}).ChatCompletion(ctx, ChatRequest{})
	require.Error(t, err)
	assert.Less(t, mock.callCount, 3)
}
