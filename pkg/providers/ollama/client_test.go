package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acreview/landchat/pkg/llm"
)

func TestChatCompletionFlattensPrompt(t *testing.T) {
	var captured generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(generateResponse{
			Model:           captured.Model,
			Response:        "  Corn does well in clay loam.  ",
			Done:            true,
			DoneReason:      "stop",
			PromptEvalCount: 12,
			EvalCount:       8,
		})
	}))
	defer server.Close()

	client, err := NewClient(llm.ClientConfig{
		Provider: "ollama",
		Model:    "llama3.1",
		BaseURL:  server.URL,
	})
	require.NoError(t, err)

	temp := float32(0.2)
	resp, err := client.ChatCompletion(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "You are helpful"),
			llm.NewTextMessage(llm.RoleUser, "What grows in clay loam?"),
		},
		Temperature: &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, "llama3.1", captured.Model)
	assert.False(t, captured.Stream)
	assert.Equal(t,
		"System: You are helpful\n\nUser: What grows in clay loam?\n\nAssistant: ",
		captured.Prompt)
	require.NotNil(t, captured.Options)
	assert.Equal(t, temp, *captured.Options.Temperature)

	assert.Equal(t, "Corn does well in clay loam.", resp.GetText())
	assert.Equal(t, llm.FinishReasonStop, resp.Choices[0].FinishReason)
	assert.Equal(t, 20, resp.Usage.TotalTokens)
	assert.Empty(t, resp.GetToolCalls())
}

func TestChatCompletionLengthFinish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{
			Model:      "llama3.1",
			Response:   "truncated output",
			Done:       true,
			DoneReason: "length",
		})
	}))
	defer server.Close()

	client, err := NewClient(llm.ClientConfig{Model: "llama3.1", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.ChatCompletion(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "go on forever")},
	})
	require.NoError(t, err)
	assert.Equal(t, llm.FinishReasonLength, resp.Choices[0].FinishReason)
}

func TestChatCompletionAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(apiError{Error: "model 'nope' not found"})
	}))
	defer server.Close()

	client, err := NewClient(llm.ClientConfig{Model: "nope", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.ChatCompletion(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
	})
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "ollama_404", llmErr.Code)
	assert.Equal(t, 404, llmErr.StatusCode)
	assert.Equal(t, "model 'nope' not found", llmErr.Message)
}

func TestChatCompletionRateLimitError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(apiError{Error: "busy"})
	}))
	defer server.Close()

	client, err := NewClient(llm.ClientConfig{Model: "llama3.1", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.ChatCompletion(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
	})
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrorTypeRateLimit, llmErr.Type)
}

func TestGetRemoteHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(llm.ClientConfig{Model: "llama3.1", BaseURL: server.URL})
	require.NoError(t, err)

	info := client.GetRemote()
	assert.Equal(t, "ollama", info.Name)
	require.NotNil(t, info.Status)
	require.NotNil(t, info.Status.Healthy)
	assert.True(t, *info.Status.Healthy)
}

func TestGetModelInfoContextSizes(t *testing.T) {
	cases := []struct {
		model     string
		maxTokens int
	}{
		{"llama3.1", 131072},
		{"qwen2.5", 32768},
		{"codellama", 16384},
		{"unknown-model", 4096},
	}

	for _, tc := range cases {
		client, err := NewClient(llm.ClientConfig{Model: tc.model})
		require.NoError(t, err)

		info := client.GetModelInfo()
		assert.Equal(t, tc.maxTokens, info.MaxTokens, "model %s", tc.model)
		assert.False(t, info.SupportsTools)
	}
}
