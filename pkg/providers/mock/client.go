package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/acreview/landchat/pkg/llm"
)

// Client implements the llm.Client interface for testing
type Client struct {
	mu            sync.Mutex
	modelInfo     llm.ModelInfo
	responses     []llm.ChatResponse
	responseIndex int
	errors        []error
	errorIndex    int
	callLog       []llm.ChatRequest
	latency       time.Duration
}

// NewClient creates a new mock LLM client for testing
func NewClient(modelName, provider string) (*Client, error) {
	return &Client{
		modelInfo: llm.ModelInfo{
			Name:          modelName,
			Provider:      provider,
			MaxTokens:     4096,
			SupportsTools: true,
			NativeToolIDs: true,
		},
	}, nil
}

// ChatCompletion returns pre-configured responses or errors. Queued errors
// are consumed before queued responses; with nothing queued, a canned text
// reply is generated.
func (m *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.callLog = append(m.callLog, req)
	latency := m.latency
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.errorIndex < len(m.errors) {
		err := m.errors[m.errorIndex]
		m.errorIndex++
		return nil, err
	}

	if m.responseIndex < len(m.responses) {
		resp := m.responses[m.responseIndex]
		m.responseIndex++
		return &resp, nil
	}

	var lastUserMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}

	response := fmt.Sprintf("Mock response to: %s", lastUserMessage)
	return &llm.ChatResponse{
		ID:    fmt.Sprintf("mock-resp-%d", time.Now().UnixNano()),
		Model: req.Model,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.NewTextMessage(llm.RoleAssistant, response),
			FinishReason: llm.FinishReasonStop,
		}},
		Usage: llm.Usage{
			PromptTokens:     len(strings.Split(lastUserMessage, " ")) + 5,
			CompletionTokens: len(strings.Split(response, " ")),
		},
	}, nil
}

// GetRemote returns information about the remote client
func (m *Client) GetRemote() llm.ClientRemoteInfo {
	healthy := true
	now := time.Now()
	return llm.ClientRemoteInfo{
		Name: "mock",
		Status: &llm.ClientRemoteInfoStatus{
			Healthy:     &healthy,
			LastChecked: &now,
		},
	}
}

// GetModelInfo returns the configured model info
func (m *Client) GetModelInfo() llm.ModelInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelInfo
}

// Close does nothing for mock client
func (m *Client) Close() error {
	return nil
}

// Test helper methods

// AddResponse adds a response to be returned by subsequent calls
func (m *Client) AddResponse(response llm.ChatResponse) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
	return m
}

// AddError adds an error to be returned by subsequent calls
func (m *Client) AddError(err error) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
	return m
}

// GetCallLog returns all requests made to this mock client
func (m *Client) GetCallLog() []llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callLog
}

// GetLastCall returns the most recent request made to this mock client
func (m *Client) GetLastCall() *llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.callLog) == 0 {
		return nil
	}
	return &m.callLog[len(m.callLog)-1]
}

// Reset clears all responses, errors, and call logs
func (m *Client) Reset() *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = nil
	m.responseIndex = 0
	m.errors = nil
	m.errorIndex = 0
	m.callLog = nil
	return m
}

// WithSimpleResponse adds a simple text response
func (m *Client) WithSimpleResponse(content string) *Client {
	return m.AddResponse(llm.ChatResponse{
		ID:    fmt.Sprintf("mock-simple-%d", time.Now().UnixNano()),
		Model: m.modelInfo.Name,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.NewTextMessage(llm.RoleAssistant, content),
			FinishReason: llm.FinishReasonStop,
		}},
	})
}

// WithToolCalls adds a response that requests the given tool calls
func (m *Client) WithToolCalls(toolCalls ...llm.ToolCall) *Client {
	return m.AddResponse(llm.ChatResponse{
		ID:    fmt.Sprintf("mock-tool-%d", time.Now().UnixNano()),
		Model: m.modelInfo.Name,
		Choices: []llm.Choice{{
			Index: 0,
			Message: llm.Message{
				Role:      llm.RoleAssistant,
				ToolCalls: toolCalls,
			},
			FinishReason: llm.FinishReasonToolCalls,
		}},
	})
}

// WithError adds an error response
func (m *Client) WithError(code, message, errorType string) *Client {
	return m.AddError(&llm.Error{
		Code:    code,
		Message: message,
		Type:    errorType,
	})
}

// WithLatency configures simulated latency for requests
func (m *Client) WithLatency(duration time.Duration) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = duration
	return m
}

// WithModelInfo overrides the reported model info
func (m *Client) WithModelInfo(info llm.ModelInfo) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelInfo = info
	return m
}
