package deepseek

import (
	"context"
	"strings"
	"time"

	"github.com/cohesion-org/deepseek-go"

	"github.com/acreview/landchat/pkg/llm"
)

// Client implements the llm.Client interface for DeepSeek
type Client struct {
	client   *deepseek.Client
	model    string
	provider string

	// Health check caching
	lastHealthCheck  *time.Time
	lastHealthStatus *bool
}

// NewClient creates a new DeepSeek client
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, llm.NewConfigurationError("API key is required for DeepSeek")
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultDeepseekModel
	}

	var opts []deepseek.Option
	if config.BaseURL != "" {
		opts = append(opts, deepseek.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, deepseek.WithTimeout(config.Timeout))
	}

	var client *deepseek.Client
	if len(opts) > 0 {
		var err error
		client, err = deepseek.NewClientWithOptions(config.APIKey, opts...)
		if err != nil {
			return nil, llm.NewConfigurationError("failed to create DeepSeek client: %v", err)
		}
	} else {
		client = deepseek.NewClient(config.APIKey)
	}

	return &Client{
		client:   client,
		model:    model,
		provider: "deepseek",
	}, nil
}

// ChatCompletion performs a chat completion request
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	deepseekReq := c.convertRequest(req)

	resp, err := c.client.CreateChatCompletion(ctx, &deepseekReq)
	if err != nil {
		return nil, c.convertError(err)
	}

	return c.convertResponse(*resp), nil
}

// GetRemote returns information about the remote client
func (c *Client) GetRemote() llm.ClientRemoteInfo {
	info := llm.ClientRemoteInfo{
		Name: c.provider,
	}

	now := time.Now()
	needsRefresh := c.lastHealthCheck == nil ||
		now.Sub(*c.lastHealthCheck) >= llm.DefaultHealthCheckInterval

	if needsRefresh {
		healthy := c.performHealthCheck()
		c.lastHealthStatus = &healthy
		c.lastHealthCheck = &now
	}

	info.Status = &llm.ClientRemoteInfoStatus{
		Healthy:     c.lastHealthStatus,
		LastChecked: c.lastHealthCheck,
	}

	return info
}

// performHealthCheck performs a simple health check on the DeepSeek API
func (c *Client) performHealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := deepseek.ChatCompletionRequest{
		Model: c.model,
		Messages: []deepseek.ChatCompletionMessage{
			{Role: "user", Content: "test"},
		},
		MaxTokens: 1,
	}

	_, err := c.client.CreateChatCompletion(ctx, &req)
	return err == nil
}

// GetModelInfo returns information about the model
func (c *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:          c.model,
		Provider:      c.provider,
		MaxTokens:     32768,
		SupportsTools: true,
		NativeToolIDs: true,
	}
}

// Close cleans up resources
func (c *Client) Close() error {
	c.client = nil
	return nil
}

// convertRequest converts our llm.ChatRequest to DeepSeek format
func (c *Client) convertRequest(req llm.ChatRequest) deepseek.ChatCompletionRequest {
	messages := make([]deepseek.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = deepseek.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCalls:  convertToolCallsToDeepSeek(msg.ToolCalls),
			ToolCallID: msg.ToolCallID,
		}
	}

	var tools []deepseek.Tool
	for _, tool := range req.Tools {
		tools = append(tools, deepseek.Tool{
			Type: tool.Type,
			Function: deepseek.Function{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  convertToolParameters(tool.Function.Parameters),
			},
		})
	}

	deepseekReq := deepseek.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
	}

	if req.Temperature != nil {
		deepseekReq.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		deepseekReq.MaxTokens = *req.MaxTokens
	}
	if req.TopP != nil {
		deepseekReq.TopP = *req.TopP
	}

	return deepseekReq
}

// convertToolCallsToDeepSeek converts our ToolCalls to DeepSeek format
func convertToolCallsToDeepSeek(toolCalls []llm.ToolCall) []deepseek.ToolCall {
	if len(toolCalls) == 0 {
		return nil
	}

	out := make([]deepseek.ToolCall, len(toolCalls))
	for i, tc := range toolCalls {
		out[i] = deepseek.ToolCall{
			Index: i, // DeepSeek requires an index
			ID:    tc.ID,
			Type:  tc.Type,
			Function: deepseek.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}
	}
	return out
}

// convertToolParameters converts schema parameters to DeepSeek FunctionParameters
func convertToolParameters(params interface{}) *deepseek.FunctionParameters {
	if params == nil {
		return nil
	}

	paramMap, ok := params.(map[string]interface{})
	if !ok {
		return &deepseek.FunctionParameters{Type: "object"}
	}

	result := &deepseek.FunctionParameters{Type: "object"}
	if typeStr, ok := paramMap["type"].(string); ok {
		result.Type = typeStr
	}
	if propsMap, ok := paramMap["properties"].(map[string]interface{}); ok {
		result.Properties = propsMap
	}
	switch req := paramMap["required"].(type) {
	case []string:
		result.Required = req
	case []interface{}:
		required := make([]string, 0, len(req))
		for _, item := range req {
			if s, ok := item.(string); ok {
				required = append(required, s)
			}
		}
		result.Required = required
	}

	return result
}

// convertResponse converts DeepSeek response to our format
func (c *Client) convertResponse(resp deepseek.ChatCompletionResponse) *llm.ChatResponse {
	choices := make([]llm.Choice, len(resp.Choices))
	for i, choice := range resp.Choices {
		choices[i] = llm.Choice{
			Index: choice.Index,
			Message: llm.Message{
				Role:      llm.MessageRole(choice.Message.Role),
				Content:   choice.Message.Content,
				ToolCalls: convertToolCallsFromDeepSeek(choice.Message.ToolCalls),
			},
			FinishReason: choice.FinishReason,
		}
	}

	return &llm.ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: choices,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}

// convertToolCallsFromDeepSeek converts DeepSeek ToolCalls to our format
func convertToolCallsFromDeepSeek(toolCalls []deepseek.ToolCall) []llm.ToolCall {
	if len(toolCalls) == 0 {
		return nil
	}

	out := make([]llm.ToolCall, len(toolCalls))
	for i, tc := range toolCalls {
		out[i] = llm.ToolCall{
			ID:   tc.ID,
			Type: tc.Type,
			Function: llm.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}
	}
	return out
}

// convertError converts DeepSeek error to our standardized error format
func (c *Client) convertError(err error) *llm.Error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()
	lower := strings.ToLower(errorMsg)

	code := "api_error"
	errorType := llm.ErrorTypeAPI
	statusCode := 0

	switch {
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key") || strings.Contains(lower, "authentication"):
		code = "authentication_error"
		errorType = llm.ErrorTypeConfiguration
		statusCode = 401
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests"):
		code = "rate_limit_error"
		errorType = llm.ErrorTypeRateLimit
		statusCode = 429
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		code = "timeout_error"
		errorType = llm.ErrorTypeNetwork
		statusCode = 408
	}

	return &llm.Error{
		Code:       code,
		Message:    errorMsg,
		Type:       errorType,
		StatusCode: statusCode,
	}
}
