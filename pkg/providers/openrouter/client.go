package openrouter

import (
	"context"
	"errors"
	"time"

	"github.com/revrost/go-openrouter"

	"github.com/acreview/landchat/pkg/llm"
)

// Client implements the llm.Client interface for OpenRouter.
type Client struct {
	client   *openrouter.Client
	model    string
	provider string

	// Health check caching
	lastHealthCheck  *time.Time
	lastHealthStatus *bool
}

// NewClient creates a new OpenRouter client.
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, llm.NewConfigurationError("API key is required for OpenRouter")
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultOpenRouterModel
	}

	clientConfig := openrouter.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Extra != nil {
		if siteURL, ok := config.Extra["site_url"]; ok {
			clientConfig.HttpReferer = siteURL
		}
		if appName, ok := config.Extra["app_name"]; ok {
			clientConfig.XTitle = appName
		}
	}

	return &Client{
		client:   openrouter.NewClientWithConfig(*clientConfig),
		model:    model,
		provider: "openrouter",
	}, nil
}

// ChatCompletion performs a chat completion request.
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	openrouterReq := c.convertRequest(req)

	resp, err := c.client.CreateChatCompletion(ctx, openrouterReq)
	if err != nil {
		return nil, c.convertError(err)
	}

	return c.convertResponse(resp), nil
}

// GetRemote returns information about the remote endpoint.
func (c *Client) GetRemote() llm.ClientRemoteInfo {
	info := llm.ClientRemoteInfo{
		Name: "openrouter",
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

func (c *Client) performHealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.client.ListModels(ctx)
	return err == nil
}

// GetModelInfo returns information about the model.
func (c *Client) GetModelInfo() llm.ModelInfo {
	// OpenRouter routes to many upstream models; tool support and the
	// context window vary by model, so advertise conservative defaults.
	return llm.ModelInfo{
		Name:          c.model,
		Provider:      c.provider,
		MaxTokens:     128000,
		SupportsTools: true,
		NativeToolIDs: true,
	}
}

// Close cleans up resources.
func (c *Client) Close() error {
	c.client = nil
	return nil
}

func (c *Client) convertRequest(req llm.ChatRequest) openrouter.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	openrouterReq := openrouter.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openrouter.ChatCompletionMessage, 0, len(req.Messages)),
	}

	if req.Temperature != nil {
		openrouterReq.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		openrouterReq.MaxTokens = *req.MaxTokens
	}
	if req.TopP != nil {
		openrouterReq.TopP = *req.TopP
	}

	for _, msg := range req.Messages {
		openrouterReq.Messages = append(openrouterReq.Messages, c.convertMessage(msg))
	}

	if len(req.Tools) > 0 {
		openrouterReq.Tools = make([]openrouter.Tool, 0, len(req.Tools))
		for _, tool := range req.Tools {
			openrouterReq.Tools = append(openrouterReq.Tools, openrouter.Tool{
				Type: openrouter.ToolType(tool.Type),
				Function: &openrouter.FunctionDefinition{
					Name:        tool.Function.Name,
					Description: tool.Function.Description,
					Parameters:  tool.Function.Parameters,
				},
			})
		}
	}

	return openrouterReq
}

func (c *Client) convertMessage(msg llm.Message) openrouter.ChatCompletionMessage {
	openrouterMsg := openrouter.ChatCompletionMessage{
		Role:    string(msg.Role),
		Content: openrouter.Content{Text: msg.Content},
	}

	if msg.ToolCallID != "" {
		openrouterMsg.ToolCallID = msg.ToolCallID
	}

	if len(msg.ToolCalls) > 0 {
		openrouterMsg.ToolCalls = make([]openrouter.ToolCall, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			openrouterMsg.ToolCalls = append(openrouterMsg.ToolCalls, openrouter.ToolCall{
				ID:   tc.ID,
				Type: openrouter.ToolType(tc.Type),
				Function: openrouter.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	}

	return openrouterMsg
}

func (c *Client) convertResponse(resp openrouter.ChatCompletionResponse) *llm.ChatResponse {
	response := &llm.ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: make([]llm.Choice, 0, len(resp.Choices)),
	}

	if resp.Usage != nil {
		response.Usage = llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	for _, choice := range resp.Choices {
		ourChoice := llm.Choice{
			Index:        choice.Index,
			FinishReason: string(choice.FinishReason),
			Message: llm.Message{
				Role:    llm.MessageRole(choice.Message.Role),
				Content: choice.Message.Content.Text,
			},
		}

		if len(choice.Message.ToolCalls) > 0 {
			ourChoice.Message.ToolCalls = make([]llm.ToolCall, 0, len(choice.Message.ToolCalls))
			for _, tc := range choice.Message.ToolCalls {
				ourChoice.Message.ToolCalls = append(ourChoice.Message.ToolCalls, llm.ToolCall{
					ID:   tc.ID,
					Type: string(tc.Type),
					Function: llm.ToolCallFunction{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
		}

		response.Choices = append(response.Choices, ourChoice)
	}

	return response
}

func (c *Client) convertError(err error) *llm.Error {
	if err == nil {
		return nil
	}

	var apiErr *openrouter.APIError
	if errors.As(err, &apiErr) {
		errorType := llm.ErrorTypeAPI
		errorCode := "openrouter_api_error"
		switch apiErr.HTTPStatusCode {
		case 400:
			errorType = llm.ErrorTypeValidation
			errorCode = "bad_request"
		case 401, 403:
			errorType = llm.ErrorTypeConfiguration
			errorCode = "invalid_api_key"
		case 429:
			errorType = llm.ErrorTypeRateLimit
			errorCode = "rate_limit_exceeded"
		}
		return &llm.Error{
			Code:       errorCode,
			Message:    apiErr.Message,
			Type:       errorType,
			StatusCode: apiErr.HTTPStatusCode,
		}
	}

	var reqErr *openrouter.RequestError
	if errors.As(err, &reqErr) {
		return &llm.Error{
			Code:       "request_failed",
			Message:    reqErr.Error(),
			Type:       llm.ErrorTypeNetwork,
			StatusCode: reqErr.HTTPStatusCode,
		}
	}

	return &llm.Error{
		Code:    "openrouter_error",
		Message: err.Error(),
		Type:    llm.ErrorTypeNetwork,
	}
}
