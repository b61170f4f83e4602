package gemini

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/acreview/landchat/pkg/llm"
)

// safeIntToInt32 safely converts int to int32
func safeIntToInt32(val int) int32 {
	if val > 2147483647 {
		return 2147483647
	}
	if val < -2147483648 {
		return -2147483648
	}
	return int32(val)
}

// modelCapabilities defines the capabilities for a model pattern
type modelCapabilities struct {
	pattern   *regexp.Regexp
	maxTokens int
}

// modelCapabilitiesList defines context sizes for different Gemini models.
// Models are matched in order, first match wins.
var modelCapabilitiesList = []modelCapabilities{
	{regexp.MustCompile(`gemini-1\.5-pro`), 2000000},
	{regexp.MustCompile(`gemini-1\.5-flash`), 1000000},
	{regexp.MustCompile(`gemini-2\.`), 1000000},
}

type Client struct {
	model    string
	provider string
	genai    *genai.Client

	// Health check caching
	lastHealthCheck  *time.Time
	lastHealthStatus *bool
}

// NewClient creates a new Gemini client using the official Google Generative AI library.
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, llm.NewConfigurationError("API key is required for Gemini")
	}
	if config.Model == "" {
		config.Model = llm.DefaultGeminiModel
	}

	genaiConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.Timeout > 0 {
		genaiConfig.HTTPOptions.Timeout = &config.Timeout
	}

	genaiClient, err := genai.NewClient(context.Background(), genaiConfig)
	if err != nil {
		return nil, &llm.Error{
			Code:    "client_creation_error",
			Message: fmt.Sprintf("Failed to create genai client: %v", err),
			Type:    llm.ErrorTypeConfiguration,
		}
	}

	return &Client{
		model:    config.Model,
		provider: "gemini",
		genai:    genaiClient,
	}, nil
}

// ChatCompletion performs a non-streaming content generation request.
// Conversations are flattened into a single role-prefixed prompt because this
// adapter does not carry structured chat roles or tool definitions across.
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, &llm.Error{
			Code:       "invalid_request",
			Message:    "No messages provided",
			Type:       llm.ErrorTypeValidation,
			StatusCode: 400,
		}
	}

	prompt := llm.FlattenMessages(req.Messages)

	config := &genai.GenerateContentConfig{}
	if req.Temperature != nil {
		config.Temperature = req.Temperature
	}
	if req.MaxTokens != nil {
		config.MaxOutputTokens = safeIntToInt32(*req.MaxTokens)
	}

	chat, err := c.genai.Chats.Create(ctx, c.model, config, nil)
	if err != nil {
		return nil, c.convertError(err)
	}

	response, err := chat.SendMessage(ctx, *genai.NewPartFromText(prompt))
	if err != nil {
		return nil, c.convertError(err)
	}

	return c.convertResponse(response), nil
}

// convertResponse converts genai response to our internal format
func (c *Client) convertResponse(resp *genai.GenerateContentResponse) *llm.ChatResponse {
	id := fmt.Sprintf("gemini-%s", time.Now().Format(time.RFC3339Nano))

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return &llm.ChatResponse{
			ID:      id,
			Model:   c.model,
			Choices: []llm.Choice{},
		}
	}

	candidate := resp.Candidates[0]
	text := candidate.Content.Parts[0].Text

	finishReason := llm.FinishReasonStop
	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		finishReason = llm.FinishReasonLength
	} else if strings.Contains(string(candidate.FinishReason), "SAFETY") {
		finishReason = "content_filter"
	}

	return &llm.ChatResponse{
		ID:    id,
		Model: c.model,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.NewTextMessage(llm.RoleAssistant, text),
			FinishReason: finishReason,
		}},
	}
}

// convertError converts genai errors to our internal error format
func (c *Client) convertError(err error) *llm.Error {
	if err == nil {
		return nil
	}

	if ourErr, ok := err.(*llm.Error); ok {
		return ourErr
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "API key") ||
		strings.Contains(errMsg, "authentication") ||
		strings.Contains(errMsg, "unauthorized") ||
		strings.Contains(errMsg, "401") {
		return &llm.Error{
			Code:       "authentication_error",
			Message:    errMsg,
			Type:       llm.ErrorTypeConfiguration,
			StatusCode: 401,
		}
	}

	if strings.Contains(errMsg, "rate limit") ||
		strings.Contains(errMsg, "429") {
		return &llm.Error{
			Code:       "rate_limit_error",
			Message:    errMsg,
			Type:       llm.ErrorTypeRateLimit,
			StatusCode: 429,
		}
	}

	if strings.Contains(errMsg, "quota") ||
		strings.Contains(errMsg, "403") {
		return &llm.Error{
			Code:       "quota_error",
			Message:    errMsg,
			Type:       llm.ErrorTypeAPI,
			StatusCode: 403,
		}
	}

	return &llm.Error{
		Code:    "api_error",
		Message: errMsg,
		Type:    llm.ErrorTypeAPI,
	}
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

// performHealthCheck performs a simple health check on the Gemini API
func (c *Client) performHealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: 1,
	}

	chat, err := c.genai.Chats.Create(ctx, c.model, config, nil)
	if err != nil {
		return false
	}

	_, err = chat.SendMessage(ctx, *genai.NewPartFromText("test"))
	return err == nil
}

func (c *Client) GetModelInfo() llm.ModelInfo {
	maxTokens := 30720
	for _, caps := range modelCapabilitiesList {
		if caps.pattern.MatchString(c.model) {
			maxTokens = caps.maxTokens
			break
		}
	}

	return llm.ModelInfo{
		Name:          c.model,
		Provider:      c.provider,
		MaxTokens:     maxTokens,
		SupportsTools: false,
		NativeToolIDs: false,
	}
}

func (c *Client) Close() error {
	// The genai client doesn't provide a Close method, so we don't need to do anything
	return nil
}
