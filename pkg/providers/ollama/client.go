package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/acreview/landchat/pkg/llm"
)

// modelCapabilities defines the capabilities for a model pattern
type modelCapabilities struct {
	pattern   *regexp.Regexp
	maxTokens int
}

// modelCapabilitiesList defines context sizes for different Ollama models.
// Models are matched in order, first match wins.
var modelCapabilitiesList = []modelCapabilities{
	{regexp.MustCompile(`llama3\.1`), 131072},
	{regexp.MustCompile(`qwen`), 32768},
	{regexp.MustCompile(`codellama`), 16384},
	{regexp.MustCompile(`mistral`), 32768},
}

// Client implements the llm.Client interface for Ollama
type Client struct {
	model      string
	baseURL    string
	httpClient *http.Client

	// Health check caching
	lastHealthCheck  *time.Time
	lastHealthStatus *bool
}

// NewClient creates a new Ollama client
func NewClient(config llm.ClientConfig) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = llm.DefaultOllamaBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	model := config.Model
	if model == "" {
		model = llm.DefaultOllamaModel
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = llm.DefaultOllamaTimeout // local inference can be slow
	}

	return &Client{
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Ollama API structures
type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"` // Ollama's equivalent to max_tokens
}

type generateResponse struct {
	Model      string `json:"model"`
	Response   string `json:"response"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason,omitempty"`
	Error      string `json:"error,omitempty"`

	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
}

// ChatCompletion performs a completion request against Ollama's generate API.
// The conversation is flattened into a single role-prefixed prompt because
// local models served this way do not take structured chat messages or tools.
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	genReq := generateRequest{
		Model:  c.model,
		Prompt: llm.FlattenMessages(req.Messages),
		Stream: false,
	}

	if req.Temperature != nil || req.MaxTokens != nil || req.TopP != nil {
		options := &generateOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
			TopP:        req.TopP,
		}
		genReq.Options = options
	}

	reqBody, err := json.Marshal(genReq)
	if err != nil {
		return nil, &llm.Error{
			Code:    "request_error",
			Message: fmt.Sprintf("Failed to serialize request: %v", err),
			Type:    llm.ErrorTypeSerialization,
		}
	}

	url := fmt.Sprintf("%s/api/generate", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, &llm.Error{
			Code:    "request_error",
			Message: fmt.Sprintf("Failed to create request: %v", err),
			Type:    llm.ErrorTypeNetwork,
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &llm.Error{
			Code:    "network_error",
			Message: fmt.Sprintf("Request failed: %v", err),
			Type:    llm.ErrorTypeNetwork,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &llm.Error{
			Code:    "response_error",
			Message: fmt.Sprintf("Failed to read response: %v", err),
			Type:    llm.ErrorTypeNetwork,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.convertAPIError(body, resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, &llm.Error{
			Code:    "parse_error",
			Message: fmt.Sprintf("Failed to parse response: %v", err),
			Type:    llm.ErrorTypeSerialization,
		}
	}

	return c.convertResponse(genResp), nil
}

// convertResponse converts an Ollama generate response to our format
func (c *Client) convertResponse(resp generateResponse) *llm.ChatResponse {
	finishReason := llm.FinishReasonStop
	if resp.DoneReason == "length" || !resp.Done {
		finishReason = llm.FinishReasonLength
	}

	return &llm.ChatResponse{
		ID:    fmt.Sprintf("ollama-%d", time.Now().UnixNano()),
		Model: resp.Model,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.NewTextMessage(llm.RoleAssistant, strings.TrimSpace(resp.Response)),
			FinishReason: finishReason,
		}},
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}
}

// convertAPIError converts an Ollama error body to our standardized format
func (c *Client) convertAPIError(body []byte, statusCode int) *llm.Error {
	errType := llm.ErrorTypeAPI
	if statusCode == 429 {
		errType = llm.ErrorTypeRateLimit
	}

	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return &llm.Error{
			Code:       fmt.Sprintf("ollama_%d", statusCode),
			Message:    parsed.Error,
			Type:       errType,
			StatusCode: statusCode,
		}
	}

	return &llm.Error{
		Code:       "ollama_error",
		Message:    fmt.Sprintf("HTTP %d: %s", statusCode, string(body)),
		Type:       errType,
		StatusCode: statusCode,
	}
}

// GetRemote returns information about the remote client
func (c *Client) GetRemote() llm.ClientRemoteInfo {
	info := llm.ClientRemoteInfo{
		Name: "ollama",
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

// performHealthCheck performs a simple health check on the Ollama API
func (c *Client) performHealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/api/tags", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// GetModelInfo returns information about the model
func (c *Client) GetModelInfo() llm.ModelInfo {
	maxTokens := 4096
	for _, caps := range modelCapabilitiesList {
		if caps.pattern.MatchString(c.model) {
			maxTokens = caps.maxTokens
			break
		}
	}

	return llm.ModelInfo{
		Name:          c.model,
		Provider:      "ollama",
		MaxTokens:     maxTokens,
		SupportsTools: false,
		NativeToolIDs: false,
	}
}

// Close cleans up resources
func (c *Client) Close() error {
	// No cleanup needed for HTTP client
	return nil
}
