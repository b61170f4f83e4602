package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/acreview/landchat/pkg/llm"
)

const defaultMaxTokens = 1000

// Client implements the llm.Client interface for AWS Bedrock.
type Client struct {
	runtime  *bedrockruntime.Client
	model    string
	region   string
	provider string

	// Health check caching
	lastHealthCheck  *time.Time
	lastHealthStatus *bool
}

// NewClient creates a new AWS Bedrock client. Credentials come from the
// default AWS credential chain; the region can be overridden through
// config.Extra["region"].
func NewClient(config llm.ClientConfig) (*Client, error) {
	region := "us-east-1"
	if config.Extra != nil {
		if r, exists := config.Extra["region"]; exists && r != "" {
			region = r
		}
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultBedrockModel
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, llm.NewConfigurationError("failed to load AWS configuration: %v", err)
	}

	runtime := bedrockruntime.NewFromConfig(awsConfig, func(o *bedrockruntime.Options) {
		if config.BaseURL != "" {
			o.BaseEndpoint = aws.String(config.BaseURL)
		}
	})

	return &Client{
		runtime:  runtime,
		model:    model,
		region:   region,
		provider: "bedrock",
	}, nil
}

// claudeMessagesRequest is the Anthropic messages body expected by
// Claude models on Bedrock.
type claudeMessagesRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
	Temperature      *float32        `json:"temperature,omitempty"`
	TopP             *float32        `json:"top_p,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeMessagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// titanRequest is the body expected by Amazon Titan text models.
type titanRequest struct {
	InputText            string         `json:"inputText"`
	TextGenerationConfig titanGenConfig `json:"textGenerationConfig"`
}

type titanGenConfig struct {
	MaxTokenCount int      `json:"maxTokenCount"`
	Temperature   *float32 `json:"temperature,omitempty"`
	TopP          *float32 `json:"topP,omitempty"`
}

type titanResponse struct {
	Results []struct {
		OutputText       string `json:"outputText"`
		CompletionReason string `json:"completionReason"`
	} `json:"results"`
}

// ChatCompletion performs a chat completion request through InvokeModel.
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, &llm.Error{
			Code:    "invalid_request",
			Message: "at least one message is required",
			Type:    llm.ErrorTypeValidation,
		}
	}

	payload, err := c.convertRequest(req)
	if err != nil {
		return nil, &llm.Error{
			Code:    "request_error",
			Message: fmt.Sprintf("failed to encode request: %v", err),
			Type:    llm.ErrorTypeSerialization,
		}
	}

	response, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.model),
		ContentType: aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, c.convertError(err)
	}

	return c.convertResponse(response.Body)
}

// GetRemote returns information about the remote endpoint.
func (c *Client) GetRemote() llm.ClientRemoteInfo {
	info := llm.ClientRemoteInfo{
		Name: "bedrock",
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

// performHealthCheck invokes the configured model with a minimal request.
func (c *Client) performHealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	one := 1
	_, err := c.ChatCompletion(ctx, llm.ChatRequest{
		Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, "ping")},
		MaxTokens: &one,
	})
	return err == nil
}

// GetModelInfo returns information about the model being used.
func (c *Client) GetModelInfo() llm.ModelInfo {
	// Tool calling over InvokeModel would need per-model body dialects,
	// so tools are not advertised for Bedrock models.
	return llm.ModelInfo{
		Name:          c.model,
		Provider:      c.provider,
		MaxTokens:     c.maxTokensForModel(),
		SupportsTools: false,
		NativeToolIDs: false,
	}
}

// Close cleans up any resources used by the client.
func (c *Client) Close() error {
	// AWS SDK clients don't require explicit cleanup
	return nil
}

func (c *Client) convertRequest(req llm.ChatRequest) ([]byte, error) {
	if c.isTitanModel() {
		return c.convertTitanRequest(req)
	}
	// Claude is the default body dialect.
	return c.convertClaudeRequest(req)
}

func (c *Client) convertClaudeRequest(req llm.ChatRequest) ([]byte, error) {
	claudeReq := claudeMessagesRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        defaultMaxTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
	}
	if req.MaxTokens != nil {
		claudeReq.MaxTokens = *req.MaxTokens
	}

	var system []string
	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, msg.Content)
		case llm.RoleUser, llm.RoleAssistant:
			claudeReq.Messages = append(claudeReq.Messages, claudeMessage{
				Role:    string(msg.Role),
				Content: msg.Content,
			})
		case llm.RoleTool:
			// Tool results arrive as plain text; fold them into a user turn.
			claudeReq.Messages = append(claudeReq.Messages, claudeMessage{
				Role:    string(llm.RoleUser),
				Content: msg.Content,
			})
		}
	}
	claudeReq.System = strings.Join(system, "\n")

	return json.Marshal(claudeReq)
}

func (c *Client) convertTitanRequest(req llm.ChatRequest) ([]byte, error) {
	titanReq := titanRequest{
		InputText: llm.FlattenMessages(req.Messages),
		TextGenerationConfig: titanGenConfig{
			MaxTokenCount: defaultMaxTokens,
			Temperature:   req.Temperature,
			TopP:          req.TopP,
		},
	}
	if req.MaxTokens != nil {
		titanReq.TextGenerationConfig.MaxTokenCount = *req.MaxTokens
	}

	return json.Marshal(titanReq)
}

func (c *Client) convertResponse(body []byte) (*llm.ChatResponse, error) {
	if c.isTitanModel() {
		return c.convertTitanResponse(body)
	}
	return c.convertClaudeResponse(body)
}

func (c *Client) convertClaudeResponse(body []byte) (*llm.ChatResponse, error) {
	var claudeResp claudeMessagesResponse
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return nil, &llm.Error{
			Code:    "parse_error",
			Message: fmt.Sprintf("failed to parse response: %v", err),
			Type:    llm.ErrorTypeSerialization,
		}
	}

	var text strings.Builder
	for _, block := range claudeResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	finishReason := llm.FinishReasonStop
	if claudeResp.StopReason == "max_tokens" {
		finishReason = llm.FinishReasonLength
	}

	return &llm.ChatResponse{
		ID:    fmt.Sprintf("bedrock-%s", time.Now().Format(time.RFC3339Nano)),
		Model: c.model,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.NewTextMessage(llm.RoleAssistant, text.String()),
			FinishReason: finishReason,
		}},
		Usage: llm.Usage{
			PromptTokens:     claudeResp.Usage.InputTokens,
			CompletionTokens: claudeResp.Usage.OutputTokens,
			TotalTokens:      claudeResp.Usage.InputTokens + claudeResp.Usage.OutputTokens,
		},
	}, nil
}

func (c *Client) convertTitanResponse(body []byte) (*llm.ChatResponse, error) {
	var titanResp titanResponse
	if err := json.Unmarshal(body, &titanResp); err != nil {
		return nil, &llm.Error{
			Code:    "parse_error",
			Message: fmt.Sprintf("failed to parse response: %v", err),
			Type:    llm.ErrorTypeSerialization,
		}
	}

	var text string
	finishReason := llm.FinishReasonStop
	if len(titanResp.Results) > 0 {
		text = titanResp.Results[0].OutputText
		if titanResp.Results[0].CompletionReason == "LENGTH" {
			finishReason = llm.FinishReasonLength
		}
	}

	return &llm.ChatResponse{
		ID:    fmt.Sprintf("bedrock-%s", time.Now().Format(time.RFC3339Nano)),
		Model: c.model,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.NewTextMessage(llm.RoleAssistant, text),
			FinishReason: finishReason,
		}},
	}, nil
}

func (c *Client) isTitanModel() bool {
	return strings.Contains(c.model, "titan") || strings.Contains(c.model, "amazon")
}

func (c *Client) maxTokensForModel() int {
	switch {
	case strings.Contains(c.model, "claude-3"):
		return 200000
	case strings.Contains(c.model, "claude"):
		return 100000
	case strings.Contains(c.model, "titan"):
		return 8000
	default:
		return 4000
	}
}

func (c *Client) convertError(err error) *llm.Error {
	if err == nil {
		return nil
	}

	if ourErr, ok := err.(*llm.Error); ok {
		return ourErr
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "UnauthorizedOperation") ||
		strings.Contains(errMsg, "AccessDeniedException") ||
		strings.Contains(errMsg, "AuthFailure") {
		return &llm.Error{
			Code:       "authentication_error",
			Message:    errMsg,
			Type:       llm.ErrorTypeConfiguration,
			StatusCode: 401,
		}
	}

	if strings.Contains(errMsg, "ThrottlingException") ||
		strings.Contains(errMsg, "TooManyRequestsException") {
		return &llm.Error{
			Code:       "rate_limit_exceeded",
			Message:    errMsg,
			Type:       llm.ErrorTypeRateLimit,
			StatusCode: 429,
		}
	}

	if strings.Contains(errMsg, "ValidationException") && strings.Contains(errMsg, "model") {
		return &llm.Error{
			Code:       "model_not_found",
			Message:    errMsg,
			Type:       llm.ErrorTypeValidation,
			StatusCode: 404,
		}
	}

	return &llm.Error{
		Code:    "api_error",
		Message: errMsg,
		Type:    llm.ErrorTypeAPI,
	}
}
