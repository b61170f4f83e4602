package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/acreview/landchat/pkg/llm"
)

const defaultMaxTokens = 4096

// Client implements the llm.Client interface for the Anthropic Messages API
type Client struct {
	client anthropic.Client
	model  string
}

// NewClient creates a new Anthropic client
func NewClient(config llm.ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, llm.NewConfigurationError("API key is required for Anthropic")
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	model := config.Model
	if model == "" {
		model = llm.DefaultAnthropicModel
	}

	return &Client{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// ChatCompletion performs a chat completion request
func (c *Client) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	messages, system, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	maxTokens := defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	body := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if system != "" {
		body.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		body.Temperature = anthropic.Float(float64(*req.Temperature))
	}
	if len(req.Tools) > 0 {
		body.Tools = convertTools(req.Tools)
	}

	msg, err := c.client.Messages.New(ctx, body)
	if err != nil {
		return nil, convertError(err)
	}

	return convertResponse(msg), nil
}

// GetRemote returns information about the remote client
func (c *Client) GetRemote() llm.ClientRemoteInfo {
	return llm.ClientRemoteInfo{Name: "anthropic"}
}

// GetModelInfo returns information about the model being used
func (c *Client) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{
		Name:          c.model,
		Provider:      "anthropic",
		MaxTokens:     200000,
		SupportsTools: true,
		NativeToolIDs: false,
	}
}

// Close cleans up any resources used by the client
func (c *Client) Close() error {
	return nil
}

// convertMessages converts canonical messages to Anthropic message params.
// System messages are flattened into the separate system field the Messages
// API expects, and tool results become tool_result blocks on user turns.
func convertMessages(messages []llm.Message) ([]anthropic.MessageParam, string, error) {
	var systemParts []string
	out := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case llm.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case llm.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				input := map[string]any{}
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
						return nil, "", &llm.Error{
							Code:    "invalid_tool_arguments",
							Message: "failed to parse tool call arguments for " + tc.Function.Name + ": " + err.Error(),
							Type:    llm.ErrorTypeValidation,
						}
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(""))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case llm.RoleTool:
			if msg.ToolCallID == "" {
				return nil, "", &llm.Error{
					Code:    "missing_tool_call_id",
					Message: "tool message requires tool_call_id",
					Type:    llm.ErrorTypeValidation,
				}
			}
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false)))
		}
	}

	return out, strings.Join(systemParts, "\n"), nil
}

// convertTools converts canonical tool definitions to Anthropic tool params
func convertTools(tools []llm.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		toolParam := anthropic.ToolParam{
			Name:        tool.Function.Name,
			Description: anthropic.String(tool.Function.Description),
			InputSchema: convertInputSchema(tool.Function.Parameters),
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}

// convertInputSchema translates a JSON Schema map into the Messages API
// input_schema shape, which carries properties and required at the top level
func convertInputSchema(parameters interface{}) anthropic.ToolInputSchemaParam {
	schema, ok := parameters.(map[string]any)
	if !ok || len(schema) == 0 {
		return anthropic.ToolInputSchemaParam{}
	}

	var required []string
	if rawRequired, ok := schema["required"]; ok {
		switch v := rawRequired.(type) {
		case []string:
			required = v
		case []any:
			required = make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					required = append(required, s)
				}
			}
		}
	}

	inputSchema := anthropic.ToolInputSchemaParam{
		Required: required,
	}
	if props, ok := schema["properties"]; ok {
		inputSchema.Properties = props
	}

	return inputSchema
}

// convertResponse converts an Anthropic message to our format
func convertResponse(msg *anthropic.Message) *llm.ChatResponse {
	var textParts []string
	var toolCalls []llm.ToolCall

	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				textParts = append(textParts, v.Text)
			}
		case anthropic.ToolUseBlock:
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:   v.ID,
				Type: llm.ToolTypeFunction,
				Function: llm.ToolCallFunction{
					Name:      v.Name,
					Arguments: string(v.Input),
				},
			})
		}
	}

	finishReason := llm.FinishReasonStop
	switch msg.StopReason {
	case anthropic.StopReasonToolUse:
		finishReason = llm.FinishReasonToolCalls
	case anthropic.StopReasonMaxTokens:
		finishReason = llm.FinishReasonLength
	}

	return &llm.ChatResponse{
		ID:    msg.ID,
		Model: string(msg.Model),
		Choices: []llm.Choice{{
			Index: 0,
			Message: llm.Message{
				Role:      llm.RoleAssistant,
				Content:   strings.Join(textParts, "\n"),
				ToolCalls: toolCalls,
			},
			FinishReason: finishReason,
		}},
		Usage: llm.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

// convertError converts SDK errors to our format
func convertError(err error) *llm.Error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		errType := llm.ErrorTypeAPI
		if apiErr.StatusCode == 429 {
			errType = llm.ErrorTypeRateLimit
		}
		return &llm.Error{
			Code:       "api_error",
			Message:    apiErr.Error(),
			Type:       errType,
			StatusCode: apiErr.StatusCode,
		}
	}

	return &llm.Error{
		Code:    "unknown_error",
		Message: err.Error(),
		Type:    llm.ErrorTypeNetwork,
	}
}
