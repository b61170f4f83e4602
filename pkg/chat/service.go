// Package chat orchestrates two-phase tool-grounded response generation
// for the land chat backend: a first provider call with the tool schemas
// attached, dispatch of any requested tool calls, and a grounding call
// over the truncated results.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/acreview/landchat/pkg/llm"
	"github.com/acreview/landchat/pkg/tools"
)

// apologyMessage is the only text a caller sees when provider calls keep
// failing. Raw provider errors never escape the service.
const apologyMessage = "I apologize, but I encountered an error processing your request. Please try again."

// contextMessageTemplate renders the optional property context and user
// preferences into one system message.
const contextMessageTemplate = `Additional context for this conversation:
{{- if .PropertyContext}}

Property context:
{{.PropertyContext}}
{{- end}}
{{- if .UserPreferences}}

User preferences:
{{.UserPreferences}}
{{- end}}`

// Params configures a Service.
type Params struct {
	// Client is the provider to call. Required.
	Client llm.Client
	// Model overrides the client's default model when set.
	Model string
	// Tools supplies the tool schemas and dispatcher. Required.
	Tools *tools.Registry
	// Window bounds context size; zero value means defaults.
	Window ContextWindow
	// Retry is the backoff policy for provider calls; zero value means
	// the default bounded policy.
	Retry llm.RetryConfig
	// Temperature and MaxTokens are passed through to the provider when set.
	Temperature *float32
	MaxTokens   *int

	Logger *slog.Logger
}

// Service generates grounded chat responses over one provider client.
// It is safe for concurrent use; all per-request state lives on the stack.
type Service struct {
	client      llm.Client
	model       string
	registry    *tools.Registry
	window      ContextWindow
	retry       llm.RetryConfig
	temperature *float32
	maxTokens   *int
	logger      *slog.Logger
}

// Request carries one generate-response invocation.
type Request struct {
	// History is the caller-supplied conversation, oldest first.
	History []llm.Message
	// SystemPrompt is prepended as the first system message.
	SystemPrompt string
	// PropertyContext and UserPreferences, when present, are rendered
	// into one additional system message.
	PropertyContext map[string]any
	UserPreferences map[string]any
}

// NewService builds a Service from Params.
func NewService(params Params) (*Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("chat service requires a provider client")
	}
	if params.Tools == nil {
		return nil, fmt.Errorf("chat service requires a tool registry")
	}

	window := params.Window
	if window.HistoryBudget <= 0 && window.ResultCeiling <= 0 && window.FinalBudget <= 0 {
		window = DefaultContextWindow()
	}

	retry := params.Retry
	if retry.MaxRetries <= 0 {
		retry = defaultRetryPolicy()
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		client:      params.Client,
		model:       params.Model,
		registry:    params.Tools,
		window:      window,
		retry:       retry,
		temperature: params.Temperature,
		maxTokens:   params.MaxTokens,
		logger:      logger,
	}, nil
}

// defaultRetryPolicy bounds backoff to a 4-10 second wait window across
// three total attempts.
func defaultRetryPolicy() llm.RetryConfig {
	return llm.RetryConfig{
		MaxRetries:    2,
		BaseDelay:     4 * time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
}

// GenerateResponse runs the two-phase flow: one provider call with the
// tool schemas attached, dispatch of any requested tools, and a grounding
// call over the truncated results. The returned sources are nil when no
// tools ran. On exhausted retries the caller gets a fixed apology and nil
// sources, never a raw provider error.
func (s *Service) GenerateResponse(ctx context.Context, req Request) (string, []tools.Source) {
	messages := s.buildMessages(req)

	first, err := s.callProvider(ctx, llm.ChatRequest{
		Model:       s.model,
		Messages:    messages,
		Tools:       s.registry.Specs(),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		s.logger.Error("provider call failed after retries", "error", err)
		return apologyMessage, nil
	}

	calls := first.GetToolCalls()
	if len(calls) == 0 {
		return first.GetText(), nil
	}

	sources := s.registry.Dispatch(ctx, calls)

	messages, err = s.injectToolResults(messages, first, calls, sources)
	if err != nil {
		s.logger.Error("failed to serialize tool results", "error", err)
		return apologyMessage, nil
	}
	messages = s.window.TruncateFinal(messages)

	second, err := s.callProvider(ctx, llm.ChatRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		s.logger.Error("grounding call failed after retries", "error", err)
		return apologyMessage, nil
	}

	return second.GetText(), sources
}

// buildMessages assembles system prompt, optional context message and
// truncated history.
func (s *Service) buildMessages(req Request) []llm.Message {
	messages := make([]llm.Message, 0, len(req.History)+2)

	if req.SystemPrompt != "" {
		messages = append(messages, llm.NewTextMessage(llm.RoleSystem, req.SystemPrompt))
	}

	if contextMsg := s.renderContextMessage(req); contextMsg != "" {
		messages = append(messages, llm.NewTextMessage(llm.RoleSystem, contextMsg))
	}

	messages = append(messages, s.window.TruncateHistory(req.History)...)
	return messages
}

// renderContextMessage serializes property context and user preferences
// into formatted JSON blocks. Returns "" when neither is present.
func (s *Service) renderContextMessage(req Request) string {
	if req.PropertyContext == nil && req.UserPreferences == nil {
		return ""
	}

	inputs := map[string]any{
		"PropertyContext": jsonBlock(req.PropertyContext),
		"UserPreferences": jsonBlock(req.UserPreferences),
	}
	rendered, err := llm.NewPromptTemplateRendered(contextMessageTemplate, inputs)
	if err != nil {
		s.logger.Warn("failed to render context message", "error", err)
		return ""
	}
	return rendered
}

func jsonBlock(v map[string]any) string {
	if v == nil {
		return ""
	}
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(encoded)
}

// injectToolResults appends the assistant tool turn and one result entry
// per call. Providers that round-trip tool call ids get the structured
// turn replayed with role:tool results; the rest get a synthesized
// results digest as a user turn.
func (s *Service) injectToolResults(messages []llm.Message, first *llm.ChatResponse, calls []llm.ToolCall, sources []tools.Source) ([]llm.Message, error) {
	if s.client.GetModelInfo().NativeToolIDs {
		assistant := llm.Message{
			Role:      llm.RoleAssistant,
			Content:   first.GetText(),
			ToolCalls: calls,
		}
		messages = append(messages, assistant)

		for i, source := range sources {
			truncated, err := s.window.TruncateToolResult(source.Result)
			if err != nil {
				return nil, err
			}
			messages = append(messages, llm.NewToolResultMessage(calls[i].ID, truncated))
		}
		return messages, nil
	}

	var digest strings.Builder
	digest.WriteString("Tool results for the previous question:\n")
	for _, source := range sources {
		truncated, err := s.window.TruncateToolResult(source.Result)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&digest, "\n%s: %s\n", source.Function, truncated)
	}
	digest.WriteString("\nUse these results to answer the question.")

	messages = append(messages, llm.NewTextMessage(llm.RoleUser, digest.String()))
	return messages, nil
}

// callProvider retries any provider failure with exponential backoff.
// The orchestrator treats every provider error as transient here; the
// policy's bounded delays keep the worst case short.
func (s *Service) callProvider(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.backoffDelay(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := s.client.ChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		s.logger.Warn("provider call failed", "attempt", attempt+1, "error", err)
	}

	return nil, lastErr
}

func (s *Service) backoffDelay(attempt int) time.Duration {
	delay := s.retry.BaseDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * s.retry.BackoffFactor)
	}
	if s.retry.MaxDelay > 0 && delay > s.retry.MaxDelay {
		delay = s.retry.MaxDelay
	}
	return delay
}
