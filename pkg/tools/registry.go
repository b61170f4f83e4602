// Package tools holds the land-analysis tool registry: the fixed tool
// schemas advertised to the model and the dispatcher that routes tool
// calls to their handlers.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/acreview/landchat/pkg/llm"
	"github.com/acreview/landchat/pkg/warehouse"
)

// Handler executes one tool call from its raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Source records one executed tool call. The orchestrator returns these
// to the caller as citation material and re-injects the result into the
// conversation for the grounding call.
type Source struct {
	Function  string         `json:"function"`
	Arguments map[string]any `json:"arguments"`
	Result    any            `json:"result"`
}

// Registry holds the five land-analysis tools and their handlers.
type Registry struct {
	conn     warehouse.Connector
	logger   *slog.Logger
	specs    []llm.Tool
	handlers map[string]Handler
}

// NewRegistry builds the registry over a warehouse connector.
func NewRegistry(conn warehouse.Connector, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		conn:   conn,
		logger: logger,
		specs:  buildSpecs(),
	}
	r.handlers = map[string]Handler{
		"search_properties":             r.searchProperties,
		"get_soil_analysis":             r.getSoilAnalysis,
		"get_crop_recommendations":      r.getCropRecommendations,
		"calculate_lease_value":         r.calculateLeaseValue,
		"check_section_180_eligibility": r.checkSection180Eligibility,
	}
	return r
}

// Specs returns the tool schemas to attach to the first provider call.
func (r *Registry) Specs() []llm.Tool {
	return r.specs
}

// Dispatch executes the calls in order and returns one Source per call.
// A malformed argument payload, unknown tool name or handler error
// produces an error-shaped result for that call only; the batch always
// completes.
func (r *Registry) Dispatch(ctx context.Context, calls []llm.ToolCall) []Source {
	sources := make([]Source, 0, len(calls))

	for _, call := range calls {
		name := call.Function.Name
		rawArgs := call.Function.Arguments
		if rawArgs == "" {
			rawArgs = "{}"
		}

		source := Source{Function: name}

		var parsedArgs map[string]any
		if err := json.Unmarshal([]byte(rawArgs), &parsedArgs); err != nil {
			r.logger.Warn("malformed tool arguments", "tool", name, "error", err)
			source.Result = map[string]any{"error": fmt.Sprintf("Invalid arguments for %s: %v", name, err)}
			sources = append(sources, source)
			continue
		}
		source.Arguments = parsedArgs

		handler, ok := r.handlers[name]
		if !ok {
			source.Result = map[string]any{"error": fmt.Sprintf("Unknown function: %s", name)}
			sources = append(sources, source)
			continue
		}

		result, err := handler(ctx, json.RawMessage(rawArgs))
		if err != nil {
			r.logger.Warn("tool handler failed", "tool", name, "error", err)
			source.Result = map[string]any{"error": err.Error()}
			sources = append(sources, source)
			continue
		}

		source.Result = result
		sources = append(sources, source)
	}

	return sources
}
