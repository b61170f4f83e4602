package chat

import (
	"fmt"

	"github.com/acreview/landchat/pkg/llm"
)

// Default truncation limits. Token budgets use the 4-characters-per-token
// heuristic; the result ceiling is in characters.
const (
	DefaultHistoryBudget = 12000
	DefaultResultCeiling = 8000
	DefaultFinalBudget   = 10000
)

// ContextWindow bounds what gets sent to the provider. Backend APIs
// reject oversized requests, and raw history plus verbose tool payloads
// can grow without bound, so the window trims in three passes: history
// before the first call, each tool result before re-injection, and the
// fully assembled message list before the grounding call.
type ContextWindow struct {
	// HistoryBudget is the token budget for caller-supplied history.
	HistoryBudget int
	// ResultCeiling is the character ceiling for one serialized tool result.
	ResultCeiling int
	// FinalBudget is the token budget for the assembled grounding context.
	FinalBudget int
}

// DefaultContextWindow returns the standard limits.
func DefaultContextWindow() ContextWindow {
	return ContextWindow{
		HistoryBudget: DefaultHistoryBudget,
		ResultCeiling: DefaultResultCeiling,
		FinalBudget:   DefaultFinalBudget,
	}
}

// EstimateTokens approximates the token count of text as len/4.
func EstimateTokens(text string) int {
	return len(text) / 4
}

func estimateMessages(messages []llm.Message) int {
	total := 0
	for _, msg := range messages {
		total += EstimateTokens(msg.Content)
	}
	return total
}

// TruncateHistory trims conversation history to the budget. Under budget
// the input is returned unchanged. Over budget the first message is
// always kept (it anchors the conversation) plus the longest suffix of
// most recent messages that fits, in original order.
func (w ContextWindow) TruncateHistory(messages []llm.Message) []llm.Message {
	budget := w.HistoryBudget
	if budget <= 0 {
		budget = DefaultHistoryBudget
	}
	if estimateMessages(messages) <= budget || len(messages) <= 1 {
		return messages
	}

	remaining := budget - EstimateTokens(messages[0].Content)

	// Walk backward from the end, stopping before the budget is exceeded.
	start := len(messages)
	for i := len(messages) - 1; i >= 1; i-- {
		cost := EstimateTokens(messages[i].Content)
		if cost > remaining {
			break
		}
		remaining -= cost
		start = i
	}

	out := make([]llm.Message, 0, 1+len(messages)-start)
	out = append(out, messages[0])
	out = append(out, messages[start:]...)
	return out
}

// TruncateToolResult serializes a tool result and bounds its size. Results
// under the ceiling pass through unchanged. Soil-analysis results get a
// domain-aware summary that keeps the decision-relevant fields; anything
// else is hard-truncated with a marker.
func (w ContextWindow) TruncateToolResult(result any) (string, error) {
	ceiling := w.ResultCeiling
	if ceiling <= 0 {
		ceiling = DefaultResultCeiling
	}

	serialized, err := llm.MarshalToolResult(result)
	if err != nil {
		return "", err
	}
	if len(serialized) <= ceiling {
		return serialized, nil
	}

	if summary, ok := summarizeSoilAnalysis(result); ok {
		serializedSummary, err := llm.MarshalToolResult(summary)
		if err != nil {
			return "", err
		}
		return serializedSummary, nil
	}

	return serialized[:ceiling] + "... [truncated]", nil
}

// summarizeSoilAnalysis condenses a soil-analysis result to its identity
// fields, the aggregate quality summary, the first recommendations and a
// small component sample.
func summarizeSoilAnalysis(result any) (map[string]any, bool) {
	m, ok := result.(map[string]any)
	if !ok {
		return nil, false
	}
	components, ok := m["components"].([]map[string]any)
	if !ok || m["overall_quality"] == nil {
		return nil, false
	}

	summary := map[string]any{
		"property_id":            m["property_id"],
		"address":                m["address"],
		"county":                 m["county"],
		"acres":                  m["acres"],
		"overall_quality":        m["overall_quality"],
		"overall_score":          m["overall_score"],
		"avg_ph":                 m["avg_ph"],
		"avg_organic_matter_pct": m["avg_organic_matter_pct"],
	}

	if recs, ok := m["recommendations"].([]string); ok {
		if len(recs) > 3 {
			recs = recs[:3]
		}
		summary["recommendations"] = recs
	}

	sample := components
	if len(sample) > 2 {
		sample = sample[:2]
	}
	summary["components_sample"] = sample
	summary["note"] = fmt.Sprintf(
		"Soil analysis truncated for context limits: showing %d of %d soil components.",
		len(sample), len(components))

	return summary, true
}

// TruncateFinal bounds the assembled message list before the grounding
// call. System messages are always kept; user and assistant messages are
// kept most-recent-first; tool results fill whatever room remains, also
// most-recent-first. Surviving messages keep their original relative
// order.
func (w ContextWindow) TruncateFinal(messages []llm.Message) []llm.Message {
	budget := w.FinalBudget
	if budget <= 0 {
		budget = DefaultFinalBudget
	}
	if estimateMessages(messages) <= budget {
		return messages
	}

	keep := make([]bool, len(messages))
	remaining := budget

	for i, msg := range messages {
		if msg.Role == llm.RoleSystem {
			keep[i] = true
			remaining -= EstimateTokens(msg.Content)
		}
	}

	// Grounding text beats raw tool payloads, so conversation turns get
	// first claim on the remaining room.
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != llm.RoleUser && msg.Role != llm.RoleAssistant {
			continue
		}
		cost := EstimateTokens(msg.Content)
		if cost <= remaining {
			keep[i] = true
			remaining -= cost
		}
	}

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != llm.RoleTool {
			continue
		}
		cost := EstimateTokens(msg.Content)
		if cost <= remaining {
			keep[i] = true
			remaining -= cost
		}
	}

	out := make([]llm.Message, 0, len(messages))
	for i, msg := range messages {
		if keep[i] {
			out = append(out, msg)
		}
	}
	return out
}
