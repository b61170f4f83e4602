package chat

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acreview/landchat/pkg/llm"
)

func textMessages(texts ...string) []llm.Message {
	out := make([]llm.Message, 0, len(texts))
	for _, text := range texts {
		out = append(out, llm.NewTextMessage(llm.RoleUser, text))
	}
	return out
}

func TestTruncateHistoryUnderBudgetIsNoOp(t *testing.T) {
	window := ContextWindow{HistoryBudget: 100}
	messages := textMessages("hello", "how are you", "fine thanks")

	result := window.TruncateHistory(messages)
	assert.Equal(t, messages, result)
}

func TestTruncateHistoryKeepsFirstAndRecentSuffix(t *testing.T) {
	// Each message estimates to 25 tokens (100 chars / 4).
	long := strings.Repeat("x", 100)
	messages := textMessages(long, long, long, long, long)

	window := ContextWindow{HistoryBudget: 60}
	result := window.TruncateHistory(messages)

	// First message (25) plus one most-recent message (25) fit in 60.
	require.Len(t, result, 2)
	assert.Equal(t, messages[0], result[0])
	assert.Equal(t, messages[4], result[1])

	total := 0
	for _, msg := range result {
		total += EstimateTokens(msg.Content)
	}
	assert.LessOrEqual(t, total, 60)
}

func TestTruncateHistoryPreservesOrder(t *testing.T) {
	messages := []llm.Message{
		llm.NewTextMessage(llm.RoleUser, strings.Repeat("a", 100)),
		llm.NewTextMessage(llm.RoleAssistant, strings.Repeat("b", 100)),
		llm.NewTextMessage(llm.RoleUser, strings.Repeat("c", 100)),
		llm.NewTextMessage(llm.RoleAssistant, strings.Repeat("d", 100)),
	}

	window := ContextWindow{HistoryBudget: 80}
	result := window.TruncateHistory(messages)

	require.Len(t, result, 3)
	assert.Equal(t, "a", string(result[0].Content[0]))
	assert.Equal(t, "c", string(result[1].Content[0]))
	assert.Equal(t, "d", string(result[2].Content[0]))
}

func TestTruncateToolResultIdentityUnderCeiling(t *testing.T) {
	window := ContextWindow{ResultCeiling: 1000}
	result := map[string]any{"overall_quality": "High"}

	out, err := window.TruncateToolResult(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"overall_quality": "High"}`, out)

	// Idempotent on outputs already under the ceiling.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	again, err := window.TruncateToolResult(decoded)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestTruncateToolResultSoilSummary(t *testing.T) {
	components := make([]map[string]any, 20)
	for i := range components {
		components[i] = map[string]any{
			"soil_series":   "Drummer",
			"quality_score": 85.0,
			"notes":         strings.Repeat("detail ", 100),
		}
	}
	result := map[string]any{
		"property_id":     "42",
		"address":         "123 Ranch Rd",
		"overall_quality": "High",
		"overall_score":   88.5,
		"recommendations": []string{"corn", "soybeans", "lime", "cover crops"},
		"components":      components,
	}

	window := ContextWindow{ResultCeiling: 500}
	out, err := window.TruncateToolResult(result)
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summary))

	assert.Equal(t, "42", summary["property_id"])
	assert.Equal(t, "High", summary["overall_quality"])
	assert.Len(t, summary["recommendations"], 3)
	assert.Len(t, summary["components_sample"], 2)
	assert.Contains(t, summary["note"], "2 of 20")
}

func TestTruncateToolResultHardTruncation(t *testing.T) {
	window := ContextWindow{ResultCeiling: 50}
	result := map[string]any{"rows": strings.Repeat("data ", 100)}

	out, err := window.TruncateToolResult(result)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "... [truncated]"))
	assert.LessOrEqual(t, len(out), 50+len("... [truncated]"))
}

func TestTruncateFinalKeepsSystemAndRecentTurns(t *testing.T) {
	long := strings.Repeat("x", 400) // 100 tokens each
	messages := []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, long),
		llm.NewTextMessage(llm.RoleUser, long),
		llm.NewTextMessage(llm.RoleAssistant, long),
		llm.NewToolResultMessage("call_1", long),
		llm.NewTextMessage(llm.RoleUser, long),
	}

	window := ContextWindow{FinalBudget: 300}
	result := window.TruncateFinal(messages)

	// System always kept; the two most recent user/assistant turns fill the
	// rest; the tool payload is dropped first.
	require.Len(t, result, 3)
	assert.Equal(t, llm.RoleSystem, result[0].Role)
	assert.Equal(t, llm.RoleAssistant, result[1].Role)
	assert.Equal(t, llm.RoleUser, result[2].Role)
}

func TestTruncateFinalUnderBudgetIsNoOp(t *testing.T) {
	messages := []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, "be helpful"),
		llm.NewTextMessage(llm.RoleUser, "hi"),
	}

	window := ContextWindow{FinalBudget: 100}
	assert.Equal(t, messages, window.TruncateFinal(messages))
}

func TestTruncateFinalKeepsToolResultsWhenRoomRemains(t *testing.T) {
	messages := []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, "be helpful"),
		llm.NewTextMessage(llm.RoleUser, strings.Repeat("q", 40)),
		llm.NewToolResultMessage("call_1", strings.Repeat("r", 20)),
		llm.NewTextMessage(llm.RoleUser, strings.Repeat("s", 400)),
	}

	window := ContextWindow{FinalBudget: 110}
	result := window.TruncateFinal(messages)

	// The older user turn no longer fits, but the small tool result does.
	roles := make([]llm.MessageRole, 0, len(result))
	for _, msg := range result {
		roles = append(roles, msg.Role)
	}
	assert.Equal(t, []llm.MessageRole{llm.RoleSystem, llm.RoleTool, llm.RoleUser}, roles)
}
