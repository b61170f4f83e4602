package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenMessages(t *testing.T) {
	messages := []Message{
		NewTextMessage(RoleSystem, "You are helpful"),
		NewTextMessage(RoleUser, "What grows in clay loam?"),
		NewTextMessage(RoleAssistant, "Corn does well."),
		NewToolResultMessage("call_1", `{"overall_quality":"High"}`),
	}

	flat := FlattenMessages(messages)
	expected := "System: You are helpful\n\n" +
		"User: What grows in clay loam?\n\n" +
		"Assistant: Corn does well.\n\n" +
		"Tool: {\"overall_quality\":\"High\"}\n\n" +
		"Assistant: "
	assert.Equal(t, expected, flat)
}

func TestFlattenMessagesEmpty(t *testing.T) {
	assert.Equal(t, "Assistant: ", FlattenMessages(nil))
}

func TestToolCallHelpers(t *testing.T) {
	msg := NewTextMessage(RoleAssistant, "")
	assert.False(t, msg.HasToolCalls())

	msg.AddToolCall(ToolCall{
		ID:   "call_1",
		Type: ToolTypeFunction,
		Function: ToolCallFunction{
			Name:      "get_soil_analysis",
			Arguments: `{"property_id":"42"}`,
		},
	})
	assert.True(t, msg.HasToolCalls())

	call, found := msg.GetToolCallByName("get_soil_analysis")
	require.True(t, found)
	assert.Equal(t, "call_1", call.ID)

	_, found = msg.GetToolCallByName("search_properties")
	assert.False(t, found)
}

func TestMessageDeepCopy(t *testing.T) {
	original := NewTextMessage(RoleAssistant, "answer")
	original.AddToolCall(ToolCall{ID: "call_1", Type: ToolTypeFunction})

	copied := original.DeepCopy()
	copied.ToolCalls[0].ID = "mutated"

	assert.Equal(t, "call_1", original.ToolCalls[0].ID)
}

func TestResponseToolCallAccessors(t *testing.T) {
	resp := ChatResponse{
		Choices: []Choice{{
			Message: Message{
				Role: RoleAssistant,
				ToolCalls: []ToolCall{
					{ID: "call_1", Function: ToolCallFunction{Name: "search_properties"}},
				},
			},
			FinishReason: FinishReasonToolCalls,
		}},
	}

	assert.True(t, resp.RequiresToolExecution())
	calls := resp.GetToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "search_properties", calls[0].Function.Name)
}
