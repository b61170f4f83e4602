// Message types and functionality
package llm

import "strings"

// Message represents a single chat message
type Message struct {
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

// MessageRole defines the role of a message sender
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// NewTextMessage creates a new Message with the given role and text
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role:    role,
		Content: text,
	}
}

// NewToolResultMessage creates a tool result message bound to a tool call ID
func NewToolResultMessage(toolCallID, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
	}
}

// HasToolCalls checks if the message contains any tool calls
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// GetToolCallByName returns the first tool call with the specified name
func (m Message) GetToolCallByName(name string) (*ToolCall, bool) {
	for _, toolCall := range m.ToolCalls {
		if toolCall.Function.Name == name {
			return &toolCall, true
		}
	}
	return nil, false
}

// AddToolCall adds a tool call to the message
func (m *Message) AddToolCall(toolCall ToolCall) {
	m.ToolCalls = append(m.ToolCalls, toolCall)
}

// DeepCopy creates a deep copy of the message, including all tool calls,
// so that modifications to the copy will not affect the original message
func (m Message) DeepCopy() Message {
	copied := Message{
		Role:       m.Role,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	if len(m.ToolCalls) > 0 {
		copied.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		copy(copied.ToolCalls, m.ToolCalls)
	}
	return copied
}

// FlattenMessages renders a conversation as a single role-prefixed transcript
// for completion-style providers that do not accept structured chat messages.
// The transcript ends with a bare "Assistant: " line to cue the continuation.
func FlattenMessages(messages []Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			sb.WriteString("System: ")
		case RoleAssistant:
			sb.WriteString("Assistant: ")
		case RoleTool:
			sb.WriteString("Tool: ")
		default:
			sb.WriteString("User: ")
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Assistant: ")
	return sb.String()
}
