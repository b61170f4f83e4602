// Package anthropic implements the llm.Client interface for the Anthropic
// Messages API. System messages are folded into the dedicated system field
// and tool results are delivered as tool_result content blocks.
package anthropic
