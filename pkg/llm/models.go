// Model information and capabilities
package llm

// ModelInfo contains information about the model
type ModelInfo struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	MaxTokens     int    `json:"max_tokens"`
	SupportsTools bool   `json:"supports_tools"`

	// NativeToolIDs reports whether the provider round-trips tool call IDs,
	// so that tool results can be sent back as structured tool messages.
	// When false, callers must fold tool results into a plain user message.
	NativeToolIDs bool `json:"native_tool_ids"`
}
