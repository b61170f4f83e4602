// Package ollama implements the llm.Client interface for a local Ollama
// server using its generate API with a flattened prompt.
package ollama
