// Package openai implements the llm.Client interface for the OpenAI Chat
// Completions API, including function calling with native tool call IDs.
package openai
