// Package openrouter implements the llm.Client interface on top of the
// OpenRouter API, which routes requests to many upstream model providers
// behind an OpenAI-compatible surface. Tool calling is forwarded natively.
package openrouter
