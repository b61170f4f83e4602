// Package deepseek implements the llm.Client interface for the DeepSeek API
// using the cohesion-org/deepseek-go library.
package deepseek
