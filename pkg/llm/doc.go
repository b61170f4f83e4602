// Package llm defines the provider-agnostic chat completion types shared by
// all provider adapters: messages, requests, responses, tools, errors and
// client configuration. Provider packages under pkg/providers convert these
// canonical types to and from their vendor SDK equivalents.
package llm
