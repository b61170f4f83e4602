// Package factory provides provider registration and factory functionality.
//
// This package manages the registration of LLM providers and provides factory
// methods to create clients. When imported, it automatically registers all
// available providers through the side effects of importing their packages.
//
// Key components:
//   - Provider registration system with thread-safe registry
//   - Factory for creating clients based on configuration
//   - Environment-driven creation with OpenAI fallback
//
// Example usage:
//
//	import (
//	    "github.com/acreview/landchat/pkg/factory"
//	    "github.com/acreview/landchat/pkg/llm"
//	)
//
//	f := factory.New()
//	client, err := f.CreateClient(llm.ClientConfig{
//	    Provider: "openai",
//	    Model: "gpt-4o",
//	    APIKey: "your-api-key",
//	})
package factory
