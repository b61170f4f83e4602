package factory

import (
	"github.com/acreview/landchat/pkg/llm"
	"github.com/acreview/landchat/pkg/providers/anthropic"
	"github.com/acreview/landchat/pkg/providers/azure"
	"github.com/acreview/landchat/pkg/providers/bedrock"
	"github.com/acreview/landchat/pkg/providers/deepseek"
	"github.com/acreview/landchat/pkg/providers/gemini"
	"github.com/acreview/landchat/pkg/providers/mock"
	"github.com/acreview/landchat/pkg/providers/ollama"
	"github.com/acreview/landchat/pkg/providers/openai"
	"github.com/acreview/landchat/pkg/providers/openrouter"
)

func init() {
	// Register the OpenAI provider
	RegisterProvider("openai", func(config llm.ClientConfig) (llm.Client, error) {
		return openai.NewClient(config)
	})

	// Register the Azure OpenAI provider
	RegisterProvider("azure", func(config llm.ClientConfig) (llm.Client, error) {
		return azure.NewClient(config)
	})

	// Register the Anthropic provider
	RegisterProvider("anthropic", func(config llm.ClientConfig) (llm.Client, error) {
		return anthropic.NewClient(config)
	})

	// Register the Gemini provider
	RegisterProvider("gemini", func(config llm.ClientConfig) (llm.Client, error) {
		return gemini.NewClient(config)
	})

	// Register the Ollama provider
	RegisterProvider("ollama", func(config llm.ClientConfig) (llm.Client, error) {
		return ollama.NewClient(config)
	})

	// Register the Bedrock provider
	RegisterProvider("bedrock", func(config llm.ClientConfig) (llm.Client, error) {
		return bedrock.NewClient(config)
	})

	// Register the deepseek provider
	RegisterProvider("deepseek", func(config llm.ClientConfig) (llm.Client, error) {
		return deepseek.NewClient(config)
	})

	// Register the openrouter provider
	RegisterProvider("openrouter", func(config llm.ClientConfig) (llm.Client, error) {
		return openrouter.NewClient(config)
	})

	// Register the mock provider
	RegisterProvider("mock", func(config llm.ClientConfig) (llm.Client, error) {
		return mock.NewClient(config.Model, "mock")
	})
}
