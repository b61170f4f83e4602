// Package azure implements the llm.Client interface for Azure OpenAI
// deployments. It shares the OpenAI conversion logic and differs only in
// endpoint, authentication and deployment addressing.
package azure

import (
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/acreview/landchat/pkg/llm"
	"github.com/acreview/landchat/pkg/providers/openai"
)

// NewClient creates a new Azure OpenAI client. The config Model holds the
// deployment name and BaseURL holds the resource endpoint.
func NewClient(config llm.ClientConfig) (*openai.Client, error) {
	if config.APIKey == "" {
		return nil, llm.NewConfigurationError("API key is required for Azure OpenAI")
	}
	if config.BaseURL == "" {
		return nil, llm.NewConfigurationError("endpoint is required for Azure OpenAI")
	}
	if config.Model == "" {
		return nil, llm.NewConfigurationError("deployment name is required for Azure OpenAI")
	}

	sdkConfig := goopenai.DefaultAzureConfig(config.APIKey, config.BaseURL)
	if version := config.Extra["api_version"]; version != "" {
		sdkConfig.APIVersion = version
	}

	return openai.NewClientWithSDKConfig(sdkConfig, config.Model, "azure"), nil
}
