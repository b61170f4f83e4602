package factory

import (
	"log/slog"
	"os"
	"strings"

	"github.com/acreview/landchat/pkg/llm"
)

const DefaultProvider = "openai"

// Factory creates LLM clients based on configuration
type Factory struct {
	logger *slog.Logger
}

// New creates a new client factory
func New() *Factory {
	return &Factory{logger: slog.Default()}
}

// NewWithLogger creates a new client factory that logs through the given logger
func NewWithLogger(logger *slog.Logger) *Factory {
	return &Factory{logger: logger}
}

// CreateClient creates an LLM client based on the configuration
func (f *Factory) CreateClient(config llm.ClientConfig) (llm.Client, error) {
	// Default to "openai" if provider is empty
	provider := config.Provider
	if provider == "" {
		provider = DefaultProvider
	}
	provider = strings.ToLower(provider)

	if config.Model == "" {
		return nil, &llm.Error{
			Code:    "missing_model",
			Message: "model is required",
			Type:    llm.ErrorTypeValidation,
		}
	}

	constructor, exists := GetProvider(provider)
	if !exists {
		return nil, llm.NewUnsupportedProviderError(provider)
	}

	return constructor(config)
}

// CreateFromEnv creates a client for the named provider, configured from
// environment variables. If the requested provider cannot be constructed and
// an OpenAI API key is available, it falls back to the OpenAI provider so a
// misconfigured secondary vendor does not take the chat service down. The
// original error is propagated when no fallback is possible.
func (f *Factory) CreateFromEnv(provider string) (llm.Client, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = DefaultProvider
	}

	client, err := f.CreateClient(llm.ConfigFromEnv(provider))
	if err == nil {
		return client, nil
	}

	if provider != "openai" && os.Getenv("OPENAI_API_KEY") != "" {
		f.logger.Warn("falling back to openai provider",
			"requested_provider", provider,
			"error", err)
		return f.CreateClient(llm.ConfigFromEnv("openai"))
	}

	return nil, err
}
