// Configuration types and response format specifications
package llm

import (
	"os"
	"strconv"
	"time"
)

// Default models per provider
const (
	DefaultOpenAIModel     = "gpt-4o"
	DefaultAnthropicModel  = "claude-3-5-sonnet-20241022"
	DefaultGeminiModel     = "gemini-1.5-pro"
	DefaultOllamaModel     = "llama3.1"
	DefaultBedrockModel    = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	DefaultDeepseekModel   = "deepseek-chat"
	DefaultOpenRouterModel = "openai/gpt-4o"
)

const DefaultOllamaBaseURL = "http://localhost:11434"

const (
	DefaultOllamaTimeout      = 60 * time.Second
	DefaultOllamaQuickTimeout = 30 * time.Second
)

// ClientConfig holds configuration for creating LLM clients
type ClientConfig struct {
	Provider   string            `json:"provider"` // openai, anthropic, gemini, ollama, etc.
	Model      string            `json:"model"`
	APIKey     string            `json:"api_key,omitempty"`
	BaseURL    string            `json:"base_url,omitempty"`
	Timeout    time.Duration     `json:"timeout,omitempty"`
	MaxRetries int               `json:"max_retries,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"` // Provider-specific configs
}

// ResponseFormat specifies the desired response format for structured outputs
type ResponseFormat struct {
	Type       ResponseFormatType `json:"type"`
	JSONSchema *JSONSchema        `json:"json_schema,omitempty"`
}

// ResponseFormatType defines the type of response format
type ResponseFormatType string

const (
	// ResponseFormatText indicates plain text response (default)
	ResponseFormatText ResponseFormatType = "text"
	// ResponseFormatJSON indicates JSON object response without strict schema
	ResponseFormatJSON ResponseFormatType = "json_object"
	// ResponseFormatJSONSchema indicates JSON response with strict schema validation
	ResponseFormatJSONSchema ResponseFormatType = "json_schema"
)

// JSONSchema represents a JSON Schema specification for structured outputs
type JSONSchema struct {
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Schema      interface{} `json:"schema"`
	Strict      *bool       `json:"strict,omitempty"`
}

// parseTimeoutFromEnv parses timeout from environment variable with fallback to default
func parseTimeoutFromEnv(envVar string, defaultTimeout time.Duration) time.Duration {
	if timeoutStr := os.Getenv(envVar); timeoutStr != "" {
		if timeoutSecs, err := strconv.Atoi(timeoutStr); err == nil && timeoutSecs > 0 {
			return time.Duration(timeoutSecs) * time.Second
		}
	}
	return defaultTimeout
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ConfigFromEnv builds the ClientConfig for a named provider from environment
// variables. It fills in defaults but does not validate credentials; provider
// constructors report missing keys as configuration errors.
func ConfigFromEnv(provider string) ClientConfig {
	switch provider {
	case "openai":
		return ClientConfig{
			Provider: "openai",
			Model:    envOr("OPENAI_MODEL", DefaultOpenAIModel),
			APIKey:   os.Getenv("OPENAI_API_KEY"),
			BaseURL:  os.Getenv("OPENAI_BASE_URL"),
			Timeout:  parseTimeoutFromEnv("OPENAI_TIMEOUT", 30*time.Second),
		}
	case "azure":
		return ClientConfig{
			Provider: "azure",
			Model:    os.Getenv("AZURE_OPENAI_DEPLOYMENT"),
			APIKey:   os.Getenv("AZURE_OPENAI_API_KEY"),
			BaseURL:  os.Getenv("AZURE_OPENAI_ENDPOINT"),
			Timeout:  parseTimeoutFromEnv("AZURE_OPENAI_TIMEOUT", 30*time.Second),
			Extra: map[string]string{
				"api_version": envOr("AZURE_OPENAI_API_VERSION", "2024-02-01"),
			},
		}
	case "anthropic":
		return ClientConfig{
			Provider: "anthropic",
			Model:    envOr("ANTHROPIC_MODEL", DefaultAnthropicModel),
			APIKey:   os.Getenv("ANTHROPIC_API_KEY"),
			Timeout:  parseTimeoutFromEnv("ANTHROPIC_TIMEOUT", 30*time.Second),
		}
	case "gemini":
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		return ClientConfig{
			Provider: "gemini",
			Model:    envOr("GEMINI_MODEL", DefaultGeminiModel),
			APIKey:   apiKey,
			Timeout:  parseTimeoutFromEnv("GEMINI_TIMEOUT", 30*time.Second),
		}
	case "ollama":
		return ClientConfig{
			Provider: "ollama",
			Model:    envOr("OLLAMA_MODEL", DefaultOllamaModel),
			BaseURL:  envOr("OLLAMA_BASE_URL", DefaultOllamaBaseURL),
			Timeout:  parseTimeoutFromEnv("OLLAMA_TIMEOUT", DefaultOllamaTimeout),
		}
	case "bedrock":
		return ClientConfig{
			Provider: "bedrock",
			Model:    envOr("BEDROCK_MODEL", DefaultBedrockModel),
			Extra: map[string]string{
				"region": envOr("AWS_REGION", "us-east-1"),
			},
		}
	case "deepseek":
		return ClientConfig{
			Provider: "deepseek",
			Model:    envOr("DEEPSEEK_MODEL", DefaultDeepseekModel),
			APIKey:   os.Getenv("DEEPSEEK_API_KEY"),
			Timeout:  parseTimeoutFromEnv("DEEPSEEK_TIMEOUT", 30*time.Second),
		}
	case "openrouter":
		return ClientConfig{
			Provider: "openrouter",
			Model:    envOr("OPENROUTER_MODEL", DefaultOpenRouterModel),
			APIKey:   os.Getenv("OPENROUTER_API_KEY"),
			Timeout:  parseTimeoutFromEnv("OPENROUTER_TIMEOUT", 30*time.Second),
		}
	default:
		return ClientConfig{Provider: provider}
	}
}
