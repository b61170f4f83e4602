package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acreview/landchat/pkg/llm"
)

func TestCreateClientUnknownProvider(t *testing.T) {
	_, err := New().CreateClient(llm.ClientConfig{
		Provider: "quantum-oracle",
		Model:    "qo-1",
	})
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrorCodeUnsupportedProvider, llmErr.Code)
}

func TestCreateClientRequiresModel(t *testing.T) {
	_, err := New().CreateClient(llm.ClientConfig{Provider: "openai"})
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "missing_model", llmErr.Code)
}

func TestCreateClientMockProvider(t *testing.T) {
	client, err := New().CreateClient(llm.ClientConfig{
		Provider: "mock",
		Model:    "mock-model",
	})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	info := client.GetModelInfo()
	assert.Equal(t, "mock", info.Provider)
	assert.Equal(t, "mock-model", info.Name)
}

func TestCreateFromEnvFallsBackToOpenAI(t *testing.T) {
	// Anthropic construction fails without a key; OpenAI credentials are
	// present, so the factory falls back instead of failing.
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	client, err := New().CreateFromEnv("anthropic")
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	assert.Equal(t, "openai", client.GetModelInfo().Provider)
}

func TestCreateFromEnvPropagatesWithoutFallback(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := New().CreateFromEnv("anthropic")
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrorTypeConfiguration, llmErr.Type)
}

func TestCreateFromEnvNoFallbackForOpenAI(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := New().CreateFromEnv("openai")
	require.Error(t, err)
}

func TestListProvidersIncludesRegistered(t *testing.T) {
	providers := ListProviders()
	for _, name := range []string{"openai", "azure", "anthropic", "gemini", "ollama", "bedrock", "deepseek", "openrouter", "mock"} {
		assert.Contains(t, providers, name)
	}
}
