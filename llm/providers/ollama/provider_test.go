package ollama

import (
	"testing"

	"github.com/evalflow/llmselect/llm"
	"github.com/evalflow/llmselect/llm/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedLocalTarget(t *testing.T) {
	// configured base URL, key and model are all overridden by the pinned
	// local target
	p := NewOllamaProvider(providers.OllamaConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			APIKey:  "sk-ignored",
			BaseURL: "https://api.example.com",
			Model:   "gpt-4o",
		},
	}, nil)

	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, LocalBaseURL, p.Cfg.BaseURL)
	assert.Equal(t, LocalModel, p.Cfg.DefaultModel)
	assert.Equal(t, "/chat/completions", p.Cfg.EndpointPath)
}

func TestRequestHookPinsModel(t *testing.T) {
	p := NewOllamaProvider(providers.OllamaConfig{}, nil)
	require.NotNil(t, p.Cfg.RequestHook)

	body := providers.ChatCompletionRequest{Model: "some-other-model"}
	p.Cfg.RequestHook(&llm.ChatRequest{Model: "some-other-model"}, &body)
	assert.Equal(t, LocalModel, body.Model)
}
