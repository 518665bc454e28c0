// Package ollama implements the local Ollama provider adapter.
//
// The adapter always targets a fixed local inference endpoint with a
// pinned model, regardless of what the caller configured or requested.
// This is an intentional override: the local runtime serves exactly one
// model, and routing anything labelled "ollama" to it keeps offline runs
// deterministic.
package ollama

import (
	"github.com/evalflow/llmselect/llm"
	"github.com/evalflow/llmselect/llm/providers"
	"github.com/evalflow/llmselect/llm/providers/openaicompat"
	"go.uber.org/zap"
)

const (
	// LocalBaseURL is the fixed local inference endpoint.
	LocalBaseURL = "http://host.docker.internal:11434/v1"

	// LocalModel is the model the local runtime serves.
	LocalModel = "llama3.1:8b-instruct-q8_0"
)

// OllamaProvider implements the local Ollama adapter.
type OllamaProvider struct {
	*openaicompat.Provider
}

// NewOllamaProvider creates a new Ollama adapter. cfg.APIKey, cfg.BaseURL
// and cfg.Model are ignored; the local endpoint and model are pinned.
func NewOllamaProvider(cfg providers.OllamaConfig, logger *zap.Logger) *OllamaProvider {
	return &OllamaProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName: "ollama",
			APIKey:       "ollama", // the endpoint requires no auth; any token works
			BaseURL:      LocalBaseURL,
			DefaultModel: LocalModel,
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxTokens,
			Timeout:      cfg.Timeout,
			EndpointPath: "/chat/completions",
			ModelsEndpoint: "/models",
			ExtraBody:    cfg.Extra,
			RequestHook: func(req *llm.ChatRequest, body *providers.ChatCompletionRequest) {
				// pin the model even when the request names another
				body.Model = LocalModel
			},
		}, logger),
	}
}
