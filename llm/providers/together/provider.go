// Package together implements the Together AI provider adapter. Together
// hosts open-weights models (Llama, DeepSeek, Mixtral) behind an
// OpenAI-compatible API.
package together

import (
	"github.com/evalflow/llmselect/llm/providers"
	"github.com/evalflow/llmselect/llm/providers/openaicompat"
	"go.uber.org/zap"
)

// TogetherProvider implements the Together AI adapter.
type TogetherProvider struct {
	*openaicompat.Provider
}

// NewTogetherProvider creates a new Together adapter.
func NewTogetherProvider(cfg providers.TogetherConfig, logger *zap.Logger) *TogetherProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.together.xyz"
	}

	return &TogetherProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "together",
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: "meta-llama/Llama-3.3-70B-Instruct-Turbo",
			Temperature:   cfg.Temperature,
			MaxTokens:     cfg.MaxTokens,
			Timeout:       cfg.Timeout,
			ExtraBody:     cfg.Extra,
		}, logger),
	}
}
