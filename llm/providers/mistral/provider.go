// Package mistral implements the Mistral AI provider adapter. Mistral
// speaks the OpenAI chat completions wire format.
package mistral

import (
	"github.com/evalflow/llmselect/llm/providers"
	"github.com/evalflow/llmselect/llm/providers/openaicompat"
	"go.uber.org/zap"
)

// MistralProvider implements the Mistral AI adapter.
type MistralProvider struct {
	*openaicompat.Provider
}

// NewMistralProvider creates a new Mistral adapter.
func NewMistralProvider(cfg providers.MistralConfig, logger *zap.Logger) *MistralProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai"
	}

	return &MistralProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "mistral",
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: "mistral-large-latest",
			Temperature:   cfg.Temperature,
			MaxTokens:     cfg.MaxTokens,
			Timeout:       cfg.Timeout,
			ExtraBody:     cfg.Extra,
		}, logger),
	}
}
