// Package fireworks implements the Fireworks AI provider adapter.
// Fireworks serves models under "accounts/fireworks/models/..." paths
// behind an OpenAI-compatible API rooted at /inference.
package fireworks

import (
	"github.com/evalflow/llmselect/llm/providers"
	"github.com/evalflow/llmselect/llm/providers/openaicompat"
	"go.uber.org/zap"
)

// FireworksProvider implements the Fireworks AI adapter.
type FireworksProvider struct {
	*openaicompat.Provider
}

// NewFireworksProvider creates a new Fireworks adapter.
func NewFireworksProvider(cfg providers.FireworksConfig, logger *zap.Logger) *FireworksProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.fireworks.ai/inference"
	}

	return &FireworksProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "fireworks",
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: "accounts/fireworks/models/deepseek-v3",
			Temperature:   cfg.Temperature,
			MaxTokens:     cfg.MaxTokens,
			Timeout:       cfg.Timeout,
			ExtraBody:     cfg.Extra,
		}, logger),
	}
}
