// Package openai implements the OpenAI provider adapter on top of the
// shared OpenAI-compatible base.
package openai

import (
	"net/http"

	"github.com/evalflow/llmselect/llm/providers"
	"github.com/evalflow/llmselect/llm/providers/openaicompat"
	"go.uber.org/zap"
)

// OpenAIProvider implements the OpenAI chat completions adapter.
type OpenAIProvider struct {
	*openaicompat.Provider
}

// NewOpenAIProvider creates a new OpenAI adapter.
func NewOpenAIProvider(cfg providers.OpenAIConfig, logger *zap.Logger) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}

	// "organization" travels as a header, not as a body field
	extra := cfg.Extra
	if _, ok := extra["organization"]; ok {
		extra = make(map[string]any, len(cfg.Extra))
		for k, v := range cfg.Extra {
			if k != "organization" {
				extra[k] = v
			}
		}
	}

	p := &OpenAIProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "openai",
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: "gpt-4o-mini",
			Temperature:   cfg.Temperature,
			MaxTokens:     cfg.MaxTokens,
			Timeout:       cfg.Timeout,
			ExtraBody:     extra,
		}, logger),
	}

	if cfg.Organization != "" {
		org := cfg.Organization
		p.SetBuildHeaders(func(req *http.Request, apiKey string) {
			req.Header.Set("Authorization", "Bearer "+apiKey)
			req.Header.Set("OpenAI-Organization", org)
			req.Header.Set("Content-Type", "application/json")
		})
	}

	return p
}
