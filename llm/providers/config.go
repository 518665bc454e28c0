package providers

import "time"

// BaseProviderConfig carries the fields every provider adapter shares.
// Embedding it keeps the per-provider config structs down to their
// vendor-specific extras.
//
// Temperature is a pointer: nil means the adapter never sends the
// parameter, which some models require.
type BaseProviderConfig struct {
	APIKey      string         `json:"api_key" yaml:"api_key"`
	BaseURL     string         `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string         `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature *float32       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Timeout     time.Duration  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Extra       map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// OpenAIConfig configures the OpenAI adapter.
type OpenAIConfig struct {
	BaseProviderConfig `yaml:",inline"`
	Organization       string `json:"organization,omitempty" yaml:"organization,omitempty"`
}

// AnthropicConfig configures the Anthropic Messages API adapter.
type AnthropicConfig struct {
	BaseProviderConfig `yaml:",inline"`
	AnthropicVersion   string `json:"anthropic_version,omitempty" yaml:"anthropic_version,omitempty"`
}

// GeminiConfig configures the Google Gemini adapter.
type GeminiConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// MistralConfig configures the Mistral AI adapter.
type MistralConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// TogetherConfig configures the Together AI adapter.
type TogetherConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// FireworksConfig configures the Fireworks AI adapter.
type FireworksConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// OllamaConfig configures the local Ollama adapter. The adapter targets a
// fixed local endpoint and a pinned model; APIKey and Model are accepted
// for uniformity but ignored.
type OllamaConfig struct {
	BaseProviderConfig `yaml:",inline"`
}
