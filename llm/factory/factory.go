// Package factory selects and constructs a chat-completion client for a
// model name. It resolves the provider (explicitly or by name pattern),
// validates the pair against the model catalog, normalizes constructor
// parameters including a handful of per-model quirks, and dispatches to
// the provider adapter's constructor.
package factory

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evalflow/llmselect/llm"
	"github.com/evalflow/llmselect/llm/providers"
	"github.com/evalflow/llmselect/llm/providers/anthropic"
	"github.com/evalflow/llmselect/llm/providers/fireworks"
	"github.com/evalflow/llmselect/llm/providers/gemini"
	"github.com/evalflow/llmselect/llm/providers/mistral"
	"github.com/evalflow/llmselect/llm/providers/ollama"
	"github.com/evalflow/llmselect/llm/providers/openai"
	"github.com/evalflow/llmselect/llm/providers/together"
	"go.uber.org/zap"
)

// ProviderConfig is the generic configuration accepted by the constructor
// table. It uses a flat structure with an Extra map for provider-specific
// fields.
type ProviderConfig struct {
	APIKey      string         `json:"api_key" yaml:"api_key"`
	BaseURL     string         `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string         `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature *float32       `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Timeout     time.Duration  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Extra       map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

func (cfg ProviderConfig) base() providers.BaseProviderConfig {
	return providers.BaseProviderConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		Extra:       cfg.Extra,
	}
}

type buildFunc func(cfg ProviderConfig, logger *zap.Logger) llm.Provider

// builders maps provider names to adapter constructors. Adding a provider
// is a table entry, not a new branch.
var builders = map[string]buildFunc{
	"openai": func(cfg ProviderConfig, logger *zap.Logger) llm.Provider {
		oc := providers.OpenAIConfig{BaseProviderConfig: cfg.base()}
		if v, ok := cfg.Extra["organization"].(string); ok {
			oc.Organization = v
		}
		return openai.NewOpenAIProvider(oc, logger)
	},
	"anthropic": func(cfg ProviderConfig, logger *zap.Logger) llm.Provider {
		ac := providers.AnthropicConfig{BaseProviderConfig: cfg.base()}
		if v, ok := cfg.Extra["anthropic_version"].(string); ok {
			ac.AnthropicVersion = v
		}
		return anthropic.NewAnthropicProvider(ac, logger)
	},
	"google": func(cfg ProviderConfig, logger *zap.Logger) llm.Provider {
		return gemini.NewGeminiProvider(providers.GeminiConfig{BaseProviderConfig: cfg.base()}, logger)
	},
	"mistral": func(cfg ProviderConfig, logger *zap.Logger) llm.Provider {
		return mistral.NewMistralProvider(providers.MistralConfig{BaseProviderConfig: cfg.base()}, logger)
	},
	"together": func(cfg ProviderConfig, logger *zap.Logger) llm.Provider {
		return together.NewTogetherProvider(providers.TogetherConfig{BaseProviderConfig: cfg.base()}, logger)
	},
	"fireworks": func(cfg ProviderConfig, logger *zap.Logger) llm.Provider {
		return fireworks.NewFireworksProvider(providers.FireworksConfig{BaseProviderConfig: cfg.base()}, logger)
	},
	"ollama": func(cfg ProviderConfig, logger *zap.Logger) llm.Provider {
		// fixed local target; the adapter ignores model, key and base URL
		return ollama.NewOllamaProvider(providers.OllamaConfig{BaseProviderConfig: cfg.base()}, logger)
	},
}

// NewClient selects, validates and constructs a chat client for modelName.
//
// When no provider is given, it is auto-detected from the name pattern
// table. The credential comes from WithAPIKey or, failing that, from the
// <PROVIDER>_API_KEY environment variable (upper-cased provider name).
//
// Two per-model quirks are applied to the assembled parameters, in this
// order: models whose identifier contains "o1" or "o3" reject a sampling
// temperature, so the parameter is dropped entirely; otherwise models
// containing "r1" require temperature 0.6 regardless of the caller's
// value. Parameters left absent are never sent on the wire.
func NewClient(modelName string, opts ...Option) (llm.Provider, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	providerName := o.provider
	if providerName == "" {
		detected, err := DetectProvider(modelName)
		if err != nil {
			return nil, err
		}
		providerName = detected
	}

	if err := ValidateModel(providerName, modelName); err != nil {
		return nil, err
	}

	apiKey := o.apiKey
	if apiKey == "" {
		apiKey = os.Getenv(strings.ToUpper(providerName) + "_API_KEY")
	}

	temperature, maxTokens := applyModelQuirks(modelName, o.temperature, o.maxTokens)

	cfg := ProviderConfig{
		APIKey:      apiKey,
		BaseURL:     o.baseURL,
		Model:       modelName,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Timeout:     o.timeout,
		Extra:       o.extra,
	}

	build, ok := builders[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available providers: %s)",
			ErrUnsupportedProvider, providerName, strings.Join(Providers(), ", "))
	}

	client := build(cfg, logger)
	logger.Info("using provider",
		zap.String("provider", providerName),
		zap.String("model", modelName))
	return client, nil
}

// applyModelQuirks normalizes generation parameters for models with known
// constructor restrictions.
func applyModelQuirks(modelName string, temperature *float32, maxTokens int) (*float32, int) {
	switch {
	case strings.Contains(modelName, "o1") || strings.Contains(modelName, "o3"):
		// reasoning models reject the temperature parameter outright
		temperature = nil
	case strings.Contains(modelName, "r1"):
		// R1-family models want a fixed 0.6
		temperature = llm.Temp(0.6)
	}
	return temperature, maxTokens
}

// NewProviderFromConfig constructs an adapter by provider name and generic
// config, without catalog validation. Used to populate registries from
// configuration files.
func NewProviderFromConfig(name string, cfg ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available providers: %s)",
			ErrUnsupportedProvider, name, strings.Join(Providers(), ", "))
	}
	return build(cfg, logger), nil
}

// RegistryConfig describes multiple providers and which one is the default.
type RegistryConfig struct {
	// Default is the name of the default provider (must match a key in Providers).
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
	// Providers maps provider names to their configurations.
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers"`
}

// NewRegistryFromConfig builds a ProviderRegistry populated with every
// provider in the config. A provider that fails to initialize is logged
// and skipped.
func NewRegistryFromConfig(cfg RegistryConfig, logger *zap.Logger) (*llm.ProviderRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := llm.NewProviderRegistry()

	for name, pcfg := range cfg.Providers {
		p, err := NewProviderFromConfig(name, pcfg, logger)
		if err != nil {
			logger.Warn("skipping provider: initialization failed",
				zap.String("provider", name),
				zap.Error(err))
			continue
		}
		reg.Register(name, p)
		logger.Info("provider registered", zap.String("provider", name))
	}

	if cfg.Default != "" {
		if err := reg.SetDefault(cfg.Default); err != nil {
			return reg, fmt.Errorf("failed to set default provider %q: %w", cfg.Default, err)
		}
	}

	return reg, nil
}
