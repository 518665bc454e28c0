package factory

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for resolution failures. Wrapped errors carry the model
// and provider names; use errors.Is to classify.
var (
	// ErrProviderNotDetected means no name pattern matched the model.
	ErrProviderNotDetected = errors.New("could not detect provider")

	// ErrUnsupportedProvider means the provider is not in the catalog.
	ErrUnsupportedProvider = errors.New("provider not supported")

	// ErrUnsupportedModel means the model is not listed for its provider.
	ErrUnsupportedModel = errors.New("model not available")
)

// Capability tags a model as open-weights or proprietary. Informational
// only; nothing in the factory enforces it.
type Capability string

const (
	CapabilityOpenSource Capability = "open-source"
	CapabilityPrivate    Capability = "private"
)

type catalogEntry struct {
	Provider string
	Models   []string
}

// catalog lists the models offered per provider. The slice keeps provider
// order stable so AllModels is deterministic.
var catalog = []catalogEntry{
	{Provider: "ollama", Models: []string{
		"llama3.2:3b",
		"mistral:7b",
	}},
	{Provider: "anthropic", Models: []string{
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
	}},
	{Provider: "mistral", Models: []string{
		"open-mistral-nemo-2407",
		"ministral-8b-2410",
		"mistral-small-2409",
		"mistral-large-2411",
		"mistral-small-2501",
	}},
	{Provider: "google", Models: []string{
		"gemini-2.0-flash-exp",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
		"gemini-2.0-flash-001",
	}},
	{Provider: "together", Models: []string{
		"meta-llama/Llama-3.3-70B-Instruct-Turbo",
		"meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo",
		"deepseek-ai/DeepSeek-R1",
		"deepseek-ai/DeepSeek-V3",
	}},
	{Provider: "openai", Models: []string{
		"gpt-4o-2024-11-20",
		"gpt-4o-mini",
		"o1-2024-12-17",
		"o3-mini-2025-01-31",
	}},
	{Provider: "fireworks", Models: []string{
		"accounts/fireworks/models/qwen-qwq-32b-preview",
		"accounts/fireworks/models/qwen2p5-72b-instruct",
		"accounts/fireworks/models/deepseek-v3",
		"accounts/fireworks/models/deepseek-r1",
	}},
}

// capabilities tags known models. Not every catalog model is tagged.
var capabilities = map[string]Capability{
	"llama3.2:3b":                CapabilityOpenSource,
	"mistral:7b":                 CapabilityOpenSource,
	"claude-3-5-sonnet-20241022": CapabilityPrivate,
	"claude-3-5-haiku-20241022":  CapabilityPrivate,
	"open-mistral-nemo-2407":     CapabilityOpenSource,
	"ministral-8b-2410":          CapabilityPrivate,
	"mistral-small-2409":         CapabilityPrivate,
	"mistral-large-2411":         CapabilityPrivate,
	"gemini-2.0-flash-exp":       CapabilityPrivate,
	"gemini-1.5-flash":           CapabilityPrivate,
	"gemini-1.5-pro":             CapabilityPrivate,
	"gemini-2.0-flash-001":       CapabilityPrivate,
	"meta-llama/Llama-3.3-70B-Instruct-Turbo":     CapabilityOpenSource,
	"meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo": CapabilityOpenSource,
	"gpt-4o-2024-11-20": CapabilityPrivate,
	"gpt-4o-mini":       CapabilityPrivate,
	"o1-2024-12-17":     CapabilityPrivate,
	"accounts/fireworks/models/qwen-qwq-32b-preview": CapabilityOpenSource,
	"accounts/fireworks/models/qwen2p5-72b-instruct": CapabilityOpenSource,
	"accounts/fireworks/models/deepseek-v3":          CapabilityOpenSource,
	"accounts/fireworks/models/deepseek-r1":          CapabilityOpenSource,
}

type pattern struct {
	Substring string
	Provider  string
}

// patterns drives provider auto-detection: first case-insensitive
// substring match wins.
//
// ORDER MATTERS. Patterns overlap ("mistral-" vs "ministral", "r1" vs
// "deepseek-v3", "fireworks" paths containing "r1"), and ties are broken
// only by position in this table. Reorder at your peril.
var patterns = []pattern{
	{"o1", "openai"},
	{"o3", "openai"},
	{"gpt-4o", "openai"},
	{"claude", "anthropic"},
	{"mistral-", "mistral"},
	{"ministral", "mistral"},
	{"gemini", "google"},
	{"mixtral", "together"},
	{"llama", "ollama"},
	{"fireworks", "fireworks"},
	{"r1", "together"},
	{"deepseek-v3", "together"},
}

// DetectProvider resolves a provider from a model name by scanning the
// pattern table in order and returning the provider of the first pattern
// that occurs as a substring of the lower-cased name.
func DetectProvider(modelName string) (string, error) {
	lower := strings.ToLower(modelName)
	for _, p := range patterns {
		if strings.Contains(lower, p.Substring) {
			return p.Provider, nil
		}
	}
	return "", fmt.Errorf("%w for model name: %s", ErrProviderNotDetected, modelName)
}

// ValidateModel checks that the provider exists and offers the model.
func ValidateModel(provider, modelName string) error {
	for _, entry := range catalog {
		if entry.Provider != provider {
			continue
		}
		for _, m := range entry.Models {
			if m == modelName {
				return nil
			}
		}
		return fmt.Errorf("%w: model %s is not available for %s (available: %s)",
			ErrUnsupportedModel, modelName, provider, strings.Join(entry.Models, ", "))
	}
	return fmt.Errorf("%w: %s (available providers: %s)",
		ErrUnsupportedProvider, provider, strings.Join(Providers(), ", "))
}

// AllModels returns every catalog model, flattened in catalog order.
// No sorting, no deduplication.
func AllModels() []string {
	var all []string
	for _, entry := range catalog {
		all = append(all, entry.Models...)
	}
	return all
}

// Providers returns the provider names in catalog order.
func Providers() []string {
	names := make([]string, 0, len(catalog))
	for _, entry := range catalog {
		names = append(names, entry.Provider)
	}
	return names
}

// ProviderModels returns the models listed for one provider, in catalog
// order, or false if the provider is unknown.
func ProviderModels(provider string) ([]string, bool) {
	for _, entry := range catalog {
		if entry.Provider == provider {
			return append([]string(nil), entry.Models...), true
		}
	}
	return nil, false
}

// ModelCapability reports the open-source/private tag for a model, if known.
func ModelCapability(modelName string) (Capability, bool) {
	c, ok := capabilities[modelName]
	return c, ok
}
