package factory

import (
	"time"

	"go.uber.org/zap"
)

// defaults for client construction, matching the evaluation harness the
// factory was built for: deterministic generation, generous output budget.
const (
	DefaultMaxTokens = 4000
)

type options struct {
	provider    string
	temperature *float32
	maxTokens   int
	apiKey      string
	baseURL     string
	timeout     time.Duration
	extra       map[string]any
	logger      *zap.Logger
}

func defaultOptions() *options {
	zero := float32(0)
	return &options{
		temperature: &zero, // explicitly present, not merely zero-valued
		maxTokens:   DefaultMaxTokens,
	}
}

// Option customizes client construction.
type Option func(*options)

// WithProvider skips pattern-based auto-detection and names the provider
// directly. The (provider, model) pair is still validated.
func WithProvider(provider string) Option {
	return func(o *options) { o.provider = provider }
}

// WithTemperature sets the sampling temperature. Model quirks may still
// drop or override it (see NewClient).
func WithTemperature(t float32) Option {
	return func(o *options) { o.temperature = &t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(o *options) { o.maxTokens = n }
}

// WithAPIKey supplies the credential explicitly instead of reading it
// from the provider's environment variable.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL overrides the provider's default API root.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithTimeout overrides the adapter's HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithExtra forwards an additional constructor argument verbatim to the
// underlying adapter (merged into the request payload for wire-level
// extras, or consumed by the adapter for known fields such as
// "organization" on openai).
func WithExtra(key string, value any) Option {
	return func(o *options) {
		if o.extra == nil {
			o.extra = make(map[string]any)
		}
		o.extra[key] = value
	}
}

// WithLogger sets the logger the factory and the constructed adapter use.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}
