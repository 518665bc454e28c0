// Package config loads the application configuration from a YAML file,
// expanding ${VAR} references against the process environment so API keys
// can stay out of the file itself.
package config

import (
	"fmt"
	"os"

	"github.com/evalflow/llmselect/llm/factory"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	// Log configures the zap logger.
	Log LogConfig `yaml:"log"`

	// Default names the default provider in Providers.
	Default string `yaml:"default,omitempty"`

	// Providers maps provider names to their adapter configuration.
	Providers map[string]factory.ProviderConfig `yaml:"providers"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Providers: map[string]factory.ProviderConfig{
			"ollama": {},
		},
		Default: "ollama",
	}
}

// Load reads a YAML configuration file. ${VAR} references in the file are
// expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Registry converts the configuration into the factory's registry form.
func (c *Config) Registry() factory.RegistryConfig {
	return factory.RegistryConfig{
		Default:   c.Default,
		Providers: c.Providers,
	}
}

// BuildLogger constructs a zap logger from the log section.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	if c.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}
