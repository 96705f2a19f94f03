// Package config resolves runtime configuration from flags, environment
// variables (STELA_ prefix), and an optional .env file, in that order of
// precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable for the service.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `mapstructure:"addr"`
	// BackendURL is the base URL of the affiliate data backend.
	BackendURL string `mapstructure:"backend_url"`

	// Provider selects the completion-service backend (bedrock, openai,
	// anthropic).
	Provider string `mapstructure:"provider"`
	// ModelID overrides the provider's default model.
	ModelID     string  `mapstructure:"model_id"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	// FallbackModels are tried by the provider layer on rate limiting.
	FallbackModels []string `mapstructure:"fallback_models"`
	MaxRetries     int      `mapstructure:"max_retries"`

	// MaxRounds caps model calls per conversation.
	MaxRounds int `mapstructure:"max_rounds"`
	// ToolTimeout bounds each backend tool call.
	ToolTimeout time.Duration `mapstructure:"tool_timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load reads configuration. A .env file in the working directory is loaded
// first when present; deployments keep AWS session credentials there.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local dev.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STELA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("backend_url", "http://localhost:8000")
	v.SetDefault("provider", "bedrock")
	v.SetDefault("model_id", "")
	v.SetDefault("temperature", 0.0)
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("fallback_models", []string{})
	v.SetDefault("max_retries", 2)
	v.SetDefault("max_rounds", 8)
	v.SetDefault("tool_timeout", 10*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend_url must not be empty")
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be positive, got %d", c.MaxRounds)
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("tool_timeout must be positive, got %s", c.ToolTimeout)
	}
	return nil
}
