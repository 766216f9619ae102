package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string // Optional. Override for proxies and tests.
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: defaultOpenRouterModel
	BaseURL string // Default: defaultOpenRouterBaseURL
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: defaultOpenRouterModel},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		// Batches of twenty questions routinely take most of a minute.
		Timeout: 90 * time.Second,
	}
}

// stringVars lists the PREPFUNNEL_ variables copied verbatim into cfg.
func stringVars(cfg *Config) map[string]*string {
	return map[string]*string{
		"PREPFUNNEL_LLM_PROVIDER":        &cfg.Provider,
		"PREPFUNNEL_ANTHROPIC_API_KEY":   &cfg.Anthropic.APIKey,
		"PREPFUNNEL_ANTHROPIC_MODEL":     &cfg.Anthropic.Model,
		"PREPFUNNEL_ANTHROPIC_BASE_URL":  &cfg.Anthropic.BaseURL,
		"PREPFUNNEL_OPENAI_API_KEY":      &cfg.OpenAI.APIKey,
		"PREPFUNNEL_OPENAI_MODEL":        &cfg.OpenAI.Model,
		"PREPFUNNEL_OPENAI_BASE_URL":     &cfg.OpenAI.BaseURL,
		"PREPFUNNEL_GEMINI_API_KEY":      &cfg.Gemini.APIKey,
		"PREPFUNNEL_GEMINI_MODEL":        &cfg.Gemini.Model,
		"PREPFUNNEL_OPENROUTER_API_KEY":  &cfg.OpenRouter.APIKey,
		"PREPFUNNEL_OPENROUTER_MODEL":    &cfg.OpenRouter.Model,
		"PREPFUNNEL_OPENROUTER_BASE_URL": &cfg.OpenRouter.BaseURL,
	}
}

// ConfigFromEnv builds a Config from PREPFUNNEL_ environment variables,
// falling back to defaults for unset values. When no provider is named
// explicitly it falls back to DiscoverConfig. Malformed numbers and
// durations are ignored.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if os.Getenv("PREPFUNNEL_LLM_PROVIDER") == "" {
		if discovered, ok := DiscoverConfig(); ok {
			cfg = discovered
		}
	}

	for key, dst := range stringVars(&cfg) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v, err := strconv.Atoi(os.Getenv("PREPFUNNEL_LLM_MAX_ATTEMPTS")); err == nil && v > 0 {
		cfg.Retry.MaxAttempts = v
	}
	if v, err := time.ParseDuration(os.Getenv("PREPFUNNEL_LLM_TIMEOUT")); err == nil && v > 0 {
		cfg.Timeout = v
	}
	return cfg
}

// discoveryOrder is the priority in which vendor API key variables are
// probed by DiscoverConfig.
var discoveryOrder = []struct {
	env      string
	provider string
}{
	{"GEMINI_API_KEY", "gemini"},
	{"OPENAI_API_KEY", "openai"},
	{"ANTHROPIC_API_KEY", "anthropic"},
	{"OPENROUTER_API_KEY", "openrouter"},
}

// DiscoverConfig returns a Config for the first provider whose vendor API
// key variable is set, or (Config{}, false) when none is.
func DiscoverConfig() (Config, bool) {
	for _, d := range discoveryOrder {
		k := os.Getenv(d.env)
		if k == "" {
			continue
		}
		cfg := DefaultConfig()
		cfg.Provider = d.provider
		*cfg.apiKey(d.provider) = k
		return cfg, true
	}
	return Config{}, false
}

// apiKey returns the key field of a provider, nil for unknown providers.
func (c *Config) apiKey(provider string) *string {
	switch provider {
	case "anthropic":
		return &c.Anthropic.APIKey
	case "openai":
		return &c.OpenAI.APIKey
	case "gemini":
		return &c.Gemini.APIKey
	case "openrouter":
		return &c.OpenRouter.APIKey
	}
	return nil
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "mock":
		return nil
	case "":
		return fmt.Errorf("no LLM provider configured; set PREPFUNNEL_LLM_PROVIDER or a provider API key")
	}
	key := c.apiKey(c.Provider)
	if key == nil {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if *key == "" {
		return fmt.Errorf("PREPFUNNEL_%s_API_KEY is required for the %s provider", strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}
