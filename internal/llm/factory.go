package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/prepfunnel/internal/logger"
	"github.com/abhisek/prepfunnel/internal/store"
)

// newBase builds the bare SDK provider selected by cfg.Provider.
func newBase(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		return NewOpenRouterProvider(cfg.OpenRouter)
	}
	return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
}

// NewProvider builds the provider chain callers use:
//
//	RetryProvider -> LoggingProvider -> SDK provider
//
// so every attempt, retried or not, lands in the event log. The mock
// provider is returned bare. events may be nil.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *logger.Logger) (Provider, error) {
	if cfg.Provider == "mock" {
		return NewMockProvider(), nil
	}
	base, err := newBase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return WithRetry(WithLogging(base, cfg.Provider, events, log), cfg.Retry, cfg.Timeout, log), nil
}
