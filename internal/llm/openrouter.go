package llm

import "fmt"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "google/gemini-2.0-flash-exp"
)

// OpenRouterProvider is an OpenAIProvider pointed at OpenRouter. Model ids
// are vendor-prefixed ("anthropic/claude-3-haiku") and pass through as is.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
// Strict json_schema mode is off because not every routed model honors it;
// responses are still validated locally.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	oai := OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}
	if oai.BaseURL == "" {
		oai.BaseURL = defaultOpenRouterBaseURL
	}
	if oai.Model == "" {
		oai.Model = defaultOpenRouterModel
	}

	inner, err := newOpenAICompatible(oai, false)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}
