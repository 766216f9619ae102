package llm

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"n":1}`), Usage: Usage{InputTokens: 4, OutputTokens: 2, TotalTokens: 6}},
		MockResponse{Content: json.RawMessage(`{"n":2}`), Model: "mock-large"},
	)
	mock.AddResponse(MockResponse{Err: &ErrRateLimit{}})
	assert.Equal(t, 3, mock.Pending())

	first, err := mock.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(first.Content))
	assert.Equal(t, 6, first.Usage.TotalTokens)
	assert.Equal(t, "mock", first.Model)
	assert.Equal(t, StopEnd, first.StopReason)

	second, err := mock.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "mock-large", second.Model)

	_, err = mock.Generate(context.Background(), testRequest())
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)

	_, err = mock.Generate(context.Background(), testRequest())
	var down *ErrProviderUnavailable
	assert.ErrorAs(t, err, &down, "empty queue")

	assert.Equal(t, 4, mock.CallCount())
	assert.Zero(t, mock.Pending())
}

func TestMockProvider_RecordsRequestsAndPurposes(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}, MockResponse{Content: json.RawMessage(`{}`)})

	_, _ = mock.Generate(WithPurpose(context.Background(), PurposeExplain), Request{System: "tutor", Messages: testRequest().Messages})
	_, _ = mock.Generate(context.Background(), testRequest())

	require.Len(t, mock.Calls, 2)
	assert.Equal(t, "tutor", mock.Calls[0].System)
	assert.Equal(t, []string{PurposeExplain, "unspecified"}, mock.Purposes)
}

func TestMockProvider_ValidatesAgainstSchema(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"heading":"wrong key"}`)},
		MockResponse{Content: json.RawMessage("```json\n{\"title\":\"ok\"}\n```")},
	)
	req := Request{Messages: testRequest().Messages, Schema: titleSchema}

	_, err := mock.Generate(context.Background(), req)
	var inv *ErrInvalidResponse
	require.ErrorAs(t, err, &inv)

	resp, err := mock.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"ok"}`, string(resp.Content))
}

func TestMockProvider_DelayHonorsContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`), Delay: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := mock.Generate(ctx, testRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPurposeContext(t *testing.T) {
	assert.Equal(t, "unspecified", PurposeFrom(context.Background()))
	assert.Equal(t, "unspecified", PurposeFrom(WithPurpose(context.Background(), "")))
	assert.Equal(t, PurposeQuestionGen, PurposeFrom(WithPurpose(context.Background(), PurposeQuestionGen)))
}

func TestRequestValidate(t *testing.T) {
	ok := testRequest()
	assert.NoError(t, ok.Validate())

	ok.Temperature = 1
	ok.MaxTokens = 10
	ok.Schema = titleSchema
	assert.NoError(t, ok.Validate())

	assert.Error(t, Request{}.Validate())
}

func TestUsageAdd(t *testing.T) {
	a := Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}
	b := Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}
	assert.Equal(t, Usage{InputTokens: 11, OutputTokens: 7, TotalTokens: 18}, a.Add(b))
}

func TestFinish_FreeTextPassesThrough(t *testing.T) {
	resp, err := finish(Request{}, &Response{Content: json.RawMessage("not json"), StopReason: StopRefused})
	require.NoError(t, err)
	assert.Equal(t, StopRefused, resp.StopReason)
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"mock needs no key", Config{Provider: "mock"}, ""},
		{"anthropic keyed", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "k"}}, ""},
		{"gemini keyed", Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "k"}}, ""},
		{"anthropic no key", Config{Provider: "anthropic"}, "PREPFUNNEL_ANTHROPIC_API_KEY"},
		{"openrouter no key", Config{Provider: "openrouter"}, "PREPFUNNEL_OPENROUTER_API_KEY"},
		{"nothing configured", Config{}, "no LLM provider configured"},
		{"unknown", Config{Provider: "llamafile"}, "unknown LLM provider"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func clearVendorKeys(t *testing.T) {
	for _, d := range discoveryOrder {
		t.Setenv(d.env, "")
	}
	t.Setenv("PREPFUNNEL_LLM_PROVIDER", "")
}

func TestConfigFromEnv_ExplicitProvider(t *testing.T) {
	clearVendorKeys(t)
	t.Setenv("PREPFUNNEL_LLM_PROVIDER", "openrouter")
	t.Setenv("PREPFUNNEL_OPENROUTER_API_KEY", "sk-or")
	t.Setenv("PREPFUNNEL_OPENROUTER_MODEL", "qwen/qwen3-32b")
	t.Setenv("PREPFUNNEL_ANTHROPIC_BASE_URL", "http://localhost:9000")
	t.Setenv("PREPFUNNEL_LLM_MAX_ATTEMPTS", "5")
	t.Setenv("PREPFUNNEL_LLM_TIMEOUT", "45s")

	cfg := ConfigFromEnv()
	assert.Equal(t, "openrouter", cfg.Provider)
	assert.Equal(t, "sk-or", cfg.OpenRouter.APIKey)
	assert.Equal(t, "qwen/qwen3-32b", cfg.OpenRouter.Model)
	assert.Equal(t, "http://localhost:9000", cfg.Anthropic.BaseURL)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_MalformedNumbersIgnored(t *testing.T) {
	clearVendorKeys(t)
	t.Setenv("PREPFUNNEL_LLM_MAX_ATTEMPTS", "lots")
	t.Setenv("PREPFUNNEL_LLM_TIMEOUT", "-3s")

	cfg := ConfigFromEnv()
	def := DefaultConfig()
	assert.Equal(t, def.Retry.MaxAttempts, cfg.Retry.MaxAttempts)
	assert.Equal(t, def.Timeout, cfg.Timeout)
}

func TestDiscoverConfig(t *testing.T) {
	clearVendorKeys(t)
	_, ok := DiscoverConfig()
	assert.False(t, ok)

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENROUTER_API_KEY", "sk-or")
	cfg, ok := DiscoverConfig()
	require.True(t, ok)
	assert.Equal(t, "anthropic", cfg.Provider, "anthropic outranks openrouter")
	assert.Equal(t, "sk-ant", cfg.Anthropic.APIKey)

	t.Setenv("OPENAI_API_KEY", "sk-oai")
	cfg = ConfigFromEnv()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-oai", cfg.OpenAI.APIKey)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	_, err = NewProvider(context.Background(), Config{Provider: "nope"}, nil, nil)
	assert.Error(t, err)

	p, err = NewProvider(context.Background(), Config{
		Provider: "openai",
		OpenAI:   OpenAIConfig{APIKey: "k", Model: "gpt-nano"},
		Retry:    fastRetry(),
	}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &RetryProvider{}, p)
	assert.Equal(t, "gpt-4.1-nano", p.ModelID())
}
