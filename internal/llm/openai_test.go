package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedChat struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string `json:"name"`
			Strict bool   `json:"strict"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

// chatServer serves a fixed chat completion and returns its base URL.
func chatServer(t *testing.T, status int, body map[string]any, got *capturedChat) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func chatCompletion(content, finish string, extra map[string]any) map[string]any {
	msg := map[string]any{"role": "assistant", "content": content}
	for k, v := range extra {
		msg[k] = v
	}
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4.1-mini-2025-04-14",
		"choices": []map[string]any{{"index": 0, "message": msg, "finish_reason": finish}},
		"usage":   map[string]any{"prompt_tokens": 80, "completion_tokens": 20, "total_tokens": 100},
	}
}

func TestOpenAI_StructuredResponse(t *testing.T) {
	var got capturedChat
	url := chatServer(t, http.StatusOK, chatCompletion(`{"title":"Asthma"}`, "stop", nil), &got)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-mini", BaseURL: url})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", p.ModelID())

	resp, err := p.Generate(context.Background(), Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "q"}},
		Schema:   titleSchema,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Asthma"}`, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 80, OutputTokens: 20, TotalTokens: 100}, resp.Usage)
	assert.Equal(t, "gpt-4.1-mini-2025-04-14", resp.Model)
	assert.Equal(t, StopEnd, resp.StopReason)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	assert.Equal(t, "title-only", got.ResponseFormat.JSONSchema.Name)
	assert.True(t, got.ResponseFormat.JSONSchema.Strict)
}

func TestOpenAI_Refusal(t *testing.T) {
	body := chatCompletion("", "stop", map[string]any{"refusal": "I can't help with that."})
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt", BaseURL: chatServer(t, http.StatusOK, body, nil)})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "q"}},
		Schema:   titleSchema,
	})
	var refused *ErrRefused
	require.ErrorAs(t, err, &refused)
	assert.False(t, Retryable(err))
}

func TestOpenAI_Truncated(t *testing.T) {
	body := chatCompletion(`{"title":"Asth`, "length", nil)
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt", BaseURL: chatServer(t, http.StatusOK, body, nil)})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "q"}},
		Schema:   titleSchema,
	})
	var trunc *ErrMaxTokensExceeded
	assert.ErrorAs(t, err, &trunc)
}

func TestOpenAI_ErrorClassification(t *testing.T) {
	errBody := func(code string) map[string]any {
		return map[string]any{"error": map[string]any{"message": "boom", "type": code, "code": code}}
	}
	cases := []struct {
		status int
		want   any
	}{
		{http.StatusTooManyRequests, new(*ErrRateLimit)},
		{http.StatusBadGateway, new(*ErrProviderUnavailable)},
		{http.StatusBadRequest, new(*ErrRequestRejected)},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			url := chatServer(t, tc.status, errBody("x"), nil)
			p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt", BaseURL: url})
			require.NoError(t, err)

			_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "q"}}})
			require.Error(t, err)
			assert.ErrorAs(t, err, tc.want)
		})
	}
}

func TestNewOpenAIProvider(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt"})
	assert.Error(t, err)

	_, err = NewOpenAIProvider(OpenAIConfig{APIKey: "k"})
	assert.Error(t, err)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-2024-08-06"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-2024-08-06", p.ModelID())
	assert.True(t, p.strict)
}
