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

var titleSchema = &Schema{
	Name: "title-only",
	Definition: map[string]any{
		"type":                 "object",
		"properties":           map[string]any{"title": map[string]any{"type": "string"}},
		"required":             []string{"title"},
		"additionalProperties": false,
	},
}

// anthropicServer answers every call with status and body, and records the
// decoded request.
func anthropicServer(t *testing.T, status int, body map[string]any) (*AnthropicProvider, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "claude-haiku", BaseURL: srv.URL})
	require.NoError(t, err)
	return p, &got
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 120, "output_tokens": 45},
	}
}

func anthropicError(kind, msg string) map[string]any {
	return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": msg}}
}

func TestAnthropic_StructuredResponse(t *testing.T) {
	p, got := anthropicServer(t, http.StatusOK, anthropicMessage(`{"title":"Pneumonia"}`, "end_turn"))

	resp, err := p.Generate(context.Background(), Request{
		System:      "You write exam questions.",
		Messages:    []Message{{Role: RoleUser, Content: "one title"}},
		Schema:      titleSchema,
		Temperature: 0.5,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Pneumonia"}`, string(resp.Content))
	assert.Equal(t, StopEnd, resp.StopReason)
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 45, TotalTokens: 165}, resp.Usage)
	assert.Equal(t, "claude-haiku-4-5-20251001", resp.Model)

	assert.Equal(t, "claude-haiku-4-5-20251001", (*got)["model"])
	assert.EqualValues(t, 1024, (*got)["max_tokens"], "zero MaxTokens falls back to the default")
}

func TestAnthropic_TextBlocksJoined(t *testing.T) {
	msg := anthropicMessage(`{"title":`, "end_turn")
	msg["content"] = []map[string]any{
		{"type": "text", "text": `{"title":`},
		{"type": "text", "text": `"Asthma"}`},
	}
	p, _ := anthropicServer(t, http.StatusOK, msg)

	resp, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		Schema:   titleSchema,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Asthma"}`, string(resp.Content))
}

func TestAnthropic_StopReasons(t *testing.T) {
	req := Request{Messages: []Message{{Role: RoleUser, Content: "x"}}, Schema: titleSchema}

	p, _ := anthropicServer(t, http.StatusOK, anthropicMessage(`{"title":"Pne`, "max_tokens"))
	_, err := p.Generate(context.Background(), req)
	var trunc *ErrMaxTokensExceeded
	require.ErrorAs(t, err, &trunc)
	assert.Equal(t, `{"title":"Pne`, string(trunc.Content))

	p, _ = anthropicServer(t, http.StatusOK, anthropicMessage(`partial`, "max_tokens"))
	resp, err := p.Generate(context.Background(), Request{Messages: req.Messages})
	require.NoError(t, err, "free text keeps partial output")
	assert.Equal(t, StopMaxTokens, resp.StopReason)
}

func TestAnthropic_ErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   string
		check  func(t *testing.T, err error)
	}{
		{http.StatusTooManyRequests, "rate_limit_error", func(t *testing.T, err error) {
			var e *ErrRateLimit
			assert.ErrorAs(t, err, &e)
		}},
		{http.StatusInternalServerError, "api_error", func(t *testing.T, err error) {
			var e *ErrProviderUnavailable
			assert.ErrorAs(t, err, &e)
		}},
		{http.StatusUnauthorized, "authentication_error", func(t *testing.T, err error) {
			var e *ErrRequestRejected
			require.ErrorAs(t, err, &e)
			assert.Equal(t, http.StatusUnauthorized, e.Status)
		}},
		{http.StatusNotFound, "not_found_error", func(t *testing.T, err error) {
			assert.False(t, Retryable(err))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			p, _ := anthropicServer(t, tc.status, anthropicError(tc.kind, "nope"))
			_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestNewAnthropicProvider(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-haiku"})
	assert.Error(t, err, "missing key")

	_, err = NewAnthropicProvider(AnthropicConfig{APIKey: "k"})
	assert.Error(t, err, "missing model")

	for alias, id := range map[string]string{
		"claude-sonnet":            "claude-sonnet-4-5-20250929",
		"claude-haiku":             "claude-haiku-4-5-20251001",
		"claude-opus-4-1-20250805": "claude-opus-4-1-20250805",
	} {
		p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: alias})
		require.NoError(t, err)
		assert.Equal(t, id, p.ModelID())
	}
}
