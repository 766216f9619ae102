package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Provider is the core abstraction for LLM interaction.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set the Content is JSON already validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt.
	System string

	// Messages is the conversation. Question generation and tutoring are
	// single-turn, so this is normally one user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to. Providers
	// use their native structured output mechanism for it. When nil the
	// response Content is the raw text.
	Schema *Schema

	// MaxTokens caps the response length. Zero leaves the provider default.
	MaxTokens int

	// Temperature controls randomness in [0, 1]. Zero is sent as unset.
	Temperature float64
}

// Validate rejects requests no provider can serve.
func (r Request) Validate() error {
	if len(r.Messages) == 0 {
		return errors.New("llm request has no messages")
	}
	if r.MaxTokens < 0 {
		return errors.New("llm request max tokens is negative")
	}
	if r.Temperature < 0 || r.Temperature > 1 {
		return errors.New("llm request temperature outside [0, 1]")
	}
	if r.Schema != nil && r.Schema.Name == "" {
		return errors.New("llm request schema has no name")
	}
	return nil
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies the schema: the output format name for Anthropic and
	// the json_schema name for OpenAI. Kebab-case, e.g. "question-batch".
	Name string

	// Description tells the model what the object represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
	StopRefused   = "refused"
)

// Response holds the LLM's output.
type Response struct {
	// Content is the validated JSON object when the request had a Schema,
	// otherwise the raw text.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request, which may
	// differ from ModelID behind a gateway.
	Model string

	// StopReason is one of StopEnd, StopMaxTokens, StopRefused.
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add sums two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		TotalTokens:  u.TotalTokens + o.TotalTokens,
	}
}

// finish turns a truncated or refused structured response into an error.
// Free-text responses pass through so callers can use partial output.
func finish(req Request, resp *Response) (*Response, error) {
	if req.Schema == nil {
		return resp, nil
	}
	switch resp.StopReason {
	case StopMaxTokens:
		return nil, &ErrMaxTokensExceeded{Content: resp.Content}
	case StopRefused:
		return nil, &ErrRefused{Reason: "stop reason " + resp.StopReason}
	}
	body, err := validateResponse(req.Schema, resp.Content)
	if err != nil {
		return nil, err
	}
	resp.Content = body
	return resp, nil
}
