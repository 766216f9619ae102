package problemgen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/prepfunnel/internal/funnel"
	"github.com/abhisek/prepfunnel/internal/llm"
	"github.com/abhisek/prepfunnel/internal/question"
)

// LLMGenerator implements funnel.Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// batchOutput is the raw LLM response. Candidates decode leniently so
// keyed options or index answers from a loose model still resolve.
type batchOutput struct {
	Questions []question.RawCandidate `json:"questions"`
}

// Generate asks the model for req.Count questions. The candidates are
// returned unvalidated; the caller gates them like any other source.
func (g *LLMGenerator) Generate(ctx context.Context, content string, req funnel.GenerationRequest) ([]question.RawCandidate, error) {
	if req.Count <= 0 {
		return nil, nil
	}
	if g.config.MaxBatch > 0 && req.Count > g.config.MaxBatch {
		return nil, fmt.Errorf("batch of %d exceeds limit %d", req.Count, g.config.MaxBatch)
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)

	userMsg := buildUserMessage(content, req, g.config)

	llmReq := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      BatchSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, llmReq)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var out batchOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	for i := range out.Questions {
		if out.Questions[i].Type == "" {
			out.Questions[i].Type = question.TypeMultipleChoice
		}
	}
	return out.Questions, nil
}
