package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/prepfunnel/internal/llm"
)

// Service generates tutor content.
type Service struct {
	provider   llm.Provider
	cfg        Config
	profileCfg ProfileConfig
	now        func() time.Time
}

// NewService creates a tutor service.
func NewService(provider llm.Provider, cfg Config, profileCfg ProfileConfig) *Service {
	return &Service{provider: provider, cfg: cfg, profileCfg: profileCfg, now: time.Now}
}

type explanationOutput struct {
	Summary     string `json:"summary"`
	WhyCorrect  string `json:"why_correct"`
	Distractors []struct {
		Option string `json:"option"`
		Why    string `json:"why"`
	} `json:"distractors"`
	KeyPoint string `json:"key_point"`
}

// Explain generates an explanation for input.Question.
func (s *Service) Explain(ctx context.Context, input ExplainInput) (*Explanation, error) {
	if input.Question.Stem == "" {
		return nil, errors.New("explain: question has no stem")
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeExplain)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      explainSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildExplainUserMessage(input)}},
		Schema:      ExplanationSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("explanation generation: %w", err)
	}

	var out explanationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse explanation response: %w", err)
	}

	ex := &Explanation{
		QuestionID: input.Question.ID,
		Summary:    out.Summary,
		WhyCorrect: out.WhyCorrect,
		KeyPoint:   out.KeyPoint,
	}
	for _, d := range out.Distractors {
		// The model sometimes annotates the key as a distractor.
		if d.Option == input.Question.CorrectAnswer {
			continue
		}
		ex.Distractors = append(ex.Distractors, DistractorNote{Option: d.Option, Why: d.Why})
	}
	return ex, nil
}

type profileOutput struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	NextSteps  []string `json:"next_steps"`
}

// Profile generates a study profile. A learner with no concepts gets an
// error rather than an invented profile.
func (s *Service) Profile(ctx context.Context, input ProfileInput) (*Profile, error) {
	if len(input.Concepts) == 0 {
		return nil, errors.New("profile: no concept history")
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeProfile)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      profileSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildProfileUserMessage(input)}},
		Schema:      ProfileSchema,
		MaxTokens:   s.profileCfg.MaxTokens,
		Temperature: s.profileCfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("profile generation: %w", err)
	}

	var out profileOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse profile response: %w", err)
	}

	return &Profile{
		Summary:     out.Summary,
		Strengths:   out.Strengths,
		Weaknesses:  out.Weaknesses,
		NextSteps:   out.NextSteps,
		GeneratedAt: s.now(),
	}, nil
}
