package funnel

import (
	"context"

	"github.com/abhisek/prepfunnel/internal/question"
)

// CuratedPool returns hand-reviewed ("gold") questions for a module.
type CuratedPool interface {
	GetApproved(ctx context.Context, moduleID string) ([]question.Question, error)
}

// CachedSet is a precomputed question set for a guide.
type CachedSet struct {
	Questions []question.Question
	// Active reports whether a question id is still in service. A nil
	// Active treats every question as active.
	Active func(id string) bool
}

// ActiveQuestions returns the questions that pass the active filter.
func (s *CachedSet) ActiveQuestions() []question.Question {
	if s == nil {
		return nil
	}
	if s.Active == nil {
		return s.Questions
	}
	out := make([]question.Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		if s.Active(q.ID) {
			out = append(out, q)
		}
	}
	return out
}

// CachedPool returns the cached ("prefab") set for a guide, or nil when the
// guide has none.
type CachedPool interface {
	GetCached(ctx context.Context, guideID string) (*CachedSet, error)
}

// Generator produces new, untrusted candidates on demand.
type Generator interface {
	Generate(ctx context.Context, content string, req GenerationRequest) ([]question.RawCandidate, error)
}
