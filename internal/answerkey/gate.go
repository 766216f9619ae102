package answerkey

import "github.com/abhisek/prepfunnel/internal/question"

// Gate runs the validator chain and PrepareForSession. Every candidate,
// whatever its source, passes through a Gate before entering a batch.
type Gate struct {
	Validators []Validator
	Session    SessionOptions
}

// NewGate creates a Gate with the default validator chain.
func NewGate(session SessionOptions) *Gate {
	return &Gate{Validators: DefaultValidators(), Session: session}
}

// Admit returns the session-ready question, or the first validation error.
func (g *Gate) Admit(q question.Question) (*question.Question, *ValidationError) {
	prepared := PrepareForSession(q, g.Session)
	if prepared == nil {
		res := Resolve(q.CorrectAnswer, q.Options, q.Explanation)
		return nil, &ValidationError{
			Validator: "prepare",
			Message:   "answer key could not be located exactly once (resolution " + string(res.Source) + ")",
			Retryable: true,
		}
	}
	for _, v := range g.Validators {
		if verr := v.Validate(prepared); verr != nil {
			return nil, verr
		}
	}
	return prepared, nil
}
