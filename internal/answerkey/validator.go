package answerkey

import (
	"fmt"
	"strings"

	"github.com/abhisek/prepfunnel/internal/question"
)

// Validator checks a question before it may enter a batch.
// Implementations are stateless and safe for concurrent use.
type Validator interface {
	// Name is a short identifier used in errors and logs,
	// e.g. "structural", "answer-key".
	Name() string

	// Validate returns nil if q passes.
	Validate(q *question.Question) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Message   string
	// Retryable is true when regenerating the item is likely to fix it.
	Retryable bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// Check is the outcome of ValidateAnswerKey.
type Check struct {
	OK     bool
	Reason string
}

// ValidateAnswerKey checks that a selectable question has at least two
// options, a non-blank key, and exactly one option matching the key under
// normalized comparison. Free-response questions always pass.
func ValidateAnswerKey(q question.Question) Check {
	if !q.Type.Selectable() {
		return Check{OK: true}
	}
	if len(q.Options) < 2 {
		return Check{Reason: fmt.Sprintf("need at least 2 options, got %d", len(q.Options))}
	}
	key := Normalize(q.CorrectAnswer)
	if key == "" {
		return Check{Reason: "correct answer is blank"}
	}
	matches := 0
	for _, opt := range q.Options {
		if Normalize(opt) == key {
			matches++
		}
	}
	switch matches {
	case 0:
		return Check{Reason: fmt.Sprintf("correct answer %q matches no option", q.CorrectAnswer)}
	case 1:
		return Check{OK: true}
	default:
		return Check{Reason: fmt.Sprintf("correct answer %q matches %d options", q.CorrectAnswer, matches)}
	}
}

// AnswerKeyValidator adapts ValidateAnswerKey to the Validator chain.
type AnswerKeyValidator struct{}

func (v *AnswerKeyValidator) Name() string { return "answer-key" }

func (v *AnswerKeyValidator) Validate(q *question.Question) *ValidationError {
	c := ValidateAnswerKey(*q)
	if c.OK {
		return nil
	}
	return &ValidationError{Validator: v.Name(), Message: c.Reason, Retryable: true}
}

// StructuralValidator checks required fields and length limits.
type StructuralValidator struct {
	MaxStemLen   int
	MaxOptionLen int
}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *question.Question) *ValidationError {
	if strings.TrimSpace(q.Stem) == "" {
		return &ValidationError{Validator: v.Name(), Message: "stem is empty", Retryable: true}
	}
	if v.MaxStemLen > 0 && len(q.Stem) > v.MaxStemLen {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("stem exceeds %d characters", v.MaxStemLen),
			Retryable: true,
		}
	}
	if !q.Type.Selectable() {
		return nil
	}

	seen := make(map[string]bool, len(q.Options))
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("option %d is empty", i+1),
				Retryable: true,
			}
		}
		if v.MaxOptionLen > 0 && len(opt) > v.MaxOptionLen {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("option %d exceeds %d characters", i+1, v.MaxOptionLen),
				Retryable: true,
			}
		}
		key := Normalize(opt)
		if seen[key] {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("duplicate option %q", opt),
				Retryable: true,
			}
		}
		seen[key] = true
	}
	return nil
}

// DefaultValidators returns the standard chain.
func DefaultValidators() []Validator {
	return []Validator{
		&StructuralValidator{MaxStemLen: 4000, MaxOptionLen: 600},
		&AnswerKeyValidator{},
	}
}
