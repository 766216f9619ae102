// Package tutor generates explanations for individual questions and
// study profiles summarizing a learner's mastery, both through an LLM.
package tutor

import (
	"time"

	"github.com/abhisek/prepfunnel/internal/mastery"
	"github.com/abhisek/prepfunnel/internal/question"
)

// Explanation walks a learner through one question.
type Explanation struct {
	QuestionID  string
	Summary     string
	WhyCorrect  string
	Distractors []DistractorNote
	KeyPoint    string
}

// DistractorNote says why one wrong option is wrong.
type DistractorNote struct {
	Option string
	Why    string
}

// ExplainInput holds the context for an explanation.
type ExplainInput struct {
	Question question.Question
	// Chosen is the option the learner picked, empty if they did not answer.
	Chosen string
	// Concepts are the learner's current states for the question's tags.
	Concepts []mastery.ConceptState
}

// Profile is a study summary of a learner's mastery.
type Profile struct {
	Summary     string
	Strengths   []string
	Weaknesses  []string
	NextSteps   []string
	GeneratedAt time.Time
}

// ProfileInput holds the context for profile generation.
type ProfileInput struct {
	Concepts []mastery.ConceptState
	Previous *Profile
}
