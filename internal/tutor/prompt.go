package tutor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/prepfunnel/internal/mastery"
)

const explainSystemPrompt = `You are a concise exam-prep tutor. A learner is reviewing a multiple-choice question and wants to understand it. Be accurate and specific; do not invent facts beyond standard references.`

func buildExplainUserMessage(input ExplainInput) string {
	var b strings.Builder
	q := input.Question

	fmt.Fprintf(&b, "Question: %s\n", q.Stem)
	b.WriteString("Options:\n")
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "%c. %s\n", 'A'+i, opt)
	}
	fmt.Fprintf(&b, "Correct answer: %s\n", q.CorrectAnswer)
	if input.Chosen != "" {
		fmt.Fprintf(&b, "Learner chose: %s\n", input.Chosen)
	}
	if q.Explanation != "" {
		fmt.Fprintf(&b, "Reference explanation: %s\n", q.Explanation)
	}

	if len(input.Concepts) > 0 {
		b.WriteString("\nLearner mastery on these concepts:\n")
		for _, c := range input.Concepts {
			fmt.Fprintf(&b, "- %s: %.0f%% (%d attempts)\n", c.DisplayName, c.ExpectedMastery()*100, c.Attempts)
		}
	}

	b.WriteString(`
Instructions:
1. Summarize what the question tests in one sentence.
2. Explain why the correct answer is correct in 2-4 sentences.`)
	if input.Chosen != "" && input.Chosen != q.CorrectAnswer {
		b.WriteString(" Address the option the learner chose directly.")
	}
	b.WriteString(`
3. For every wrong option, say briefly why it is wrong. Copy the option text exactly.
4. End with one key point worth memorizing.
Use plain text, no markdown.`)

	return b.String()
}

const profileSystemPrompt = `You are writing a study profile for an exam-prep learner from their per-concept mastery estimates. Be direct and practical.`

func buildProfileUserMessage(input ProfileInput) string {
	var b strings.Builder

	concepts := append([]mastery.ConceptState(nil), input.Concepts...)
	sort.SliceStable(concepts, func(i, j int) bool {
		return concepts[i].ExpectedMastery() < concepts[j].ExpectedMastery()
	})
	if len(concepts) > MaxProfileConcepts {
		concepts = concepts[:MaxProfileConcepts]
	}

	b.WriteString("Concept mastery (weakest first):\n")
	if len(concepts) == 0 {
		b.WriteString("None\n")
	}
	for _, c := range concepts {
		fmt.Fprintf(&b, "- %s: mastery=%.2f uncertainty=%.3f attempts=%d tutor=%d\n",
			c.DisplayName, c.ExpectedMastery(), c.Uncertainty(), c.Attempts, c.TutorTouches)
	}

	if input.Previous != nil {
		fmt.Fprintf(&b, "\nPrevious Profile:\n%s\n", input.Previous.Summary)
		fmt.Fprintf(&b, "Strengths: %s\n", strings.Join(input.Previous.Strengths, ", "))
		fmt.Fprintf(&b, "Weaknesses: %s\n", strings.Join(input.Previous.Weaknesses, ", "))
	}

	b.WriteString(`
Instructions:
1. Write a 3-5 sentence summary of where the learner stands.
2. List the concepts they have mastered as strengths. Only count a concept when mastery is high and attempts are not tiny.
3. List the concepts that need the most work as weaknesses.
4. Suggest 1-3 concrete next steps.
Use concept names exactly as given.`)

	return b.String()
}
