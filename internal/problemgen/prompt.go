package problemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/prepfunnel/internal/funnel"
)

const systemPrompt = `You write single-best-answer multiple-choice questions for learners preparing for an exam.

Rules:
- Base every question on the supplied study content. Do not test facts the content does not support.
- Follow the concept list exactly: one question per listed concept, in the listed order.
- Tag each question with its target concept first in "concepts", using the concept name as given.
- Give 4 or 5 options. Exactly one option is correct. Distractors should be plausible and reflect common misconceptions.
- Do not prefix options with letters or numbers.
- "correct_answer" must be the full text of the correct option, copied exactly.
- The explanation should say why the answer is right and why the strongest distractor is wrong.
- Do not repeat or paraphrase any question from the "do not repeat" list.`

// buildUserMessage constructs the user message for one generation request.
func buildUserMessage(content string, req funnel.GenerationRequest, cfg Config) string {
	var b strings.Builder

	b.WriteString(req.Instructions)
	b.WriteString("\n\n")

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "mixed"
	}
	fmt.Fprintf(&b, "Difficulty: %s\n", difficulty)
	fmt.Fprintf(&b, "Question count: %d\n", req.Count)

	b.WriteString("\nDo not repeat:\n")
	b.WriteString(buildDedup(req.Avoid, cfg.MaxAvoidStems))

	b.WriteString("\n\nStudy content:\n")
	b.WriteString(excerpt(content, cfg.MaxContentChars))

	return b.String()
}

// excerpt trims content to at most max runes, cutting at a paragraph or
// line boundary when one is close enough.
func excerpt(content string, max int) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return "None"
	}
	runes := []rune(content)
	if max <= 0 || len(runes) <= max {
		return content
	}
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, "\n\n"); i > max/2 {
		cut = cut[:i]
	} else if i := strings.LastIndex(cut, "\n"); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "\n[...]"
}
