package answerkey

import (
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/abhisek/prepfunnel/internal/question"
)

// SessionOptions controls PrepareForSession.
type SessionOptions struct {
	Shuffle bool
	// Rand supplies the permutation. A nil Rand uses the global source.
	Rand *rand.Rand
}

var leadingPrefix = regexp.MustCompile(`^\s*\(?[A-H]\s*(?:[.):]|\s-)\s*\S`)

// PrepareForSession returns a copy of q ready to show: options normalized,
// key resolved, options optionally shuffled, and the key re-pointed at the
// exact option string it resolved to. It returns nil when the key cannot be
// located exactly once among the final options or when validation fails.
// Callers must skip a nil result.
func PrepareForSession(q question.Question, opts SessionOptions) *question.Question {
	out := q.Clone()
	if out.Type == "" {
		out.Type = question.TypeMultipleChoice
	}
	out.Stem = strings.TrimSpace(out.Stem)

	if !out.Type.Selectable() {
		out.CorrectAnswer = strings.TrimSpace(out.CorrectAnswer)
		return &out
	}

	// Resolve against the original order so letter references stay valid.
	res := Resolve(out.CorrectAnswer, out.Options, out.Explanation)
	if !res.Resolved() {
		return nil
	}

	out.Options = normalizeOptions(out.Options)
	target := Normalize(res.Value)

	if opts.Shuffle {
		shuffle := rand.Shuffle
		if opts.Rand != nil {
			shuffle = opts.Rand.Shuffle
		}
		shuffle(len(out.Options), func(i, j int) {
			out.Options[i], out.Options[j] = out.Options[j], out.Options[i]
		})
	}

	found := -1
	for i, opt := range out.Options {
		if Normalize(opt) == target {
			if found >= 0 {
				return nil
			}
			found = i
		}
	}
	if found < 0 {
		return nil
	}
	out.CorrectAnswer = out.Options[found]

	if !ValidateAnswerKey(out).OK {
		return nil
	}
	return &out
}

// normalizeOptions trims and collapses whitespace. Letter prefixes are
// removed only when every option carries one, since a shuffled "B." in
// first position would mislead the learner.
func normalizeOptions(options []string) []string {
	out := make([]string, len(options))
	allPrefixed := len(options) > 0
	for i, opt := range options {
		out[i] = strings.TrimSpace(spaces.ReplaceAllString(opt, " "))
		if !leadingPrefix.MatchString(out[i]) {
			allPrefixed = false
		}
	}
	if allPrefixed {
		for i := range out {
			out[i] = StripPrefix(out[i])
		}
	}
	return out
}
