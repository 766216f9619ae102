package funnel

import (
	"strings"

	"github.com/abhisek/prepfunnel/internal/mastery"
	"github.com/abhisek/prepfunnel/internal/planner"
	"github.com/abhisek/prepfunnel/internal/question"
)

const (
	tagMatchWeight   = 3
	stemTokenWeight  = 1
	minStemTokenSize = 3
)

// poolItem is a candidate with its match features precomputed.
type poolItem struct {
	cand       question.Candidate
	fp         string
	tagKeys    []string
	stemTokens map[string]bool
	used       bool
}

func newPoolItem(c question.Candidate, fp string) *poolItem {
	it := &poolItem{cand: c, fp: fp, stemTokens: tokenSet(c.Question.Stem)}
	for _, tag := range c.Question.Concepts {
		if k := mastery.NormalizeKey(tag); k != "" {
			it.tagKeys = append(it.tagKeys, k)
		}
	}
	return it
}

// score rates how well the item covers target: three points per concept tag
// equal to the target key plus one per distinct target token found in the
// stem. The fallback target accepts any item.
func (it *poolItem) score(target planner.Target) int {
	if target == planner.Fallback {
		return 1
	}
	s := 0
	for _, k := range it.tagKeys {
		if k == target.Key {
			s += tagMatchWeight
		}
	}
	for tok := range tokenSet(target.Key) {
		if it.stemTokens[tok] {
			s += stemTokenWeight
		}
	}
	return s
}

// tokenSet splits normalized text into distinct tokens of at least
// minStemTokenSize characters.
func tokenSet(text string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(mastery.NormalizeKey(text), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}) {
		if len(tok) >= minStemTokenSize {
			out[tok] = true
		}
	}
	return out
}

// matchesTarget reports whether any of the question's concept tags
// normalizes to the target key.
func matchesTarget(q question.Question, target planner.Target) bool {
	for _, tag := range q.Concepts {
		if mastery.NormalizeKey(tag) == target.Key {
			return true
		}
	}
	return false
}
