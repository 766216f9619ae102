// Package fingerprint derives dedupe keys from question content.
package fingerprint

import (
	"regexp"
	"strings"

	"github.com/abhisek/prepfunnel/internal/question"
)

const (
	optionSeparator = "|"
	stemSeparator   = "||"
)

// boilerplate matches sentences that sources append to stems without
// changing the question itself.
var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(?\s*a representative image is provided below\s*[.:]?\s*\)?`),
}

var whitespace = regexp.MustCompile(`\s+`)

// Set is a set of fingerprints.
type Set map[string]struct{}

// Has reports whether fp is in the set.
func (s Set) Has(fp string) bool {
	_, ok := s[fp]
	return ok
}

// Add inserts fp.
func (s Set) Add(fp string) {
	s[fp] = struct{}{}
}

// Clone returns a copy of s. A nil set clones to an empty one.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Union returns a new set holding every member of s and others.
func (s Set) Union(others ...Set) Set {
	out := s.Clone()
	for _, o := range others {
		for k := range o {
			out[k] = struct{}{}
		}
	}
	return out
}

// Of returns the fingerprint of q: the normalized stem followed by the
// normalized options in their given order.
func Of(q question.Question) string {
	var b strings.Builder
	b.WriteString(normalizeStem(q.Stem))
	b.WriteString(stemSeparator)
	for i, opt := range q.Options {
		if i > 0 {
			b.WriteString(optionSeparator)
		}
		b.WriteString(normalizeText(opt))
	}
	return b.String()
}

// BuildSet fingerprints every question.
func BuildSet(qs []question.Question) Set {
	s := make(Set, len(qs))
	for _, q := range qs {
		s.Add(Of(q))
	}
	return s
}

// FilterDuplicates walks qs in order and keeps each question whose
// fingerprint is neither in existing nor produced by an earlier kept item.
// existing is not modified; the returned set is existing plus every kept
// fingerprint.
func FilterDuplicates(qs []question.Question, existing Set) ([]question.Question, Set) {
	seen := existing.Clone()
	unique := make([]question.Question, 0, len(qs))
	for _, q := range qs {
		fp := Of(q)
		if seen.Has(fp) {
			continue
		}
		seen.Add(fp)
		unique = append(unique, q)
	}
	return unique, seen
}

func normalizeStem(s string) string {
	for _, re := range boilerplate {
		s = re.ReplaceAllString(s, " ")
	}
	return normalizeText(s)
}

func normalizeText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
