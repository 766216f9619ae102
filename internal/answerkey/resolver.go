// Package answerkey reconciles a question's raw correct-answer field with
// its options and explanation, and guarantees that a question shown to a
// learner carries a key that is exactly one of its rendered options.
package answerkey

import (
	"regexp"
	"strings"
)

// Source names the rule that produced a resolved answer.
type Source string

const (
	SourceAnalysis   Source = "analysis"
	SourceLetter     Source = "letter"
	SourceField      Source = "field"
	SourceEmpty      Source = "empty"
	SourceUnresolved Source = "unresolved"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Value  string
	Source Source
}

// Resolved reports whether Value is one of the options.
func (r Resolution) Resolved() bool {
	return r.Source == SourceAnalysis || r.Source == SourceLetter || r.Source == SourceField
}

var (
	// "A." / "A)" / "A:" / "A -" followed by text.
	optionPrefix = regexp.MustCompile(`^\s*\(?[A-E]\s*(?:[.):]|\s-)\s*`)

	// A bare letter, optionally labelled: "B", "(B)", "B.", "Answer: B", "Option C".
	standaloneLetter = regexp.MustCompile(`^(?i:(?:correct\s+)?(?:answer|option|choice)\s*(?:is\s*)?[:\-]?\s*)?\(?([A-E])\)?[.):]?$`)

	// A leading letter token followed by option text: "B. Argatroban", "C) ...", "D - ...".
	leadingLetter = regexp.MustCompile(`^\(?([A-E])(?:[.):]|\)?\s+-)\s*\S`)

	analysisMarker = regexp.MustCompile(`(?i)(?:answer\s+)?choice\s+analysis\s*:`)
	correctWord    = regexp.MustCompile(`(?i)^\**\s*correct\b`)
	separatorCell  = regexp.MustCompile(`^:?-{2,}:?$`)
	spaces         = regexp.MustCompile(`\s+`)
)

// Resolve determines the authoritative correct option. Rules are tried in
// order: the Choice Analysis table in the explanation, a letter reference
// in the raw field, a text match of the raw field against the options, an
// empty field, and finally an unresolved fallback.
func Resolve(raw string, options []string, explanation string) Resolution {
	if v, ok := fromAnalysis(explanation, options); ok {
		return Resolution{Value: v, Source: SourceAnalysis}
	}

	trimmed := strings.TrimSpace(raw)

	if idx, ok := letterIndex(trimmed); ok && idx < len(options) {
		// "E. coli" is an option text, not a pointer to option E.
		if lit, ok := literalOption(trimmed, options); ok && lit != idx {
			return Resolution{Value: options[lit], Source: SourceField}
		}
		return Resolution{Value: options[idx], Source: SourceLetter}
	}

	if v, ok := fromField(trimmed, options); ok {
		return Resolution{Value: v, Source: SourceField}
	}

	if trimmed == "" {
		return Resolution{Value: "", Source: SourceEmpty}
	}

	return Resolution{Value: StripPrefix(trimmed), Source: SourceUnresolved}
}

// Normalize prepares text for comparison: strips a leading single-letter
// option prefix, collapses whitespace and lowercases.
func Normalize(s string) string {
	s = StripPrefix(s)
	s = spaces.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// StripPrefix removes a leading "A." / "A)" / "A:" / "A -" option prefix.
func StripPrefix(s string) string {
	s = strings.TrimSpace(s)
	loc := optionPrefix.FindStringIndex(s)
	if loc == nil || loc[1] >= len(s) {
		// A bare prefix with no text after it is left alone.
		return s
	}
	return strings.TrimSpace(s[loc[1]:])
}

// literalOption finds the single option equal to s without prefix stripping.
func literalOption(s string, options []string) (int, bool) {
	want := strings.ToLower(spaces.ReplaceAllString(strings.TrimSpace(s), " "))
	found := -1
	for i, opt := range options {
		if strings.ToLower(spaces.ReplaceAllString(strings.TrimSpace(opt), " ")) == want {
			if found >= 0 {
				return 0, false
			}
			found = i
		}
	}
	return found, found >= 0
}

func letterIndex(s string) (int, bool) {
	if m := standaloneLetter.FindStringSubmatch(s); m != nil {
		return int(m[1][0] - 'A'), true
	}
	if m := leadingLetter.FindStringSubmatch(s); m != nil {
		return int(m[1][0] - 'A'), true
	}
	return 0, false
}

// fromField matches the raw field against the options: a unique exact
// normalized match wins, otherwise a unique substring match in either
// direction.
func fromField(raw string, options []string) (string, bool) {
	norm := Normalize(raw)
	if norm == "" {
		return "", false
	}
	return matchOption(norm, options)
}

func matchOption(norm string, options []string) (string, bool) {
	exact := -1
	exactCount := 0
	for i, opt := range options {
		if Normalize(opt) == norm {
			exactCount++
			exact = i
		}
	}
	if exactCount == 1 {
		return options[exact], true
	}
	if exactCount > 1 {
		return "", false
	}

	sub := -1
	subCount := 0
	for i, opt := range options {
		o := Normalize(opt)
		if o == "" {
			continue
		}
		if strings.Contains(o, norm) || strings.Contains(norm, o) {
			subCount++
			sub = i
		}
	}
	if subCount == 1 {
		return options[sub], true
	}
	return "", false
}

type analysisRow struct {
	option    string
	rationale string
}

// fromAnalysis reads the Choice Analysis table. It only succeeds when
// exactly one row is marked Correct and that row maps to exactly one option.
func fromAnalysis(explanation string, options []string) (string, bool) {
	rows := parseAnalysis(explanation)
	if len(rows) == 0 {
		return "", false
	}

	var marked []analysisRow
	for _, r := range rows {
		if correctWord.MatchString(r.rationale) {
			marked = append(marked, r)
		}
	}
	if len(marked) != 1 {
		return "", false
	}

	label := strings.TrimSpace(marked[0].option)
	if m := standaloneLetter.FindStringSubmatch(strings.ToUpper(label)); m != nil && len(label) <= 4 {
		idx := int(m[1][0] - 'A')
		if idx < len(options) {
			return options[idx], true
		}
		return "", false
	}
	return matchOption(Normalize(label), options)
}

func parseAnalysis(explanation string) []analysisRow {
	loc := analysisMarker.FindStringIndex(explanation)
	if loc == nil {
		return nil
	}

	var rows []analysisRow
	started := false
	for _, line := range strings.Split(explanation[loc[1]:], "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "|") {
			if started {
				break
			}
			continue
		}
		started = true

		cells := splitRow(line)
		if len(cells) < 2 || isSeparatorRow(cells) {
			continue
		}
		rows = append(rows, analysisRow{
			option:    cells[0],
			rationale: strings.Join(cells[1:], " | "),
		})
	}
	return rows
}

func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if c == "" {
			continue
		}
		if !separatorCell.MatchString(c) {
			return false
		}
	}
	return true
}
