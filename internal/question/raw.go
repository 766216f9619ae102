package question

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// RawCandidate is an untrusted item as returned by a generation provider.
// Providers disagree on the shape of options and answers, so both are
// decoded into tagged variants. A RawCandidate must pass through
// fingerprinting and the answer-key gate before it becomes a Question.
type RawCandidate struct {
	Stem        string     `json:"stem"`
	Options     RawOptions `json:"options"`
	Answer      RawAnswer  `json:"correct_answer"`
	Explanation string     `json:"explanation"`
	Concepts    []string   `json:"concepts"`
	Difficulty  string     `json:"difficulty"`
	Type        Type       `json:"type"`
}

// OptionsKind tags the shape a provider used for options.
type OptionsKind int

const (
	OptionsNone  OptionsKind = iota
	OptionsList              // ["x", "y"]
	OptionsKeyed             // {"A": "x", "B": "y"}
	OptionsText              // "A. x\nB. y"
)

// RawOptions holds options in whichever shape the provider sent.
type RawOptions struct {
	Kind  OptionsKind
	List  []string
	Keyed map[string]string
	Text  string
}

func (o *RawOptions) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	switch {
	case trimmed == "null" || trimmed == "":
		*o = RawOptions{Kind: OptionsNone}
	case strings.HasPrefix(trimmed, "["):
		var items []any
		if err := json.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("decode option list: %w", err)
		}
		list := make([]string, 0, len(items))
		for _, it := range items {
			list = append(list, scalarString(it))
		}
		*o = RawOptions{Kind: OptionsList, List: list}
	case strings.HasPrefix(trimmed, "{"):
		var keyed map[string]any
		if err := json.Unmarshal(b, &keyed); err != nil {
			return fmt.Errorf("decode keyed options: %w", err)
		}
		m := make(map[string]string, len(keyed))
		for k, v := range keyed {
			m[k] = scalarString(v)
		}
		*o = RawOptions{Kind: OptionsKeyed, Keyed: m}
	default:
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode option text: %w", err)
		}
		*o = RawOptions{Kind: OptionsText, Text: s}
	}
	return nil
}

var optionLinePattern = regexp.MustCompile(`^\s*\(?([A-Ha-h])\s*[.):\-]\s*(.+)$`)

// Resolve returns the options as an ordered list.
func (o RawOptions) Resolve() []string {
	switch o.Kind {
	case OptionsList:
		return append([]string(nil), o.List...)
	case OptionsKeyed:
		keys := make([]string, 0, len(o.Keyed))
		for k := range o.Keyed {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return strings.ToUpper(keys[i]) < strings.ToUpper(keys[j])
		})
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, o.Keyed[k])
		}
		return out
	case OptionsText:
		var out []string
		for _, line := range strings.Split(o.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if m := optionLinePattern.FindStringSubmatch(line); m != nil {
				out = append(out, strings.TrimSpace(m[2]))
				continue
			}
			out = append(out, line)
		}
		return out
	}
	return nil
}

// AnswerKind tags the shape a provider used for the correct answer.
type AnswerKind int

const (
	AnswerNone  AnswerKind = iota
	AnswerText             // "Argatroban" or "B"
	AnswerIndex            // 1 (zero-based index into options)
)

// RawAnswer holds the correct-answer field as sent.
type RawAnswer struct {
	Kind  AnswerKind
	Text  string
	Index int
}

func (a *RawAnswer) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" || trimmed == "" {
		*a = RawAnswer{Kind: AnswerNone}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode answer: %w", err)
		}
		*a = RawAnswer{Kind: AnswerText, Text: s}
		return nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fmt.Errorf("answer must be a string or an integer index, got %s", trimmed)
	}
	*a = RawAnswer{Kind: AnswerIndex, Index: n}
	return nil
}

// ToQuestion converts the candidate into an unvalidated Question tagged as
// generated. An index answer is turned into the option text it points at.
func (c RawCandidate) ToQuestion() Question {
	opts := c.Options.Resolve()
	answer := ""
	switch c.Answer.Kind {
	case AnswerText:
		answer = c.Answer.Text
	case AnswerIndex:
		if c.Answer.Index >= 0 && c.Answer.Index < len(opts) {
			answer = opts[c.Answer.Index]
		}
	}
	typ := c.Type
	if typ == "" {
		typ = TypeMultipleChoice
	}
	return Question{
		Stem:          strings.TrimSpace(c.Stem),
		Options:       opts,
		CorrectAnswer: answer,
		Explanation:   c.Explanation,
		Concepts:      append([]string(nil), c.Concepts...),
		Difficulty:    c.Difficulty,
		Type:          typ,
		Source:        SourceGenerated,
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
