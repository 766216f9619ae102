package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/abhisek/prepfunnel/internal/mastery"
	"github.com/abhisek/prepfunnel/internal/tutor"
)

func TestRenderStats_SortedByPriority(t *testing.T) {
	st := mastery.NewFunnelState()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		st, _ = mastery.ApplyResponse(st, mastery.Response{
			EventID: "p" + string(rune('a'+i)), Concepts: []string{"Pneumonia"},
			Rating: mastery.RatingEasy, Correct: true, ResponseTimeMs: 20_000, At: at,
		})
	}
	st, _ = mastery.ApplyResponse(st, mastery.Response{
		EventID: "a1", Concepts: []string{"Asthma"}, Rating: mastery.RatingAgain, At: at,
	})

	out := renderStats("amy", st)
	asthma := strings.Index(out, "Asthma")
	pneumonia := strings.Index(out, "Pneumonia")
	if asthma < 0 || pneumonia < 0 {
		t.Fatalf("missing concepts:\n%s", out)
	}
	if asthma > pneumonia {
		t.Errorf("expected weak Asthma before Pneumonia:\n%s", out)
	}
	if !strings.Contains(out, "20.0") {
		t.Errorf("expected average response seconds:\n%s", out)
	}
}

func TestParseRating(t *testing.T) {
	tests := map[string]mastery.Rating{
		"again": mastery.RatingAgain,
		"Hard":  mastery.RatingHard,
		"":      mastery.RatingGood,
		"4":     mastery.RatingEasy,
		"9":     mastery.RatingEasy,
		"0":     mastery.RatingAgain,
	}
	for in, want := range tests {
		got, err := parseRating(in)
		if err != nil {
			t.Fatalf("parseRating(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("parseRating(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseRating("meh"); err == nil {
		t.Error("expected error for unknown rating")
	}
}

func TestWriteExplanationAndProfile(t *testing.T) {
	var b strings.Builder
	writeExplanation(&b, &tutor.Explanation{
		Summary:     "Rescue therapy",
		WhyCorrect:  "Fast onset.",
		Distractors: []tutor.DistractorNote{{Option: "Montelukast", Why: "Controller."}},
		KeyPoint:    "SABA relieves.",
	}, "Salbutamol")
	out := b.String()
	for _, want := range []string{"Answer: Salbutamol", "Montelukast:", "Remember: SABA relieves."} {
		if !strings.Contains(out, want) {
			t.Errorf("explanation missing %q:\n%s", want, out)
		}
	}

	b.Reset()
	writeProfile(&b, "amy", &tutor.Profile{Summary: "Doing fine.", Weaknesses: []string{"Asthma"}})
	out = b.String()
	if !strings.Contains(out, "Weaknesses") || !strings.Contains(out, "  - Asthma") {
		t.Errorf("profile output:\n%s", out)
	}
	if strings.Contains(out, "Strengths") {
		t.Errorf("empty sections should be omitted:\n%s", out)
	}
}
