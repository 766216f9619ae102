package mastery

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExpectedMastery_NoEvidence(t *testing.T) {
	c := *NewConceptState("asthma", "Asthma")
	if got := c.ExpectedMastery(); got != 0.5 {
		t.Errorf("ExpectedMastery = %v, want 0.5", got)
	}
	if got := c.Uncertainty(); got <= 0 {
		t.Errorf("Uncertainty = %v, want > 0", got)
	}
	// sqrt(1 / (4 * 3))
	if got := c.Uncertainty(); !approx(got, math.Sqrt(1.0/12)) {
		t.Errorf("Uncertainty = %v, want %v", got, math.Sqrt(1.0/12))
	}
}

func TestPriority_NoEvidence(t *testing.T) {
	c := *NewConceptState("asthma", "Asthma")
	want := 0.5 + 0.4*math.Sqrt(1.0/12)
	if got := c.Priority(); !approx(got, want) {
		t.Errorf("Priority = %v, want %v", got, want)
	}
}

func TestPriority_LowerMasteryIsMoreUrgent(t *testing.T) {
	// Beta(2,6) and Beta(6,2) share the same standard deviation.
	weak := ConceptState{Alpha: 2, Beta: 6}
	strong := ConceptState{Alpha: 6, Beta: 2}
	if !approx(weak.Uncertainty(), strong.Uncertainty()) {
		t.Fatalf("uncertainties differ: %v vs %v", weak.Uncertainty(), strong.Uncertainty())
	}
	if weak.ExpectedMastery() >= strong.ExpectedMastery() {
		t.Fatal("weak should have lower expected mastery")
	}
	if weak.Priority() <= strong.Priority() {
		t.Errorf("priority weak=%v strong=%v, want weak > strong", weak.Priority(), strong.Priority())
	}
}

func TestPriority_TimeFactor(t *testing.T) {
	ms := func(v float64) *float64 { return &v }
	base := ConceptState{Alpha: 3, Beta: 3}

	tests := []struct {
		name  string
		avgMs *float64
		bonus float64
	}{
		{"no timing", nil, 0},
		{"fast", ms(30000), 0},
		{"at one minute", ms(60000), 0},
		{"ninety seconds", ms(90000), 0.3 * 0.5},
		{"two minutes", ms(120000), 0.3},
		{"capped", ms(600000), 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			c.AvgResponseTimeMs = tt.avgMs
			if got := c.Priority() - base.Priority(); !approx(got, tt.bonus) {
				t.Errorf("time bonus = %v, want %v", got, tt.bonus)
			}
		})
	}
}

func TestPriority_TutorFactor(t *testing.T) {
	base := ConceptState{Alpha: 3, Beta: 3}
	for touches, bonus := range map[int]float64{0: 0, 1: 0.2 / 3, 3: 0.2, 7: 0.2} {
		c := base
		c.TutorTouches = touches
		if got := c.Priority() - base.Priority(); !approx(got, bonus) {
			t.Errorf("touches=%d bonus = %v, want %v", touches, got, bonus)
		}
	}
}
