package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepfunnel/internal/mastery"
)

func keys(ts []Target) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Key
	}
	return out
}

func respond(t *testing.T, st *mastery.FunnelState, id, concept string, correct bool) *mastery.FunnelState {
	t.Helper()
	rating := mastery.RatingGood
	if !correct {
		rating = mastery.RatingAgain
	}
	next, applied := mastery.ApplyResponse(st, mastery.Response{
		EventID: id, Concepts: []string{concept}, Rating: rating, Correct: correct,
	})
	require.True(t, applied)
	return next
}

func TestSelectTargets_RespiratoryScenario(t *testing.T) {
	universe := ConceptUniverse([]string{"Pneumonia", "Asthma", "COPD"}, mastery.NewFunnelState(), nil)

	sel := SelectTargets(universe, mastery.NewFunnelState(), 5, DefaultExploreRatio)

	assert.Equal(t, 2, sel.ExploreCount)
	assert.Equal(t, 3, sel.FocusCount)
	require.Len(t, sel.TargetsPerQuestion, 5)
	got := keys(sel.TargetsPerQuestion)
	for _, k := range []string{"pneumonia", "asthma", "copd"} {
		assert.Contains(t, got, k)
	}
	// Explore slots land on positions divisible by the stride of 2.
	assert.Equal(t, []string{"pneumonia", "pneumonia", "asthma", "asthma", "copd"}, got)
}

func TestSelectTargets_LengthAndDistinctFocusBound(t *testing.T) {
	var labels []string
	for i := 0; i < 12; i++ {
		labels = append(labels, fmt.Sprintf("Concept %02d", i))
	}
	st := mastery.NewFunnelState()
	universe := ConceptUniverse(labels, st, nil)

	for total := 1; total <= 20; total++ {
		for _, n := range []int{0, 1, 3, 12} {
			sel := SelectTargets(universe[:n], st, total, DefaultExploreRatio)
			assert.Len(t, sel.TargetsPerQuestion, total, "total=%d universe=%d", total, n)
			assert.LessOrEqual(t, len(sel.FocusTargets), min(MaxDistinctFocus, sel.FocusCount))
			assert.Equal(t, total, sel.FocusCount+sel.ExploreCount)
			assert.GreaterOrEqual(t, sel.FocusCount, 0)
		}
	}
}

func TestSelectTargets_ExploreCount(t *testing.T) {
	universe := ConceptUniverse([]string{"a", "b", "c"}, nil, nil)
	tests := []struct {
		total       int
		ratio       float64
		wantExplore int
	}{
		{1, 0.2, 1}, // floor of 2 capped by total
		{2, 0.2, 2},
		{5, 0.2, 2},
		{10, 0.2, 2},
		{20, 0.2, 4},
		{20, 0.5, 10},
		{20, -1, 4}, // invalid ratio falls back to the default
	}
	for _, tt := range tests {
		sel := SelectTargets(universe, nil, tt.total, tt.ratio)
		assert.Equal(t, tt.wantExplore, sel.ExploreCount, "total=%d ratio=%v", tt.total, tt.ratio)
	}
}

func TestSelectTargets_FocusFavoursWeakConcepts(t *testing.T) {
	st := mastery.NewFunnelState()
	st = respond(t, st, "1", "Asthma", true)
	st = respond(t, st, "2", "Asthma", true)
	st = respond(t, st, "3", "COPD", false)
	st = respond(t, st, "4", "COPD", false)
	st = respond(t, st, "5", "Pneumonia", true)

	universe := ConceptUniverse([]string{"Pneumonia", "Asthma", "COPD", "Heart Failure"}, st, nil)
	sel := SelectTargets(universe, st, 10, DefaultExploreRatio)

	require.NotEmpty(t, sel.FocusTargets)
	assert.Equal(t, "copd", sel.FocusTargets[0].Key)
	// Least-tested first: heart failure has no attempts.
	assert.Equal(t, "heart failure", sel.ExploreTargets[0].Key)
	assert.Equal(t, "pneumonia", sel.ExploreTargets[1].Key)
}

func TestSelectTargets_EmptyUniverseFallsBack(t *testing.T) {
	sel := SelectTargets(nil, nil, 3, DefaultExploreRatio)
	require.Len(t, sel.TargetsPerQuestion, 3)
	for _, tg := range sel.TargetsPerQuestion {
		assert.Equal(t, Fallback, tg)
	}
	assert.Empty(t, sel.FocusTargets)
	assert.Empty(t, sel.ExploreTargets)
}

func TestSelectTargets_ZeroTotal(t *testing.T) {
	sel := SelectTargets(ConceptUniverse([]string{"a"}, nil, nil), nil, 0, DefaultExploreRatio)
	assert.Empty(t, sel.TargetsPerQuestion)
}

func TestConceptUniverse_UnionAndOrder(t *testing.T) {
	st := mastery.NewFunnelState()
	st = respond(t, st, "1", "Sepsis", true)
	st = respond(t, st, "2", "asthma", true)

	u := ConceptUniverse([]string{"Asthma", "COPD", "copd"}, st, []string{"Anemia", "Sepsis"})

	assert.Equal(t, []string{"asthma", "copd", "anemia", "sepsis"}, keys(u))
	// Guide label wins over the label stored in mastery state.
	assert.Equal(t, "Asthma", u[0].DisplayName)
}
