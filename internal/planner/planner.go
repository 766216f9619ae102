// Package planner decides which concepts a batch of questions should target.
package planner

import (
	"math"
	"sort"

	"github.com/abhisek/prepfunnel/internal/mastery"
)

const (
	// DefaultExploreRatio is the share of a batch reserved for least-tested
	// concepts.
	DefaultExploreRatio = 0.2

	// MinExplore is the floor on explore slots per batch.
	MinExplore = 2

	// MaxDistinctFocus caps the distinct high-priority concepts per batch.
	MaxDistinctFocus = 4

	// focusPoolSize is how many top-priority concepts are cycled to fill
	// remaining focus slots.
	focusPoolSize = 10
)

// Fallback is the target used when the concept universe is empty.
var Fallback = Target{Key: "general", DisplayName: "General"}

// Target is one concept a question should cover.
type Target struct {
	Key         string
	DisplayName string
}

// Selection is the outcome of SelectTargets.
type Selection struct {
	FocusCount     int
	ExploreCount   int
	FocusTargets   []Target
	ExploreTargets []Target
	// TargetsPerQuestion has exactly one entry per requested question.
	TargetsPerQuestion []Target
}

// ConceptUniverse returns the concepts eligible for a batch: the guide's
// concept titles, then extra concepts, then every concept already present in
// the mastery state. Entries are de-duplicated by normalized key and keep
// the first display label seen.
func ConceptUniverse(guideConcepts []string, st *mastery.FunnelState, extra []string) []Target {
	var out []Target
	seen := make(map[string]bool)
	add := func(key, label string) {
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, Target{Key: key, DisplayName: label})
	}

	for _, label := range guideConcepts {
		add(mastery.NormalizeKey(label), label)
	}
	for _, label := range extra {
		add(mastery.NormalizeKey(label), label)
	}
	for _, key := range st.Keys() {
		c := st.Concepts[key]
		add(key, c.DisplayName)
	}
	return out
}

// SelectTargets splits total question slots between focus (highest priority)
// and explore (fewest attempts) concepts and interleaves them.
func SelectTargets(universe []Target, st *mastery.FunnelState, total int, exploreRatio float64) Selection {
	if total <= 0 {
		return Selection{}
	}
	if math.IsNaN(exploreRatio) || exploreRatio < 0 || exploreRatio > 1 {
		exploreRatio = DefaultExploreRatio
	}

	exploreCount := max(MinExplore, int(math.Round(exploreRatio*float64(total))))
	exploreCount = min(exploreCount, total)
	focusCount := total - exploreCount

	byPriority := rank(universe, st, func(a, b mastery.ConceptState) bool {
		return a.Priority() > b.Priority()
	})
	byAttempts := rank(universe, st, func(a, b mastery.ConceptState) bool {
		return a.Attempts < b.Attempts
	})

	pool := byPriority[:min(focusPoolSize, len(byPriority))]
	distinct := byPriority[:min(MaxDistinctFocus, focusCount, len(byPriority))]

	focusQueue := append([]Target(nil), distinct...)
	for i := 0; len(focusQueue) < focusCount && len(pool) > 0; i++ {
		focusQueue = append(focusQueue, pool[i%len(pool)])
	}

	explore := byAttempts[:min(exploreCount, len(byAttempts))]

	stride := max(1, total/exploreCount)
	targets := make([]Target, 0, total)
	fi, ei, ci := 0, 0, 0
	for i := 0; i < total; i++ {
		switch {
		case i%stride == 0 && ei < len(explore):
			targets = append(targets, explore[ei])
			ei++
		case fi < len(focusQueue):
			targets = append(targets, focusQueue[fi])
			fi++
		case ei < len(explore):
			targets = append(targets, explore[ei])
			ei++
		case len(pool) > 0:
			targets = append(targets, pool[ci%len(pool)])
			ci++
		default:
			targets = append(targets, Fallback)
		}
	}

	return Selection{
		FocusCount:         focusCount,
		ExploreCount:       exploreCount,
		FocusTargets:       append([]Target(nil), distinct...),
		ExploreTargets:     append([]Target(nil), explore...),
		TargetsPerQuestion: targets,
	}
}

// rank returns a copy of universe stably sorted by less over each concept's
// mastery state; ties keep input order.
func rank(universe []Target, st *mastery.FunnelState, less func(a, b mastery.ConceptState) bool) []Target {
	type ranked struct {
		target Target
		state  mastery.ConceptState
	}
	rs := make([]ranked, len(universe))
	for i, t := range universe {
		rs[i] = ranked{target: t, state: st.Concept(t.Key)}
	}
	sort.SliceStable(rs, func(i, j int) bool {
		return less(rs[i].state, rs[j].state)
	})

	out := make([]Target, len(rs))
	for i, r := range rs {
		out[i] = r.target
	}
	return out
}
