// Package mastery keeps a per-concept Beta(alpha, beta) estimate of how well
// a learner knows each concept and updates it from learner responses.
package mastery

import (
	"sort"
	"time"
)

// MaxProcessedEvents bounds the processed-event ids kept in a FunnelState.
const MaxProcessedEvents = 512

// ConceptState is the mastery estimate for one concept.
type ConceptState struct {
	Key               string
	DisplayName       string
	Alpha             float64
	Beta              float64
	Attempts          int
	LastSeenAt        *time.Time
	AvgResponseTimeMs *float64
	// TimedResponses counts the responses averaged into AvgResponseTimeMs.
	TimedResponses int
	TutorTouches   int
}

// NewConceptState returns the no-evidence state Beta(1, 1).
func NewConceptState(key, displayName string) *ConceptState {
	return &ConceptState{
		Key:         key,
		DisplayName: displayName,
		Alpha:       1,
		Beta:        1,
	}
}

func (c *ConceptState) clone() *ConceptState {
	cp := *c
	if c.LastSeenAt != nil {
		t := *c.LastSeenAt
		cp.LastSeenAt = &t
	}
	if c.AvgResponseTimeMs != nil {
		v := *c.AvgResponseTimeMs
		cp.AvgResponseTimeMs = &v
	}
	return &cp
}

// FunnelState is one learner's mastery model keyed by concept key.
// Values are treated as immutable: every update returns a new FunnelState.
type FunnelState struct {
	Concepts map[string]*ConceptState
	// Processed holds the most recent response event ids, oldest first.
	Processed []string
}

// NewFunnelState returns an empty state.
func NewFunnelState() *FunnelState {
	return &FunnelState{Concepts: make(map[string]*ConceptState)}
}

// Clone returns a deep copy. A nil receiver yields an empty state.
func (s *FunnelState) Clone() *FunnelState {
	out := NewFunnelState()
	if s == nil {
		return out
	}
	for k, c := range s.Concepts {
		out.Concepts[k] = c.clone()
	}
	out.Processed = append([]string(nil), s.Processed...)
	return out
}

// Concept returns the state for key, or a fresh Beta(1, 1) state if the
// concept has not been seen. The returned value is a copy.
func (s *FunnelState) Concept(key string) ConceptState {
	if s != nil {
		if c, ok := s.Concepts[key]; ok {
			return *c.clone()
		}
	}
	return *NewConceptState(key, key)
}

// Keys returns every concept key in sorted order.
func (s *FunnelState) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.Concepts))
	for k := range s.Concepts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasProcessed reports whether a response event id was already applied.
func (s *FunnelState) HasProcessed(eventID string) bool {
	if s == nil || eventID == "" {
		return false
	}
	for _, id := range s.Processed {
		if id == eventID {
			return true
		}
	}
	return false
}

func (s *FunnelState) markProcessed(eventID string) {
	if eventID == "" {
		return
	}
	s.Processed = append(s.Processed, eventID)
	if n := len(s.Processed); n > MaxProcessedEvents {
		s.Processed = append([]string(nil), s.Processed[n-MaxProcessedEvents:]...)
	}
}

// touch returns the concept for a display label, creating it if needed.
// The first display label seen for a key wins.
func (s *FunnelState) touch(label string) *ConceptState {
	key := NormalizeKey(label)
	if key == "" {
		key = NormalizeKey(DefaultConcept)
		label = DefaultConcept
	}
	c, ok := s.Concepts[key]
	if !ok {
		c = NewConceptState(key, label)
		s.Concepts[key] = c
	}
	return c
}
