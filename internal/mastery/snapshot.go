package mastery

import (
	"math"
	"time"

	"github.com/abhisek/prepfunnel/internal/store"
)

// SnapshotVersion is the current persisted format version.
const SnapshotVersion = 1

// ToSnapshot exports a state for persistence.
func ToSnapshot(st *FunnelState) *store.FunnelSnapshotData {
	data := &store.FunnelSnapshotData{
		Version:  SnapshotVersion,
		Concepts: make(map[string]*store.ConceptData),
	}
	if st == nil {
		return data
	}

	for key, c := range st.Concepts {
		cd := &store.ConceptData{
			Key:          key,
			DisplayName:  c.DisplayName,
			Alpha:        c.Alpha,
			Beta:         c.Beta,
			Attempts:       c.Attempts,
			TimedResponses: c.TimedResponses,
			TutorTouches:   c.TutorTouches,
		}
		if c.LastSeenAt != nil {
			s := c.LastSeenAt.UTC().Format(time.RFC3339)
			cd.LastSeenAt = &s
		}
		if c.AvgResponseTimeMs != nil {
			v := *c.AvgResponseTimeMs
			cd.AvgResponseTimeMs = &v
		}
		data.Concepts[key] = cd
	}
	data.Processed = append([]string(nil), st.Processed...)
	return data
}

// FromSnapshot rebuilds a state from persisted data. Nil data yields an
// empty state. Non-positive shape parameters are reset to 1.
func FromSnapshot(data *store.FunnelSnapshotData) *FunnelState {
	st := NewFunnelState()
	if data == nil {
		return st
	}

	for key, cd := range data.Concepts {
		if cd == nil {
			continue
		}
		if key == "" {
			key = NormalizeKey(cd.DisplayName)
		}
		c := &ConceptState{
			Key:          key,
			DisplayName:  cd.DisplayName,
			Alpha:        positiveOr(cd.Alpha, 1),
			Beta:         positiveOr(cd.Beta, 1),
			Attempts:       max(cd.Attempts, 0),
			TimedResponses: max(cd.TimedResponses, 0),
			TutorTouches:   max(cd.TutorTouches, 0),
		}
		if c.DisplayName == "" {
			c.DisplayName = key
		}
		if cd.LastSeenAt != nil {
			if t, err := time.Parse(time.RFC3339, *cd.LastSeenAt); err == nil {
				c.LastSeenAt = &t
			}
		}
		if cd.AvgResponseTimeMs != nil {
			v := *cd.AvgResponseTimeMs
			c.AvgResponseTimeMs = &v
			// Snapshots written before the count was kept weigh the mean as one sample.
			if c.TimedResponses == 0 {
				c.TimedResponses = 1
			}
		} else {
			c.TimedResponses = 0
		}
		st.Concepts[key] = c
	}

	st.Processed = append([]string(nil), data.Processed...)
	if n := len(st.Processed); n > MaxProcessedEvents {
		st.Processed = st.Processed[n-MaxProcessedEvents:]
	}
	return st
}

func positiveOr(v, fallback float64) float64 {
	if v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) {
		return v
	}
	return fallback
}
