package mastery

import "time"

// DefaultConcept tags responses to questions that carry no concept tags.
const DefaultConcept = "General"

// slowResponseMs is the response time above which a response counts as
// partial evidence of not knowing the concept.
const slowResponseMs = 120_000

// Rating is the learner's four-point confidence rating.
type Rating int

const (
	RatingAgain Rating = 1
	RatingHard  Rating = 2
	RatingGood  Rating = 3
	RatingEasy  Rating = 4
)

// Clamp maps out-of-range ratings onto the nearest valid one.
func (r Rating) Clamp() Rating {
	if r < RatingAgain {
		return RatingAgain
	}
	if r > RatingEasy {
		return RatingEasy
	}
	return r
}

func (r Rating) String() string {
	switch r.Clamp() {
	case RatingAgain:
		return "again"
	case RatingHard:
		return "hard"
	case RatingGood:
		return "good"
	default:
		return "easy"
	}
}

// Response is one learner answer to a question.
type Response struct {
	// EventID identifies the response for at-most-once processing.
	EventID        string
	QuestionID     string
	Concepts       []string
	Rating         Rating
	Correct        bool
	ResponseTimeMs int64
	// TutorBefore is set when the learner asked for help before answering.
	TutorBefore bool
	At          time.Time
}

// Weights returns the evidence a response adds to alpha (correct) and beta
// (wrong).
func Weights(r Response) (correctW, wrongW float64) {
	switch r.Rating.Clamp() {
	case RatingAgain:
		correctW, wrongW = 0, 1.2
	case RatingHard:
		if r.Correct {
			correctW, wrongW = 0.6, 0.4
		} else {
			correctW, wrongW = 0, 1.0
		}
	case RatingGood:
		if r.Correct {
			correctW, wrongW = 1.0, 0
		} else {
			correctW, wrongW = 0, 1.0
		}
	case RatingEasy:
		if r.Correct {
			correctW, wrongW = 1.3, 0
		} else {
			correctW, wrongW = 0, 1.0
		}
	}
	if r.ResponseTimeMs > slowResponseMs {
		wrongW += 0.2
	}
	if r.TutorBefore {
		wrongW += 0.2
	}
	return correctW, wrongW
}

// ApplyResponse returns the state after applying r to every concept tagged on
// the question. The input state is not modified. When r.EventID was already
// applied the input is returned unchanged with applied=false.
func ApplyResponse(st *FunnelState, r Response) (next *FunnelState, applied bool) {
	if st.HasProcessed(r.EventID) {
		return st, false
	}

	next = st.Clone()
	at := r.At
	if at.IsZero() {
		at = time.Now()
	}
	correctW, wrongW := Weights(r)

	concepts := r.Concepts
	if len(concepts) == 0 {
		concepts = []string{DefaultConcept}
	}

	updated := make(map[string]bool, len(concepts))
	for _, label := range concepts {
		c := next.touch(label)
		// Duplicate tags on one question count once.
		if updated[c.Key] {
			continue
		}
		updated[c.Key] = true

		c.Alpha += correctW
		c.Beta += wrongW
		c.Attempts++
		if r.ResponseTimeMs > 0 {
			rt := float64(r.ResponseTimeMs)
			if c.AvgResponseTimeMs == nil || c.TimedResponses < 1 {
				c.AvgResponseTimeMs = &rt
				c.TimedResponses = 1
			} else {
				c.TimedResponses++
				avg := *c.AvgResponseTimeMs + (rt-*c.AvgResponseTimeMs)/float64(c.TimedResponses)
				c.AvgResponseTimeMs = &avg
			}
		}
		t := at
		c.LastSeenAt = &t
	}

	next.markProcessed(r.EventID)
	return next, true
}

// RecordTutorTouch returns the state after the learner asked for help on a
// question they have not answered yet. Alpha and beta are untouched.
func RecordTutorTouch(st *FunnelState, concepts []string, at time.Time) *FunnelState {
	next := st.Clone()
	if at.IsZero() {
		at = time.Now()
	}
	if len(concepts) == 0 {
		concepts = []string{DefaultConcept}
	}

	touched := make(map[string]bool, len(concepts))
	for _, label := range concepts {
		c := next.touch(label)
		if touched[c.Key] {
			continue
		}
		touched[c.Key] = true
		c.TutorTouches++
		t := at
		c.LastSeenAt = &t
	}
	return next
}
