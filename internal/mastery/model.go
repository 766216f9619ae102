package mastery

import "math"

// Priority weights.
const (
	weightGap         = 1.0
	weightUncertainty = 0.4
	weightTime        = 0.3
	weightTutor       = 0.2
)

// ExpectedMastery is the mean of Beta(alpha, beta).
func (c ConceptState) ExpectedMastery() float64 {
	return c.Alpha / (c.Alpha + c.Beta)
}

// Uncertainty is the standard deviation of Beta(alpha, beta).
func (c ConceptState) Uncertainty() float64 {
	sum := c.Alpha + c.Beta
	return math.Sqrt(c.Alpha * c.Beta / (sum * sum * (sum + 1)))
}

// Priority scores how urgently the concept should be re-tested; higher is
// more urgent. Slow answers (mean above one minute) and tutor requests raise
// it.
func (c ConceptState) Priority() float64 {
	return weightGap*(1-c.ExpectedMastery()) +
		weightUncertainty*c.Uncertainty() +
		weightTime*c.timeFactor() +
		weightTutor*c.tutorFactor()
}

func (c ConceptState) timeFactor() float64 {
	if c.AvgResponseTimeMs == nil {
		return 0
	}
	return clamp((*c.AvgResponseTimeMs-60000)/60000, 0, 1)
}

func (c ConceptState) tutorFactor() float64 {
	return clamp(float64(c.TutorTouches)/3, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
