package question

import (
	"errors"
	"fmt"
	"strings"
)

// RetirementReason is the closed set of reasons a bank item can be retired.
type RetirementReason string

const (
	RetireIncorrectKey RetirementReason = "incorrect_key"
	RetireAmbiguous    RetirementReason = "ambiguous"
	RetireOutdated     RetirementReason = "outdated"
	RetireDuplicate    RetirementReason = "duplicate"
	RetireLowQuality   RetirementReason = "low_quality"
	RetireOther        RetirementReason = "other"
)

// ErrInvalidRetirement is returned for unknown reasons or a missing note.
var ErrInvalidRetirement = errors.New("invalid retirement")

var retirementReasons = []RetirementReason{
	RetireIncorrectKey,
	RetireAmbiguous,
	RetireOutdated,
	RetireDuplicate,
	RetireLowQuality,
	RetireOther,
}

// RetirementReasons lists every accepted reason.
func RetirementReasons() []RetirementReason {
	return append([]RetirementReason(nil), retirementReasons...)
}

// Retirement is a validated reason plus an optional free-text note.
// The note is required when Reason is RetireOther.
type Retirement struct {
	Reason RetirementReason
	Note   string
}

// ParseRetirement validates a reason string and note at the boundary.
func ParseRetirement(reason, note string) (Retirement, error) {
	r := RetirementReason(strings.ToLower(strings.TrimSpace(reason)))
	note = strings.TrimSpace(note)

	known := false
	for _, k := range retirementReasons {
		if r == k {
			known = true
			break
		}
	}
	if !known {
		return Retirement{}, fmt.Errorf("%w: unknown reason %q", ErrInvalidRetirement, reason)
	}
	if r == RetireOther && note == "" {
		return Retirement{}, fmt.Errorf("%w: reason %q requires a note", ErrInvalidRetirement, RetireOther)
	}
	return Retirement{Reason: r, Note: note}, nil
}
