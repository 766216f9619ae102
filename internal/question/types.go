package question

// Question is a multiple-choice (or free-response) item ready for a batch.
type Question struct {
	// ID is an opaque identifier, unique across sources.
	ID string `json:"id" yaml:"id"`

	// Stem is the question prompt.
	Stem string `json:"stem" yaml:"stem"`

	// Options holds the option texts in display order.
	// At least 2 for selectable types; empty for free response.
	Options []string `json:"options" yaml:"options"`

	// CorrectAnswer is the raw correct-answer field. Before validation it may
	// be a letter ("B"), a prefixed option ("B. Argatroban") or full text.
	// After PrepareForSession it equals exactly one element of Options.
	CorrectAnswer string `json:"correct_answer" yaml:"correct_answer"`

	// Explanation is the rationale text. It may embed a "Choice Analysis"
	// table marking the authoritative correct option.
	Explanation string `json:"explanation" yaml:"explanation"`

	// Concepts are display labels of the concepts this item tests.
	Concepts []string `json:"concepts" yaml:"concepts"`

	Difficulty string `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`

	Type Type `json:"type,omitempty" yaml:"type,omitempty"`

	Source     SourceType `json:"source,omitempty" yaml:"source,omitempty"`
	Provenance Provenance `json:"provenance" yaml:"provenance,omitempty"`
}

// Type describes how the learner answers.
type Type string

const (
	// TypeMultipleChoice is single-best-answer multiple choice. It is the
	// default when Type is empty.
	TypeMultipleChoice Type = "multiple_choice"
	TypeTrueFalse      Type = "true_false"
	TypeFreeResponse   Type = "free_response"
)

// Selectable reports whether the learner picks from Options.
func (t Type) Selectable() bool {
	return t != TypeFreeResponse
}

// SourceType identifies which provider supplied a question.
type SourceType string

const (
	SourceGold      SourceType = "gold"
	SourcePrefab    SourceType = "prefab"
	SourceGenerated SourceType = "generated"
)

// Provenance records where a question came from.
type Provenance struct {
	GuideID  string `json:"guide_id,omitempty" yaml:"guide_id,omitempty"`
	ModuleID string `json:"module_id,omitempty" yaml:"module_id,omitempty"`
}

// Clone returns a deep copy of q.
func (q Question) Clone() Question {
	c := q
	if q.Options != nil {
		c.Options = append([]string(nil), q.Options...)
	}
	if q.Concepts != nil {
		c.Concepts = append([]string(nil), q.Concepts...)
	}
	return c
}

// Candidate is a question considered during batch assembly.
type Candidate struct {
	Question   Question
	Source     SourceType
	Provenance Provenance
}
