package store

import (
	"context"
	"time"

	"github.com/abhisek/prepfunnel/internal/question"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// FunnelSnapshotData is the persisted form of a learner's funnel state.
type FunnelSnapshotData struct {
	Version   int                     `json:"version"`
	Concepts  map[string]*ConceptData `json:"concepts"`
	Processed []string                `json:"processed,omitempty"`
}

// ConceptData is the persisted form of one concept's mastery state.
type ConceptData struct {
	Key               string   `json:"key"`
	DisplayName       string   `json:"display_name"`
	Alpha             float64  `json:"alpha"`
	Beta              float64  `json:"beta"`
	Attempts          int      `json:"attempts"`
	LastSeenAt        *string  `json:"last_seen_at,omitempty"` // RFC3339
	AvgResponseTimeMs *float64 `json:"avg_response_time_ms,omitempty"`
	TimedResponses    int      `json:"timed_responses,omitempty"`
	TutorTouches      int      `json:"tutor_touches"`
}

// SnapshotRepo loads and saves per-learner funnel snapshots.
type SnapshotRepo interface {
	// Load returns the learner's snapshot, or nil if none exists.
	Load(ctx context.Context, learnerID string) (*FunnelSnapshotData, error)

	// Save replaces the learner's snapshot.
	Save(ctx context.Context, learnerID string, data *FunnelSnapshotData) error

	// Delete removes the learner's snapshot.
	Delete(ctx context.Context, learnerID string) error
}

// ResponseEventData captures one learner response.
type ResponseEventData struct {
	EventID     string
	Sequence    int64
	LearnerID   string
	QuestionID  string
	Rating      int
	Correct     bool
	ResponseMs  int64
	TutorBefore bool
	Concepts    []string
	CreatedAt   time.Time
}

// ResponseRepo records response events together with the snapshot they
// produced.
type ResponseRepo interface {
	// Record appends the event and replaces the learner's snapshot in one
	// transaction. It returns false, and writes nothing, when an event with
	// the same id was already recorded.
	Record(ctx context.Context, ev ResponseEventData, snap *FunnelSnapshotData) (bool, error)

	// Exists reports whether an event id was already recorded.
	Exists(ctx context.Context, eventID string) (bool, error)

	// List returns the learner's events in sequence order.
	List(ctx context.Context, learnerID string, opts QueryOpts) ([]ResponseEventData, error)

	// DeleteLearner removes every event of a learner.
	DeleteLearner(ctx context.Context, learnerID string) error
}

// SeenRepo tracks fingerprints of questions already delivered to a learner.
type SeenRepo interface {
	Load(ctx context.Context, learnerID string) ([]string, error)
	Add(ctx context.Context, learnerID string, fingerprints []string) error
	Clear(ctx context.Context, learnerID string) error
}

// BankKind separates curated (gold) items from cached (prefab) sets.
type BankKind string

const (
	BankGold   BankKind = "gold"
	BankPrefab BankKind = "prefab"
)

// BankQuestionData is one stored bank item.
type BankQuestionData struct {
	Kind         BankKind
	Question     question.Question
	Active       bool
	RetireReason string
	RetireNote   string
	CreatedAt    time.Time
}

// BankFilter narrows a bank listing. Empty fields match everything.
type BankFilter struct {
	Kind       BankKind
	ModuleID   string
	GuideID    string
	ActiveOnly bool
}

// BankRepo stores curated and cached question banks.
type BankRepo interface {
	// Upsert inserts or replaces items by question id. Retirement state of
	// an existing item is preserved.
	Upsert(ctx context.Context, items []BankQuestionData) error

	List(ctx context.Context, f BankFilter) ([]BankQuestionData, error)

	// Retire marks an item inactive. Returns ErrNotFound for unknown ids.
	Retire(ctx context.Context, id string, r question.Retirement) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns nil when the id does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	// LLMUsage aggregates events per purpose and model.
	LLMUsage(ctx context.Context) ([]LLMUsage, error)
}

// LLMUsage is the token usage of one purpose and model pair.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}
