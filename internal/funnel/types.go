// Package funnel assembles a batch of validated questions for a learner by
// sourcing each target concept from curated, cached and generated providers
// in that order.
package funnel

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/prepfunnel/internal/fingerprint"
	"github.com/abhisek/prepfunnel/internal/mastery"
	"github.com/abhisek/prepfunnel/internal/planner"
	"github.com/abhisek/prepfunnel/internal/question"
)

// Config tunes the orchestrator.
type Config struct {
	// PoolTimeout bounds each curated or cached pool load.
	PoolTimeout time.Duration
	// GenerateTimeout bounds each generation call.
	GenerateTimeout time.Duration
	// MaxBackfillAttempts bounds generation retries for missing targets.
	MaxBackfillAttempts int
	// ExploreRatio is the share of a batch given to least-tested concepts.
	ExploreRatio float64
	// MaxQuestions is the upper clamp on requested batch size.
	MaxQuestions int
}

// DefaultConfig returns the standard funnel configuration.
func DefaultConfig() Config {
	return Config{
		PoolTimeout:         10 * time.Second,
		GenerateTimeout:     90 * time.Second,
		MaxBackfillAttempts: 3,
		ExploreRatio:        planner.DefaultExploreRatio,
		MaxQuestions:        20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxBackfillAttempts <= 0 {
		c.MaxBackfillAttempts = d.MaxBackfillAttempts
	}
	if c.MaxQuestions <= 0 {
		c.MaxQuestions = d.MaxQuestions
	}
	if c.ExploreRatio <= 0 || c.ExploreRatio > 1 {
		c.ExploreRatio = d.ExploreRatio
	}
	return c
}

// Preferences are the learner's batch preferences.
type Preferences struct {
	// QuestionCount is clamped to [1, Config.MaxQuestions].
	QuestionCount int    `json:"question_count" yaml:"question_count"`
	Difficulty    string `json:"difficulty,omitempty" yaml:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard mixed"`
	// Shuffle randomizes option order of every delivered question.
	Shuffle bool `json:"shuffle" yaml:"shuffle"`
}

var validate = validator.New()

// Validate checks preferences supplied from outside the process.
func (p Preferences) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid preferences: %w", err)
	}
	return nil
}

// GenerationRequest is what the generation provider receives: the learner's
// preferences plus an instruction listing the targets in order. Avoid holds
// stems already in the batch or the learner's history.
type GenerationRequest struct {
	Preferences
	Count        int
	Targets      []string
	Instructions string
	Avoid        []string
}

// ModuleRef names one module of study and the guide its cached set lives
// under.
type ModuleRef struct {
	ModuleID string `json:"module_id" yaml:"module_id" validate:"required_without=GuideID"`
	GuideID  string `json:"guide_id" yaml:"guide_id"`
}

// Scope is the set of modules a batch draws from.
type Scope struct {
	Modules []ModuleRef
}

// Mixed reports whether the batch spans more than one module.
func (s Scope) Mixed() bool {
	return len(s.Modules) > 1
}

// Request is the input to BuildBatch.
type Request struct {
	// Content is the study material handed to the generation provider.
	Content     string
	Preferences Preferences
	Scope       Scope

	// GuideConcepts are the concept titles declared by the active guide.
	GuideConcepts []string
	// ExtraConcepts are added to the concept universe.
	ExtraConcepts []string

	// Mastery is read, never modified.
	Mastery *mastery.FunnelState

	SeenFingerprints  fingerprint.Set
	ExistingQuestions []question.Question
}

// Result is the output of BuildBatch.
type Result struct {
	Questions []question.Question
	// Fingerprints of the delivered questions, in the same order, for the
	// caller to add to the learner's seen set.
	Fingerprints []string
	Meta         BatchMeta
	// Warning is non-empty when fewer questions than requested were found.
	Warning string
}

// BatchMeta describes one BuildBatch run.
type BatchMeta struct {
	TotalRequested int  `json:"total_requested"`
	Delivered      int  `json:"delivered"`
	Mixed          bool `json:"mixed"`

	FocusTargets       []string `json:"focus_targets"`
	ExploreTargets     []string `json:"explore_targets"`
	TargetsPerQuestion []string `json:"targets_per_question"`
	// QuestionTargets is the target key each delivered question covers.
	QuestionTargets []string `json:"question_targets"`

	SourceCounts     map[question.SourceType]int `json:"source_counts"`
	BackfillAttempts int                         `json:"backfill_attempts"`
	// DroppedGenerated counts generated items rejected as duplicates.
	DroppedGenerated int `json:"dropped_generated"`
	// DroppedInvalid counts items from any source rejected by validation.
	DroppedInvalid int `json:"dropped_invalid"`
	Shortfall      int `json:"shortfall"`
}
