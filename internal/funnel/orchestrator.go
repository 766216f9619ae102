package funnel

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/prepfunnel/internal/answerkey"
	"github.com/abhisek/prepfunnel/internal/fingerprint"
	"github.com/abhisek/prepfunnel/internal/logger"
	"github.com/abhisek/prepfunnel/internal/planner"
	"github.com/abhisek/prepfunnel/internal/question"
)

// ErrNoSources is returned when an orchestrator has no provider at all.
var ErrNoSources = errors.New("funnel: no question sources configured")

// Orchestrator builds question batches. It holds no learner state; every
// call works on the snapshot passed in the Request.
type Orchestrator struct {
	curated   CuratedPool
	cached    CachedPool
	generator Generator
	cfg       Config
	log       *logger.Logger

	// Rand drives option shuffling. Nil uses the global source.
	Rand *rand.Rand
	// NewID assigns ids to generated questions.
	NewID func() string
}

// New creates an Orchestrator. Any collaborator may be nil, in which case
// that stage of the waterfall is skipped.
func New(curated CuratedPool, cached CachedPool, generator Generator, cfg Config, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		curated:   curated,
		cached:    cached,
		generator: generator,
		cfg:       cfg.withDefaults(),
		log:       log,
		NewID:     uuid.NewString,
	}
}

// slot is one position of the batch and the target it should cover.
type slot struct {
	index  int
	target planner.Target
}

// pick is a question accepted for a slot.
type pick struct {
	slot slot
	q    question.Question
	fp   string
}

// batchRun carries the mutable state of one BuildBatch call.
type batchRun struct {
	o       *Orchestrator
	req     Request
	gate    *answerkey.Gate
	working fingerprint.Set
	picks   []pick
	meta    BatchMeta
}

// BuildBatch assembles up to Preferences.QuestionCount validated questions.
// Partial results are not errors: a shortfall is reported in Result.Warning
// and Meta.Shortfall.
func (o *Orchestrator) BuildBatch(ctx context.Context, req Request) (*Result, error) {
	if o.curated == nil && o.cached == nil && o.generator == nil {
		return nil, ErrNoSources
	}

	total := min(max(req.Preferences.QuestionCount, 1), o.cfg.MaxQuestions)

	run := &batchRun{
		o:       o,
		req:     req,
		gate:    answerkey.NewGate(answerkey.SessionOptions{Shuffle: req.Preferences.Shuffle, Rand: o.Rand}),
		working: req.SeenFingerprints.Union(fingerprint.BuildSet(req.ExistingQuestions)),
		meta: BatchMeta{
			TotalRequested: total,
			Mixed:          req.Scope.Mixed(),
			SourceCounts: map[question.SourceType]int{
				question.SourceGold:      0,
				question.SourcePrefab:    0,
				question.SourceGenerated: 0,
			},
		},
	}

	universe := planner.ConceptUniverse(req.GuideConcepts, req.Mastery, req.ExtraConcepts)
	sel := planner.SelectTargets(universe, req.Mastery, total, o.cfg.ExploreRatio)
	run.meta.FocusTargets = targetKeys(sel.FocusTargets)
	run.meta.ExploreTargets = targetKeys(sel.ExploreTargets)
	run.meta.TargetsPerQuestion = targetKeys(sel.TargetsPerQuestion)

	// Pool loads never fail the batch, so the group only joins them.
	var gold, prefab []*poolItem
	var g errgroup.Group
	g.Go(func() error { gold = run.loadCurated(ctx); return nil })
	g.Go(func() error { prefab = run.loadCached(ctx); return nil })
	_ = g.Wait()

	var missing []slot
	for i, t := range sel.TargetsPerQuestion {
		s := slot{index: i, target: t}
		if run.takeFromPool(gold, s) || run.takeFromPool(prefab, s) {
			continue
		}
		missing = append(missing, s)
	}

	run.backfill(ctx, missing)

	return run.result(), nil
}

// takeFromPool accepts the best-scoring unseen item for s. Items that fail
// validation are dropped and the next best is tried.
func (r *batchRun) takeFromPool(pool []*poolItem, s slot) bool {
	for {
		best, bestScore := -1, 0
		for i, it := range pool {
			if it.used || r.working.Has(it.fp) {
				continue
			}
			if sc := it.score(s.target); sc > bestScore {
				best, bestScore = i, sc
			}
		}
		if best < 0 {
			return false
		}

		it := pool[best]
		it.used = true
		q := it.cand.Question
		q.Source = it.cand.Source
		q.Provenance = it.cand.Provenance
		if r.accept(s, q, it.fp) {
			return true
		}
	}
}

// accept runs q through the gate and, on success, records it for s.
func (r *batchRun) accept(s slot, q question.Question, fp string) bool {
	prepared, verr := r.gate.Admit(q)
	if verr != nil {
		r.meta.DroppedInvalid++
		r.o.log.Debug("candidate dropped", "source", q.Source, "id", q.ID, "validator", verr.Validator, "reason", verr.Message)
		return false
	}
	r.working.Add(fp)
	r.picks = append(r.picks, pick{slot: s, q: *prepared, fp: fp})
	r.meta.SourceCounts[q.Source]++
	return true
}

func (r *batchRun) result() *Result {
	sort.SliceStable(r.picks, func(i, j int) bool {
		return r.picks[i].slot.index < r.picks[j].slot.index
	})
	total := r.meta.TotalRequested
	if len(r.picks) > total {
		r.picks = r.picks[:total]
	}

	res := &Result{
		Questions:    make([]question.Question, 0, len(r.picks)),
		Fingerprints: make([]string, 0, len(r.picks)),
	}
	r.meta.QuestionTargets = make([]string, 0, len(r.picks))
	for _, p := range r.picks {
		res.Questions = append(res.Questions, p.q)
		res.Fingerprints = append(res.Fingerprints, p.fp)
		r.meta.QuestionTargets = append(r.meta.QuestionTargets, p.slot.target.Key)
	}

	r.meta.Delivered = len(res.Questions)
	r.meta.Shortfall = max(0, total-r.meta.Delivered)
	if r.meta.Shortfall > 0 {
		res.Warning = fmt.Sprintf("only %d of %d requested questions could be sourced", r.meta.Delivered, total)
		r.o.log.Warn("batch shortfall", "requested", total, "delivered", r.meta.Delivered,
			"backfill_attempts", r.meta.BackfillAttempts, "dropped_generated", r.meta.DroppedGenerated,
			"dropped_invalid", r.meta.DroppedInvalid)
	}
	res.Meta = r.meta
	return res
}

func targetKeys(ts []planner.Target) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Key
	}
	return out
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
