package mastery

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/prepfunnel/internal/logger"
	"github.com/abhisek/prepfunnel/internal/store"
)

// Recorder loads learner state and applies responses with at-most-once
// semantics per response event id.
type Recorder struct {
	snapshots store.SnapshotRepo
	responses store.ResponseRepo
	log       *logger.Logger
	now       func() time.Time
}

// NewRecorder creates a Recorder. log may be nil.
func NewRecorder(snapshots store.SnapshotRepo, responses store.ResponseRepo, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{
		snapshots: snapshots,
		responses: responses,
		log:       log,
		now:       time.Now,
	}
}

// Load returns the learner's last persisted state, or an empty state.
func (r *Recorder) Load(ctx context.Context, learnerID string) (*FunnelState, error) {
	data, err := r.snapshots.Load(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("load funnel state: %w", err)
	}
	return FromSnapshot(data), nil
}

// Record applies one response and persists the event together with the new
// snapshot. applied is false when the event id was already processed, in
// which case the stored state is returned. A failed write is logged and the
// in-memory result is still returned; the next load starts from the last
// successfully persisted snapshot.
func (r *Recorder) Record(ctx context.Context, learnerID string, resp Response) (st *FunnelState, applied bool, err error) {
	current, err := r.Load(ctx, learnerID)
	if err != nil {
		return nil, false, err
	}
	if resp.At.IsZero() {
		resp.At = r.now()
	}

	next, applied := ApplyResponse(current, resp)
	if !applied {
		r.log.Info("response already applied", "learner", learnerID, "event", resp.EventID)
		return current, false, nil
	}

	ok, err := r.responses.Record(ctx, store.ResponseEventData{
		EventID:     resp.EventID,
		LearnerID:   learnerID,
		QuestionID:  resp.QuestionID,
		Rating:      int(resp.Rating.Clamp()),
		Correct:     resp.Correct,
		ResponseMs:  resp.ResponseTimeMs,
		TutorBefore: resp.TutorBefore,
		Concepts:    resp.Concepts,
		CreatedAt:   resp.At,
	}, ToSnapshot(next))
	if err != nil {
		r.log.Error("persist response failed", "learner", learnerID, "event", resp.EventID, "error", err)
		return next, true, nil
	}
	if !ok {
		// The event log already has this id but the snapshot's bounded
		// processed list had forgotten it.
		r.log.Info("response already recorded", "learner", learnerID, "event", resp.EventID)
		return current, false, nil
	}

	r.log.Debug("response applied", "learner", learnerID, "event", resp.EventID,
		"rating", resp.Rating.String(), "correct", resp.Correct, "concepts", len(resp.Concepts))
	return next, true, nil
}

// RecordTutorTouch notes a help request before answering. Persistence
// failures are logged, not returned.
func (r *Recorder) RecordTutorTouch(ctx context.Context, learnerID string, concepts []string) (*FunnelState, error) {
	current, err := r.Load(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	next := RecordTutorTouch(current, concepts, r.now())
	if err := r.snapshots.Save(ctx, learnerID, ToSnapshot(next)); err != nil {
		r.log.Error("persist tutor touch failed", "learner", learnerID, "error", err)
	}
	return next, nil
}

// Reset forgets everything known about a learner's mastery.
func (r *Recorder) Reset(ctx context.Context, learnerID string) error {
	if err := r.responses.DeleteLearner(ctx, learnerID); err != nil {
		return err
	}
	return r.snapshots.Delete(ctx, learnerID)
}
