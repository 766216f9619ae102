package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

const responseTable = "response_events"

// responseRepo implements ResponseRepo. Events and the snapshot they produce
// are written in the same transaction so a replayed event id can never be
// applied twice.
type responseRepo struct {
	db *sql.DB
}

func (r *responseRepo) Record(ctx context.Context, ev ResponseEventData, snap *FunnelSnapshotData) (bool, error) {
	concepts, err := json.Marshal(nonNil(ev.Concepts))
	if err != nil {
		return false, fmt.Errorf("marshal concepts: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	seqNum, err := nextSequence(ctx, tx)
	if err != nil {
		return false, err
	}

	query, args := builder().Insert(responseTable).
		Columns("event_id", "sequence", "learner_id", "question_id", "rating",
			"correct", "response_ms", "tutor_before", "concepts", "created_at").
		Values(ev.EventID, seqNum, ev.LearnerID, ev.QuestionID, ev.Rating,
			ev.Correct, ev.ResponseMs, ev.TutorBefore, string(concepts), formatTime(ev.CreatedAt)).
		OnConflict(
			entsql.ConflictColumns("event_id"),
			entsql.DoNothing(),
		).
		Query()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert response event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if snap != nil {
		if err := saveSnapshot(ctx, tx, ev.LearnerID, snap); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit response: %w", err)
	}
	return true, nil
}

func (r *responseRepo) Exists(ctx context.Context, eventID string) (bool, error) {
	query, args := builder().Select("event_id").
		From(entsql.Table(responseTable)).
		Where(entsql.EQ("event_id", eventID)).
		Limit(1).
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("query response event: %w", err)
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

func (r *responseRepo) List(ctx context.Context, learnerID string, opts QueryOpts) ([]ResponseEventData, error) {
	preds := []*entsql.Predicate{entsql.EQ("learner_id", learnerID)}
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}

	sel := builder().Select("event_id", "sequence", "learner_id", "question_id", "rating",
		"correct", "response_ms", "tutor_before", "concepts", "created_at").
		From(entsql.Table(responseTable)).
		Where(entsql.And(preds...)).
		OrderBy("sequence")
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query response events: %w", err)
	}
	defer rows.Close()

	var out []ResponseEventData
	for rows.Next() {
		var (
			ev       ResponseEventData
			concepts string
			created  string
		)
		if err := rows.Scan(&ev.EventID, &ev.Sequence, &ev.LearnerID, &ev.QuestionID, &ev.Rating,
			&ev.Correct, &ev.ResponseMs, &ev.TutorBefore, &concepts, &created); err != nil {
			return nil, fmt.Errorf("scan response event: %w", err)
		}
		if err := json.Unmarshal([]byte(concepts), &ev.Concepts); err != nil {
			return nil, fmt.Errorf("unmarshal concepts: %w", err)
		}
		ev.CreatedAt = parseTime(created)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *responseRepo) DeleteLearner(ctx context.Context, learnerID string) error {
	query, args := builder().Delete(responseTable).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete response events: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
