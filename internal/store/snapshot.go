package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const snapshotTable = "funnel_snapshots"

// snapshotRepo implements SnapshotRepo with one JSON row per learner.
type snapshotRepo struct {
	db *sql.DB
}

func (r *snapshotRepo) Load(ctx context.Context, learnerID string) (*FunnelSnapshotData, error) {
	return loadSnapshot(ctx, r.db, learnerID)
}

func (r *snapshotRepo) Save(ctx context.Context, learnerID string, data *FunnelSnapshotData) error {
	return saveSnapshot(ctx, r.db, learnerID, data)
}

func (r *snapshotRepo) Delete(ctx context.Context, learnerID string) error {
	query, args := builder().Delete(snapshotTable).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, q queryRower, learnerID string) (*FunnelSnapshotData, error) {
	query, args := builder().Select("data").
		From(entsql.Table(snapshotTable)).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()

	var raw string
	if err := q.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	var data FunnelSnapshotData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if data.Concepts == nil {
		data.Concepts = make(map[string]*ConceptData)
	}
	return &data, nil
}

func saveSnapshot(ctx context.Context, x execer, learnerID string, data *FunnelSnapshotData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query, args := builder().Insert(snapshotTable).
		Columns("learner_id", "data", "updated_at").
		Values(learnerID, string(b), formatTime(time.Now())).
		OnConflict(
			entsql.ConflictColumns("learner_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := x.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
