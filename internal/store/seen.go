package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const seenTable = "seen_fingerprints"

// seenRepo implements SeenRepo.
type seenRepo struct {
	db *sql.DB
}

func (r *seenRepo) Load(ctx context.Context, learnerID string) ([]string, error) {
	query, args := builder().Select("fingerprint").
		From(entsql.Table(seenTable)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("created_at", "fingerprint").
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seen: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("scan seen: %w", err)
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

func (r *seenRepo) Add(ctx context.Context, learnerID string, fingerprints []string) error {
	if len(fingerprints) == 0 {
		return nil
	}

	now := formatTime(time.Now())
	ins := builder().Insert(seenTable).Columns("learner_id", "fingerprint", "created_at")
	for _, fp := range fingerprints {
		ins = ins.Values(learnerID, fp, now)
	}
	query, args := ins.OnConflict(
		entsql.ConflictColumns("learner_id", "fingerprint"),
		entsql.DoNothing(),
	).Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert seen: %w", err)
	}
	return nil
}

func (r *seenRepo) Clear(ctx context.Context, learnerID string) error {
	query, args := builder().Delete(seenTable).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear seen: %w", err)
	}
	return nil
}
