package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/prepfunnel/internal/question"
)

const bankTable = "bank_questions"

// bankRepo implements BankRepo. The question body is stored as JSON; the
// provenance columns are denormalized for lookups.
type bankRepo struct {
	db *sql.DB
}

func (r *bankRepo) Upsert(ctx context.Context, items []BankQuestionData) error {
	if len(items) == 0 {
		return nil
	}

	ins := builder().Insert(bankTable).
		Columns("id", "kind", "module_id", "guide_id", "data", "active",
			"retire_reason", "retire_note", "created_at")
	for _, it := range items {
		if it.Question.ID == "" {
			return fmt.Errorf("bank item without id: %q", it.Question.Stem)
		}
		b, err := json.Marshal(it.Question)
		if err != nil {
			return fmt.Errorf("marshal bank question %s: %w", it.Question.ID, err)
		}
		created := it.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		ins = ins.Values(it.Question.ID, string(it.Kind), it.Question.Provenance.ModuleID,
			it.Question.Provenance.GuideID, string(b), it.Active, it.RetireReason,
			it.RetireNote, formatTime(created))
	}

	query, args := ins.OnConflict(
		entsql.ConflictColumns("id"),
		entsql.ResolveWith(func(u *entsql.UpdateSet) {
			u.SetExcluded("kind")
			u.SetExcluded("module_id")
			u.SetExcluded("guide_id")
			u.SetExcluded("data")
		}),
	).Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert bank questions: %w", err)
	}
	return nil
}

func (r *bankRepo) List(ctx context.Context, f BankFilter) ([]BankQuestionData, error) {
	var preds []*entsql.Predicate
	if f.Kind != "" {
		preds = append(preds, entsql.EQ("kind", string(f.Kind)))
	}
	if f.ModuleID != "" {
		preds = append(preds, entsql.EQ("module_id", f.ModuleID))
	}
	if f.GuideID != "" {
		preds = append(preds, entsql.EQ("guide_id", f.GuideID))
	}
	if f.ActiveOnly {
		preds = append(preds, entsql.EQ("active", true))
	}

	sel := builder().Select("kind", "data", "active", "retire_reason", "retire_note", "created_at").
		From(entsql.Table(bankTable)).
		OrderBy("created_at", "id")
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bank: %w", err)
	}
	defer rows.Close()

	var out []BankQuestionData
	for rows.Next() {
		var (
			item    BankQuestionData
			kind    string
			data    string
			created string
		)
		if err := rows.Scan(&kind, &data, &item.Active, &item.RetireReason, &item.RetireNote, &created); err != nil {
			return nil, fmt.Errorf("scan bank question: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &item.Question); err != nil {
			return nil, fmt.Errorf("unmarshal bank question: %w", err)
		}
		item.Kind = BankKind(kind)
		item.CreatedAt = parseTime(created)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *bankRepo) Retire(ctx context.Context, id string, ret question.Retirement) error {
	query, args := builder().Update(bankTable).
		Set("active", false).
		Set("retire_reason", string(ret.Reason)).
		Set("retire_note", ret.Note).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("retire bank question: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bank question %s: %w", id, ErrNotFound)
	}
	return nil
}
