package store

import (
	"context"
	"database/sql"
	"fmt"
)

const sequenceTable = "event_sequence"

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// nextSequence claims the next value of the ordering shared by response
// and LLM request events. Pass the event's *sql.Tx so a rolled back event
// gives its number back.
func nextSequence(ctx context.Context, q queryRower) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx,
		"UPDATE "+sequenceTable+" SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1",
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next event sequence: %w", err)
	}
	return seq, nil
}
