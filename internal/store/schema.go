package store

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS event_sequence (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    next_val INTEGER NOT NULL
);
INSERT OR IGNORE INTO event_sequence (id, next_val) VALUES (1, 1);

CREATE TABLE IF NOT EXISTS funnel_snapshots (
    learner_id TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS response_events (
    event_id TEXT PRIMARY KEY,
    sequence INTEGER NOT NULL,
    learner_id TEXT NOT NULL,
    question_id TEXT NOT NULL DEFAULT '',
    rating INTEGER NOT NULL,
    correct INTEGER NOT NULL,
    response_ms INTEGER NOT NULL DEFAULT 0,
    tutor_before INTEGER NOT NULL DEFAULT 0,
    concepts TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS response_events_learner ON response_events (learner_id, sequence);

CREATE TABLE IF NOT EXISTS seen_fingerprints (
    learner_id TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (learner_id, fingerprint)
);

CREATE TABLE IF NOT EXISTS bank_questions (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    module_id TEXT NOT NULL DEFAULT '',
    guide_id TEXT NOT NULL DEFAULT '',
    data TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 1,
    retire_reason TEXT NOT NULL DEFAULT '',
    retire_note TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS bank_questions_module ON bank_questions (kind, module_id);
CREATE INDEX IF NOT EXISTS bank_questions_guide ON bank_questions (kind, guide_id);

CREATE TABLE IF NOT EXISTS llm_request_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    sequence INTEGER NOT NULL,
    timestamp TEXT NOT NULL,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    purpose TEXT NOT NULL,
    input_tokens INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    latency_ms INTEGER NOT NULL DEFAULT 0,
    success INTEGER NOT NULL,
    error_message TEXT NOT NULL DEFAULT '',
    request_body TEXT NOT NULL DEFAULT '',
    response_body TEXT NOT NULL DEFAULT ''
);
`

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
