package store

import (
	"context"
)

// Schema statements are idempotent so Migrate can run on every startup.
//
// Timestamps are integer Unix milliseconds. The partial unique index backs the
// invariant that a user holds at most one non-expired entry per event; the
// engine checks it first, the index catches races.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location    TEXT NOT NULL DEFAULT '',
		event_date  INTEGER NOT NULL,
		price       TEXT NOT NULL,
		capacity    INTEGER NOT NULL CHECK (capacity >= 1),
		cancelled   INTEGER NOT NULL DEFAULT 0,
		user_id     TEXT NOT NULL,
		created_at  INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS waiting_list (
		id               TEXT PRIMARY KEY,
		event_id         TEXT NOT NULL,
		user_id          TEXT NOT NULL,
		status           TEXT NOT NULL,
		offer_expires_at INTEGER,
		created_at       INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id                TEXT PRIMARY KEY,
		event_id          TEXT NOT NULL,
		user_id           TEXT NOT NULL,
		status            TEXT NOT NULL,
		purchased_at      INTEGER NOT NULL,
		payment_reference TEXT NOT NULL,
		amount            TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_waiting_list_event_status
		ON waiting_list (event_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_waiting_list_user_event
		ON waiting_list (user_id, event_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_waiting_list_active_user
		ON waiting_list (event_id, user_id) WHERE status != 'expired'`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_event
		ON tickets (event_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_user_event
		ON tickets (user_id, event_id)`,
}

// Migrate applies the schema.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.b.NewQuery(stmt).WithContext(ctx).Execute(); err != nil {
			return err
		}
	}
	return nil
}
