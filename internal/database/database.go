package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	state_json TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	idempotency_key TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	event_id        TEXT NOT NULL,
	title           TEXT NOT NULL,
	start_time      TIMESTAMP NOT NULL,
	end_time        TIMESTAMP NOT NULL,
	source          TEXT NOT NULL,
	attendees_json  TEXT NOT NULL,
	created_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookings_conversation ON bookings(conversation_id);
`

func New(dbPath string) (*DB, error) {
	// Enable WAL mode for better concurrency, busy timeout to wait instead of failing,
	// and foreign keys for referential integrity
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{db}, nil
}

func (d *DB) Close() error {
	return d.DB.Close()
}
