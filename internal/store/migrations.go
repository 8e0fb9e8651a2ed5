package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "decay_snapshot: single-row controller state",
		SQL: `
CREATE TABLE decay_snapshot (
    id                  INTEGER PRIMARY KEY CHECK (id = 1),
    level               REAL NOT NULL,
    stage               TEXT NOT NULL,
    last_event_at       INTEGER,
    last_event_severity TEXT,
    updated_at          INTEGER NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "level_history: rolling level samples for trend analysis",
		SQL: `
CREATE TABLE level_history (
    id        INTEGER PRIMARY KEY,
    at        INTEGER NOT NULL,
    level     REAL NOT NULL
);

CREATE INDEX idx_history_at ON level_history(at);
`,
	},
	{
		Version:     3,
		Description: "decay_events: committed event log",
		SQL: `
CREATE TABLE decay_events (
    id        INTEGER PRIMARY KEY,
    event_id  TEXT NOT NULL,
    tier      TEXT NOT NULL,
    payload   TEXT NOT NULL,
    at        INTEGER NOT NULL
);

CREATE INDEX idx_events_at ON decay_events(at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
