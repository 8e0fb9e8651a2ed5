package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/voidhouse/decay/internal/decay"
)

// historyRetention mirrors the controller's in-memory bound so the table
// never grows past what trend analysis can use.
const historyRetention = 200

// SaveSnapshot persists the full controller state: the single snapshot row
// plus the rewritten level history, in one transaction.
func (db *DB) SaveSnapshot(snap decay.Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}

	var lastEventAt any
	if !snap.LastEventAt.IsZero() {
		lastEventAt = snap.LastEventAt.UnixMilli()
	}

	if _, err := tx.Exec(`
		INSERT INTO decay_snapshot (id, level, stage, last_event_at, last_event_severity, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			level = excluded.level,
			stage = excluded.stage,
			last_event_at = excluded.last_event_at,
			last_event_severity = excluded.last_event_severity,
			updated_at = excluded.updated_at
	`, snap.Level, snap.Stage.String(), lastEventAt, snap.LastEventSeverity.String(), time.Now().UnixMilli()); err != nil {
		tx.Rollback()
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	// History is rewritten wholesale: it is bounded to 200 rows, and the
	// in-memory copy is always the source of truth.
	if _, err := tx.Exec("DELETE FROM level_history"); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear history: %w", err)
	}
	samples := snap.History
	if len(samples) > historyRetention {
		samples = samples[len(samples)-historyRetention:]
	}
	for _, s := range samples {
		if _, err := tx.Exec(
			"INSERT INTO level_history (at, level) VALUES (?, ?)",
			s.At.UnixMilli(), s.Level,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert history sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores the persisted controller state. The second return
// is false when no snapshot has ever been written; callers start from a
// zero state (level 0, stable) in that case.
func (db *DB) LoadSnapshot() (decay.Snapshot, bool, error) {
	var snap decay.Snapshot
	var stage, severity string
	var lastEventAt sql.NullInt64

	err := db.QueryRow(`
		SELECT level, stage, last_event_at, last_event_severity
		FROM decay_snapshot WHERE id = 1
	`).Scan(&snap.Level, &stage, &lastEventAt, &severity)
	if err == sql.ErrNoRows {
		return decay.Snapshot{}, false, nil
	}
	if err != nil {
		return decay.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	snap.Stage = decay.StageFor(snap.Level)
	snap.LastEventSeverity = decay.ParseSeverity(severity)
	if lastEventAt.Valid {
		snap.LastEventAt = time.UnixMilli(lastEventAt.Int64)
	}

	rows, err := db.Query("SELECT at, level FROM level_history ORDER BY at ASC")
	if err != nil {
		return decay.Snapshot{}, false, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var at int64
		var level float64
		if err := rows.Scan(&at, &level); err != nil {
			return decay.Snapshot{}, false, fmt.Errorf("scan history sample: %w", err)
		}
		snap.History = append(snap.History, decay.Sample{At: time.UnixMilli(at), Level: level})
	}
	if err := rows.Err(); err != nil {
		return decay.Snapshot{}, false, fmt.Errorf("iterate history: %w", err)
	}

	return snap, true, nil
}

// Save implements decay.Snapshotter.
func (db *DB) Save(snap decay.Snapshot) error {
	return db.SaveSnapshot(snap)
}
