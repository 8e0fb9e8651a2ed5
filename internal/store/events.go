package store

import (
	"fmt"
	"time"

	"github.com/voidhouse/decay/internal/decay"
)

// Event is one committed manifestation as recorded in the event log.
type Event struct {
	ID      int64
	EventID string
	Tier    string
	Payload string
	At      time.Time
}

// RecordEvent implements decay.EventSink.
func (db *DB) RecordEvent(id string, tier decay.Severity, payload string, at time.Time) error {
	if _, err := db.Exec(
		"INSERT INTO decay_events (event_id, tier, payload, at) VALUES (?, ?, ?, ?)",
		id, tier.String(), payload, at.UnixMilli(),
	); err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// RecentEvents returns the most recent committed events, newest first.
func (db *DB) RecentEvents(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, event_id, tier, payload, at
		FROM decay_events ORDER BY at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var at int64
		if err := rows.Scan(&e.ID, &e.EventID, &e.Tier, &e.Payload, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.At = time.UnixMilli(at)
		events = append(events, e)
	}
	return events, rows.Err()
}
