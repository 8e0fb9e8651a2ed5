package store

import (
	"testing"
	"time"

	"github.com/voidhouse/decay/internal/decay"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadSnapshotEmpty(t *testing.T) {
	db := testDB(t)

	snap, found, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("found a snapshot in a fresh database")
	}
	if snap.Level != 0 || len(snap.History) != 0 {
		t.Errorf("empty load returned non-zero state: %+v", snap)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := testDB(t)

	eventAt := time.Date(2025, 10, 20, 21, 30, 0, 0, time.UTC)
	in := decay.Snapshot{
		Level:             6.4,
		Stage:             decay.StageFor(6.4),
		LastEventAt:       eventAt,
		LastEventSeverity: decay.SeveritySevere,
		History: []decay.Sample{
			{At: eventAt.Add(-2 * time.Minute), Level: 6.0},
			{At: eventAt.Add(-time.Minute), Level: 6.2},
			{At: eventAt, Level: 6.4},
		},
	}
	if err := db.SaveSnapshot(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, found, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("snapshot not found after save")
	}
	if out.Level != in.Level {
		t.Errorf("level = %.2f, want %.2f", out.Level, in.Level)
	}
	if out.Stage != decay.StageSevere {
		t.Errorf("stage = %s, want severe", out.Stage)
	}
	if !out.LastEventAt.Equal(eventAt) {
		t.Errorf("last event at = %v, want %v", out.LastEventAt, eventAt)
	}
	if out.LastEventSeverity != decay.SeveritySevere {
		t.Errorf("last event severity = %s, want severe", out.LastEventSeverity)
	}
	if len(out.History) != len(in.History) {
		t.Fatalf("history length = %d, want %d", len(out.History), len(in.History))
	}
	for i := range in.History {
		if !out.History[i].At.Equal(in.History[i].At) || out.History[i].Level != in.History[i].Level {
			t.Errorf("history[%d] = %+v, want %+v", i, out.History[i], in.History[i])
		}
	}
}

func TestSaveSnapshotOverwrites(t *testing.T) {
	db := testDB(t)

	if err := db.SaveSnapshot(decay.Snapshot{Level: 2}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := db.SaveSnapshot(decay.Snapshot{Level: 7.5}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	out, found, err := db.LoadSnapshot()
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if out.Level != 7.5 {
		t.Errorf("level = %.2f, want latest 7.5", out.Level)
	}

	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM decay_snapshot").Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Errorf("snapshot rows = %d, want single row", rows)
	}
}

func TestSaveSnapshotCapsHistory(t *testing.T) {
	db := testDB(t)

	t0 := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	snap := decay.Snapshot{Level: 3}
	for i := 0; i < historyRetention+50; i++ {
		snap.History = append(snap.History, decay.Sample{
			At:    t0.Add(time.Duration(i) * time.Minute),
			Level: 3,
		})
	}
	if err := db.SaveSnapshot(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, _, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out.History) != historyRetention {
		t.Errorf("history rows = %d, want cap %d", len(out.History), historyRetention)
	}
	// The newest samples survive the cap.
	last := out.History[len(out.History)-1]
	want := snap.History[len(snap.History)-1]
	if !last.At.Equal(want.At) {
		t.Errorf("newest sample at %v, want %v", last.At, want.At)
	}
}

func TestRecordAndListEvents(t *testing.T) {
	db := testDB(t)

	t0 := time.Date(2025, 10, 15, 20, 0, 0, 0, time.UTC)
	for i, id := range []string{"whispers", "fragment", "glitch_burst"} {
		if err := db.RecordEvent(id, decay.SeverityModerate, "payload "+id, t0.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	events, err := db.RecentEvents(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].EventID != "glitch_burst" || events[1].EventID != "fragment" {
		t.Errorf("ordering wrong: %s, %s", events[0].EventID, events[1].EventID)
	}
	if events[0].Tier != "moderate" {
		t.Errorf("tier = %q, want moderate", events[0].Tier)
	}
	if !events[0].At.Equal(t0.Add(2 * time.Minute)) {
		t.Errorf("at = %v, want %v", events[0].At, t0.Add(2*time.Minute))
	}
}

func TestRecentEventsDefaultLimit(t *testing.T) {
	db := testDB(t)

	events, err := db.RecentEvents(0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("fresh db returned %d events", len(events))
	}
}
