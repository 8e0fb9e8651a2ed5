package decay

import (
	"testing"
	"time"
)

func testController(t *testing.T) *Controller {
	t.Helper()
	c, err := NewController(DefaultSchedule(campaignStart()), Snapshot{})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestScheduleTickDayOne(t *testing.T) {
	c := testController(t)

	c.ApplyScheduleTick(campaignStart().Add(time.Hour))
	level, stage := c.Current()
	if level != 0 || stage != StageStable {
		t.Errorf("day 1 tick: level %.2f stage %s, want 0 stable", level, stage)
	}
}

func TestScheduleTickRaisesToFloor(t *testing.T) {
	c := testController(t)

	// Day 16 floor is 5.
	now := campaignStart().AddDate(0, 0, 15)
	delta := c.ApplyScheduleTick(now)
	if delta != 5 {
		t.Errorf("drift delta = %.2f, want 5", delta)
	}
	level, stage := c.Current()
	if level != 5 || stage != StageSevere {
		t.Errorf("level %.2f stage %s, want 5 severe", level, stage)
	}
}

func TestScheduleTickNeverDecreases(t *testing.T) {
	c := testController(t)
	c.ApplyDelta(8, campaignStart())

	for day := 0; day < 31; day++ {
		before, _ := c.Current()
		c.ApplyScheduleTick(campaignStart().AddDate(0, 0, day))
		after, _ := c.Current()
		if after < before {
			t.Fatalf("tick on day %d lowered level: %.2f -> %.2f", day, before, after)
		}
	}
}

func TestScheduleTickOutsideWindowIsNoOp(t *testing.T) {
	c := testController(t)

	if delta := c.ApplyScheduleTick(campaignStart().Add(-24 * time.Hour)); delta != 0 {
		t.Errorf("tick before campaign applied drift %.2f", delta)
	}
	if delta := c.ApplyScheduleTick(campaignStart().AddDate(0, 0, 40)); delta != 0 {
		t.Errorf("tick after campaign applied drift %.2f", delta)
	}
	if level, _ := c.Current(); level != 0 {
		t.Errorf("level moved to %.2f outside window", level)
	}
}

func TestApplyDeltaClamps(t *testing.T) {
	c := testController(t)

	level, stage := c.ApplyDelta(9, time.Now())
	if level != 9 || stage != StageCritical {
		t.Errorf("after +9: level %.2f stage %s, want 9 critical", level, stage)
	}

	level, _ = c.ApplyDelta(5, time.Now())
	if level != 10 {
		t.Errorf("level %.2f, want clamped to 10", level)
	}

	// A single big recovery cannot wrap below zero.
	level, stage = c.ApplyDelta(-99, time.Now())
	if level != 0 || stage != StageStable {
		t.Errorf("after -99: level %.2f stage %s, want 0 stable", level, stage)
	}
}

func TestApplyEventUpdatesMarkers(t *testing.T) {
	c := testController(t)
	now := time.Now()

	c.ApplyEvent(SeveritySevere, 0.35, now)

	at, sev := c.LastEvent()
	if !at.Equal(now) || sev != SeveritySevere {
		t.Errorf("last event = %v %s, want %v severe", at, sev, now)
	}
	if level, _ := c.Current(); level != 0.35 {
		t.Errorf("level %.2f, want 0.35", level)
	}
}

func TestHistoryBoundedAndMonotone(t *testing.T) {
	c := testController(t)

	now := time.Now()
	for i := 0; i < historyRetention+50; i++ {
		c.ApplyDelta(0.01, now.Add(time.Duration(i)*time.Second))
	}

	hist := c.History()
	if len(hist) != historyRetention {
		t.Fatalf("history length %d, want %d", len(hist), historyRetention)
	}
	for i := 1; i < len(hist); i++ {
		if hist[i].At.Before(hist[i-1].At) {
			t.Fatalf("history timestamps not monotone at %d", i)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := testController(t)
	now := time.Now()
	c.ApplyEvent(SeverityModerate, 4.2, now)

	snap := c.Snapshot()

	restored, err := NewController(DefaultSchedule(campaignStart()), snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	level, stage := restored.Current()
	if level != 4.2 || stage != StageModerate {
		t.Errorf("restored level %.2f stage %s, want 4.2 moderate", level, stage)
	}
	at, sev := restored.LastEvent()
	if !at.Equal(now) || sev != SeverityModerate {
		t.Errorf("restored last event = %v %s", at, sev)
	}
	if len(restored.History()) != len(snap.History) {
		t.Errorf("restored history length %d, want %d", len(restored.History()), len(snap.History))
	}
}

func TestNewControllerRejectsBadSchedule(t *testing.T) {
	s := DefaultSchedule(campaignStart())
	s.Steps = s.Steps[:2]
	if _, err := NewController(s, Snapshot{}); err == nil {
		t.Fatal("expected schedule validation error")
	}
}
