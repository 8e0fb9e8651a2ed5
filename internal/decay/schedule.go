package decay

import (
	"errors"
	"fmt"
	"time"
)

// ErrScheduleConfig indicates a malformed campaign step table. It is fatal
// at startup: a bad schedule must never be silently defaulted.
var ErrScheduleConfig = errors.New("invalid campaign schedule")

// Schedule maps campaign days to baseline level floors. The campaign is a
// fixed calendar window (31 days by default); each step names the first day
// it applies to and the floor the level is raised to from that day on.
type Schedule struct {
	Start time.Time
	Days  int
	Steps []ScheduleStep
}

// ScheduleStep is one entry of the baseline drift table.
type ScheduleStep struct {
	FromDay int     // 0-based campaign day index this step starts on
	Floor   float64 // baseline level floor, 0-10
}

// DefaultSchedule returns the standard 31-day campaign: six steps, one per
// stage, mirroring the original October progression.
func DefaultSchedule(start time.Time) Schedule {
	return Schedule{
		Start: start,
		Days:  31,
		Steps: []ScheduleStep{
			{FromDay: 0, Floor: 0},
			{FromDay: 3, Floor: 1},
			{FromDay: 8, Floor: 3},
			{FromDay: 15, Floor: 5},
			{FromDay: 23, Floor: 7},
			{FromDay: 30, Floor: 9},
		},
	}
}

// Validate checks the step table. Steps must be exactly six (one per
// stage), start on day zero, and be monotonically non-decreasing in both
// day and floor, with floors in [0,10].
func (s Schedule) Validate() error {
	if s.Days <= 0 {
		return fmt.Errorf("%w: campaign length %d days", ErrScheduleConfig, s.Days)
	}
	if len(s.Steps) != 6 {
		return fmt.Errorf("%w: expected 6 steps, got %d", ErrScheduleConfig, len(s.Steps))
	}
	if s.Steps[0].FromDay != 0 {
		return fmt.Errorf("%w: first step must start on day 0, got %d", ErrScheduleConfig, s.Steps[0].FromDay)
	}
	prev := ScheduleStep{FromDay: -1, Floor: 0}
	for i, step := range s.Steps {
		if step.Floor < 0 || step.Floor > 10 {
			return fmt.Errorf("%w: step %d floor %.2f out of range", ErrScheduleConfig, i, step.Floor)
		}
		if step.FromDay <= prev.FromDay && i > 0 {
			return fmt.Errorf("%w: step %d day %d not after day %d", ErrScheduleConfig, i, step.FromDay, prev.FromDay)
		}
		if step.Floor < prev.Floor {
			return fmt.Errorf("%w: step %d floor %.2f below previous %.2f", ErrScheduleConfig, i, step.Floor, prev.Floor)
		}
		if step.FromDay >= s.Days {
			return fmt.Errorf("%w: step %d day %d beyond campaign end", ErrScheduleConfig, i, step.FromDay)
		}
		prev = step
	}
	return nil
}

// DayIndex returns the 0-based campaign day for now, and false when now is
// outside the campaign window.
func (s Schedule) DayIndex(now time.Time) (int, bool) {
	if now.Before(s.Start) {
		return 0, false
	}
	day := int(now.Sub(s.Start).Hours() / 24)
	if day >= s.Days {
		return 0, false
	}
	return day, true
}

// FloorFor returns the baseline floor for a campaign day.
func (s Schedule) FloorFor(day int) float64 {
	floor := 0.0
	for _, step := range s.Steps {
		if day >= step.FromDay {
			floor = step.Floor
		}
	}
	return floor
}
