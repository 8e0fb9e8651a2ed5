package decay

import (
	"sync"
	"time"
)

// historyRetention bounds the level history kept for trend analysis.
const historyRetention = 200

// Sample is one (timestamp, level) point of the level history.
type Sample struct {
	At    time.Time
	Level float64
}

// Snapshot is the persistable view of the controller state. A zero
// Snapshot is a valid starting state (level 0, stable).
type Snapshot struct {
	Level             float64
	Stage             Stage
	LastEventAt       time.Time
	LastEventSeverity Severity
	History           []Sample
}

// Controller owns the canonical decay state. All mutations go through its
// mutex; stage is always recomputed from level, never stored independently.
type Controller struct {
	mu sync.Mutex

	schedule Schedule

	level             float64
	lastEventAt       time.Time
	lastEventSeverity Severity
	history           []Sample
}

// NewController creates a controller with a validated schedule and an
// optional restored snapshot.
func NewController(schedule Schedule, snap Snapshot) (*Controller, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		schedule:          schedule,
		level:             clampLevel(snap.Level),
		lastEventAt:       snap.LastEventAt,
		lastEventSeverity: snap.LastEventSeverity,
	}
	if len(snap.History) > 0 {
		c.history = append(c.history, snap.History...)
		if len(c.history) > historyRetention {
			c.history = c.history[len(c.history)-historyRetention:]
		}
	}
	return c, nil
}

// ApplyScheduleTick raises the level to the baseline floor for the current
// campaign day. Baseline drift only ever pushes the level up; recovery from
// drift comes exclusively from challenges. No-op outside the campaign
// window. Returns the applied delta (zero when nothing changed).
func (c *Controller) ApplyScheduleTick(now time.Time) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	day, ok := c.schedule.DayIndex(now)
	if !ok {
		return 0
	}
	floor := c.schedule.FloorFor(day)
	if c.level >= floor {
		return 0
	}
	delta := floor - c.level
	c.level = floor
	c.appendSample(now)
	return delta
}

// ApplyDelta adds delta to the level, clamping to [0,10]. Clamping bounds
// how much a single recovery success can undo scheduled progression.
func (c *Controller) ApplyDelta(delta float64, now time.Time) (float64, Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyDeltaLocked(delta, now)
}

// ApplyEvent records a committed event: applies its severity-implied delta
// and updates the last-event markers in the same critical section.
func (c *Controller) ApplyEvent(severity Severity, delta float64, now time.Time) (float64, Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastEventAt = now
	c.lastEventSeverity = severity
	return c.applyDeltaLocked(delta, now)
}

func (c *Controller) applyDeltaLocked(delta float64, now time.Time) (float64, Stage) {
	c.level = clampLevel(c.level + delta)
	c.appendSample(now)
	return c.level, StageFor(c.level)
}

// Current returns a read-only (level, stage) snapshot.
func (c *Controller) Current() (float64, Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level, StageFor(c.level)
}

// LastEvent returns when the last event fired and at what severity.
func (c *Controller) LastEvent() (time.Time, Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastEventAt, c.lastEventSeverity
}

// History returns a copy of the retained level samples, oldest first.
func (c *Controller) History() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Sample, len(c.history))
	copy(out, c.history)
	return out
}

// Snapshot captures the full persistable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	history := make([]Sample, len(c.history))
	copy(history, c.history)
	return Snapshot{
		Level:             c.level,
		Stage:             StageFor(c.level),
		LastEventAt:       c.lastEventAt,
		LastEventSeverity: c.lastEventSeverity,
		History:           history,
	}
}

// appendSample records the current level, enforcing retention and the
// monotonic-timestamp invariant. Callers hold the mutex.
func (c *Controller) appendSample(now time.Time) {
	if n := len(c.history); n > 0 && now.Before(c.history[n-1].At) {
		now = c.history[n-1].At
	}
	c.history = append(c.history, Sample{At: now, Level: c.level})
	if len(c.history) > historyRetention {
		c.history = c.history[len(c.history)-historyRetention:]
	}
}
