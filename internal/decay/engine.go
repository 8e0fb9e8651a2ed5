package decay

import (
	"log"
	"time"
)

// Announcer is the outbound boundary to whatever surface shows the persona
// to its audience. The engine calls it strictly after a state transition
// has been committed, never while holding the state lock.
type Announcer interface {
	Announce(payload string, severity Severity)
}

// Snapshotter persists the controller state. Failures are reported but
// never stop the tick loop; a failed save just means drift continues in
// memory only.
type Snapshotter interface {
	Save(Snapshot) error
}

// EventSink records committed events for later inspection.
type EventSink interface {
	RecordEvent(id string, tier Severity, payload string, at time.Time) error
}

// Status is the read-only diagnostic view of the engine.
type Status struct {
	Level  float64
	Stage  Stage
	Trend  Trend
	Report string
}

// TickResult describes what one schedule tick did.
type TickResult struct {
	Day          int
	InWindow     bool
	DriftApplied float64
	Event        *EventDefinition
	Level        float64
	Stage        Stage
}

// Engine wires the controller, catalog selector, challenge resolver, and
// trend analyzer behind the inbound operations the daemon exposes.
type Engine struct {
	ctrl      *Controller
	selector  *Selector
	resolver  *Resolver
	corruptor *Corruptor
	schedule  Schedule

	announcer Announcer
	snapshots Snapshotter
	events    EventSink

	stopCh chan struct{}
}

// New assembles an engine. announcer, snapshots, and events may be nil;
// the corresponding side effects are skipped.
func New(ctrl *Controller, selector *Selector, resolver *Resolver, corruptor *Corruptor, schedule Schedule) *Engine {
	return &Engine{
		ctrl:      ctrl,
		selector:  selector,
		resolver:  resolver,
		corruptor: corruptor,
		schedule:  schedule,
		stopCh:    make(chan struct{}),
	}
}

// SetAnnouncer configures the outbound announcement boundary.
func (e *Engine) SetAnnouncer(a Announcer) { e.announcer = a }

// SetSnapshotter configures snapshot persistence.
func (e *Engine) SetSnapshotter(s Snapshotter) { e.snapshots = s }

// SetEventSink configures the committed-event recorder.
func (e *Engine) SetEventSink(s EventSink) { e.events = s }

// Tick applies scheduled baseline drift, expires stale challenges, and
// rolls for a spontaneous event. All state transitions commit before any
// announcement or persistence happens.
func (e *Engine) Tick(now time.Time, ctx Context) TickResult {
	res := TickResult{}
	res.Day, res.InWindow = e.schedule.DayIndex(now)

	res.DriftApplied = e.ctrl.ApplyScheduleTick(now)

	if n := e.resolver.ExpireStale(now); n > 0 {
		log.Printf("tick: expired %d stale challenge(s)", n)
	}

	_, stage := e.ctrl.Current()
	lastAt, _ := e.ctrl.LastEvent()

	var payload string
	if def := e.selector.MaybeSelect(now, stage, ctx, lastAt); def != nil {
		level, newStage := e.ctrl.ApplyEvent(def.Tier, EventDelta(def.Tier), now)
		res.Event = def
		res.Level, res.Stage = level, newStage
		payload = e.corruptor.Transform(def.PayloadTemplate, level)
	} else {
		res.Level, res.Stage = e.ctrl.Current()
	}

	// Side effects strictly after the state transition committed.
	if res.Event != nil {
		if e.events != nil {
			if err := e.events.RecordEvent(res.Event.ID, res.Event.Tier, payload, now); err != nil {
				log.Printf("tick: record event: %v", err)
			}
		}
		if e.announcer != nil {
			e.announcer.Announce(payload, res.Event.Tier)
		}
	}
	e.persist()
	return res
}

// Status reports the current level, stage, trend, and a diagnostic report
// rendered at the current corruption level. Read-only.
func (e *Engine) Status(now time.Time) Status {
	level, stage := e.ctrl.Current()
	return Status{
		Level:  level,
		Stage:  stage,
		Trend:  AnalyzeTrend(e.ctrl.History()),
		Report: e.renderReport(level, stage, now),
	}
}

// RequestChallenge issues a new challenge. An empty kind picks uniformly
// among the five.
func (e *Engine) RequestChallenge(kind string, now time.Time) *ChallengeInstance {
	level, _ := e.ctrl.Current()
	k, ok := ParseChallengeKind(kind)
	if !ok {
		k = -1
	}
	return e.resolver.Issue(k, level, now)
}

// SubmitChallenge resolves a submission and applies its delta. The
// resulting level and stage are returned alongside the outcome.
func (e *Engine) SubmitChallenge(id, source, answer string, now time.Time) (Outcome, float64, Stage, error) {
	outcome, err := e.resolver.Submit(id, source, answer, now)
	if err != nil {
		return Outcome{}, 0, 0, err
	}

	level, stage := e.ctrl.ApplyDelta(outcome.Delta, now)

	if e.announcer != nil {
		msg := "recovery failed. systems degrading faster now."
		sev := SeverityModerate
		if outcome.Result == ResultSuccess {
			msg = "systems stabilizing. error correction successful... for now."
			sev = SeverityMinor
		}
		e.announcer.Announce(e.corruptor.Transform(msg, level), sev)
	}
	e.persist()
	return outcome, level, stage, nil
}

// Snapshot exposes the current persistable state.
func (e *Engine) Snapshot() Snapshot { return e.ctrl.Snapshot() }

// StartTicker runs Tick immediately and then at every interval until Stop.
func (e *Engine) StartTicker(interval time.Duration) {
	e.Tick(time.Now(), Context{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Tick(time.Now(), Context{})
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the background ticker.
func (e *Engine) Stop() {
	close(e.stopCh)
}

func (e *Engine) persist() {
	if e.snapshots == nil {
		return
	}
	if err := e.snapshots.Save(e.ctrl.Snapshot()); err != nil {
		log.Printf("snapshot save failed, continuing in memory: %v", err)
	}
}

// LogAnnouncer writes announcements to the process log. It is the default
// outbound boundary when no platform collaborator is wired in.
type LogAnnouncer struct{}

func (LogAnnouncer) Announce(payload string, severity Severity) {
	log.Printf("announce [%s]: %s", severity, payload)
}
