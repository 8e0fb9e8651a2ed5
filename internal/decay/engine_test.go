package decay

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"
)

type recordingAnnouncer struct {
	mu       sync.Mutex
	payloads []string
}

func (a *recordingAnnouncer) Announce(payload string, severity Severity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.payloads = append(a.payloads, payload)
}

func (a *recordingAnnouncer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.payloads)
}

type recordingSnapshotter struct {
	mu    sync.Mutex
	saves int
	last  Snapshot
	fail  error
}

func (s *recordingSnapshotter) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.saves++
	s.last = snap
	return nil
}

func testEngine(t *testing.T, seed uint64) (*Engine, *recordingAnnouncer, *recordingSnapshotter) {
	t.Helper()
	schedule := DefaultSchedule(campaignStart())
	ctrl, err := NewController(schedule, Snapshot{})
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	eng := New(
		ctrl,
		NewSelector(DefaultCatalog(), DefaultSelectorConfig(), rand.NewPCG(seed, seed)),
		NewResolver(DefaultResolverConfig(), rand.NewPCG(seed+1, seed+1)),
		NewCorruptor(rand.NewPCG(seed+2, seed+2)),
		schedule,
	)
	ann := &recordingAnnouncer{}
	snaps := &recordingSnapshotter{}
	eng.SetAnnouncer(ann)
	eng.SetSnapshotter(snaps)
	return eng, ann, snaps
}

func TestTickDayOneStable(t *testing.T) {
	eng, _, _ := testEngine(t, 1)

	res := eng.Tick(campaignStart().Add(time.Hour), Context{})
	if !res.InWindow || res.Day != 0 {
		t.Fatalf("day = %d, in window %v", res.Day, res.InWindow)
	}
	if res.Stage != StageStable {
		t.Errorf("stage = %s, want stable", res.Stage)
	}
}

func TestTickPersistsSnapshot(t *testing.T) {
	eng, _, snaps := testEngine(t, 2)

	eng.Tick(campaignStart().AddDate(0, 0, 15), Context{})
	if snaps.saves == 0 {
		t.Fatal("tick did not persist a snapshot")
	}
	// An event may fire on the same tick, so the level is at least the
	// schedule floor for day 15.
	if snaps.last.Level < 5 {
		t.Errorf("persisted level %.2f, want at least floor 5", snaps.last.Level)
	}
}

func TestTickSurvivesSnapshotFailure(t *testing.T) {
	eng, _, snaps := testEngine(t, 3)
	snaps.fail = errSnapshot

	// Must not panic; drift continues in memory only.
	res := eng.Tick(campaignStart().AddDate(0, 0, 15), Context{})
	if res.Level < 5 {
		t.Errorf("level %.2f, want at least floor 5 despite failed save", res.Level)
	}
}

var errSnapshot = &snapshotError{}

type snapshotError struct{}

func (*snapshotError) Error() string { return "disk full" }

func TestTickAnnouncesCommittedEvents(t *testing.T) {
	eng, ann, _ := testEngine(t, 4)

	// Drive the level up so events fire readily, then tick inside the
	// evening window until one commits.
	eng.ctrl.ApplyDelta(6, campaignStart())
	now := campaignStart().AddDate(0, 0, 10).Add(20 * time.Hour)

	var fired *TickResult
	for i := 0; i < 5000 && fired == nil; i++ {
		res := eng.Tick(now.Add(time.Duration(i)*time.Minute), Context{RecentMessages: 40})
		if res.Event != nil {
			fired = &res
		}
	}
	if fired == nil {
		t.Fatal("no event committed in 5000 ticks at high level")
	}
	if ann.count() == 0 {
		t.Fatal("committed event was never announced")
	}

	// The event's severity-implied delta landed on the controller and the
	// last-event markers moved.
	at, _ := eng.ctrl.LastEvent()
	if at.IsZero() {
		t.Error("last event timestamp not updated")
	}
}

func TestStatusReadOnly(t *testing.T) {
	eng, _, _ := testEngine(t, 5)
	eng.ctrl.ApplyDelta(4.2, campaignStart())

	before, _ := eng.ctrl.Current()
	st := eng.Status(campaignStart().AddDate(0, 0, 5))
	after, _ := eng.ctrl.Current()

	if before != after {
		t.Fatalf("Status mutated level: %.2f -> %.2f", before, after)
	}
	if st.Level != 4.2 || st.Stage != StageModerate {
		t.Errorf("status = %.2f %s, want 4.2 moderate", st.Level, st.Stage)
	}
	if st.Report == "" {
		t.Error("status missing diagnostic report")
	}
}

func TestRequestAndSubmitChallenge(t *testing.T) {
	eng, ann, _ := testEngine(t, 6)
	now := campaignStart().AddDate(0, 0, 16)
	eng.ctrl.ApplyDelta(5, now)

	inst := eng.RequestChallenge("memory", now)
	if inst.Kind != KindMemory {
		t.Fatalf("kind = %s, want memory", inst.Kind)
	}
	if inst.Difficulty != DifficultyFor(5) {
		t.Errorf("difficulty %d, want %d", inst.Difficulty, DifficultyFor(5))
	}

	outcome, level, _, err := eng.SubmitChallenge(inst.ID, "viewer", inst.expected, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Result != ResultSuccess {
		t.Fatalf("result = %s, want success", outcome.Result)
	}

	wantLevel := 5 + outcome.Delta
	if math.Abs(level-wantLevel) > 1e-9 {
		t.Errorf("level = %.4f, want %.4f", level, wantLevel)
	}
	if ann.count() == 0 {
		t.Error("resolved challenge was never announced")
	}
}

func TestSubmitUnknownInstance(t *testing.T) {
	eng, _, _ := testEngine(t, 7)
	if _, _, _, err := eng.SubmitChallenge("nope", "viewer", "answer", time.Now()); err == nil {
		t.Fatal("expected ErrInvalidSubmission for unknown instance")
	}
}

func TestRequestChallengeUnknownKindIsRandom(t *testing.T) {
	eng, _, _ := testEngine(t, 8)
	now := time.Now()

	seen := map[ChallengeKind]bool{}
	for i := 0; i < 100; i++ {
		seen[eng.RequestChallenge("", now).Kind] = true
	}
	if len(seen) < 2 {
		t.Error("empty kind never varied the challenge kind")
	}
}
