package decay

import (
	"math/rand/v2"
	"sync"
	"time"
)

// EventDefinition describes one spontaneous manifestation. Definitions are
// immutable after catalog load.
type EventDefinition struct {
	ID              string
	Tier            Severity
	Weight          int
	PayloadTemplate string
	Cooldown        time.Duration
}

// Catalog holds event definitions partitioned by severity tier.
type Catalog struct {
	byTier map[Severity][]EventDefinition
}

// NewCatalog partitions defs by tier. Definitions with non-positive weight
// are kept but never win a weighted draw.
func NewCatalog(defs []EventDefinition) *Catalog {
	c := &Catalog{byTier: make(map[Severity][]EventDefinition)}
	for _, d := range defs {
		c.byTier[d.Tier] = append(c.byTier[d.Tier], d)
	}
	return c
}

// Tier returns the definitions of one severity tier.
func (c *Catalog) Tier(tier Severity) []EventDefinition {
	return c.byTier[tier]
}

// SelectorConfig bounds the trigger probability model.
type SelectorConfig struct {
	// PeakStart/PeakEnd delimit the evening window (local hours) where
	// events fire more often.
	PeakStart int
	PeakEnd   int
	// PeakMultiplier boosts probability inside the peak window.
	PeakMultiplier float64
	// ActivityDivisor converts recent message counts into a bounded
	// multiplier: 1 + min(count/divisor, 1).
	ActivityDivisor float64
	// MaxProbability caps the final trigger probability per tick.
	MaxProbability float64
}

// DefaultSelectorConfig mirrors the original evening window (18:00-23:00,
// 1.5x) and caps the per-tick probability at 70%.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		PeakStart:       18,
		PeakEnd:         23,
		PeakMultiplier:  1.5,
		ActivityDivisor: 50,
		MaxProbability:  0.7,
	}
}

// Context carries observer-channel signals into the selector.
type Context struct {
	RecentMessages int
}

// Selector probabilistically picks an event for the current stage.
type Selector struct {
	catalog *Catalog
	cfg     SelectorConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a selector over catalog backed by src.
func NewSelector(catalog *Catalog, cfg SelectorConfig, src rand.Source) *Selector {
	return &Selector{catalog: catalog, cfg: cfg, rng: rand.New(src)}
}

// tierFor maps the current stage to the severity tier events draw from.
// Critical and terminal stages unlock the top two tiers; the selector
// prefers the top one but falls back when it is empty or cooling down.
func tiersFor(stage Stage) []Severity {
	switch stage {
	case StageStable, StageMinor:
		return []Severity{SeverityMinor}
	case StageModerate:
		return []Severity{SeverityModerate}
	case StageSevere:
		return []Severity{SeveritySevere}
	}
	return []Severity{SeverityCritical, SeveritySevere}
}

// baseP is the stage-independent trigger probability per tier. Higher
// tiers fire more readily once unlocked.
func baseP(tier Severity) float64 {
	switch tier {
	case SeverityMinor:
		return 0.10
	case SeverityModerate:
		return 0.20
	case SeveritySevere:
		return 0.30
	case SeverityCritical:
		return 0.40
	}
	return 0
}

// EventDelta is the level delta implied by a committed event of a tier.
func EventDelta(tier Severity) float64 {
	switch tier {
	case SeverityMinor:
		return 0.1
	case SeverityModerate:
		return 0.2
	case SeveritySevere:
		return 0.35
	case SeverityCritical:
		return 0.5
	}
	return 0
}

// MaybeSelect decides whether a spontaneous event fires this tick and, if
// so, which one. It returns nil deterministically when the eligible tier
// has no definitions or every definition is cooling down. Safe for
// concurrent use.
func (s *Selector) MaybeSelect(now time.Time, stage Stage, ctx Context, lastEventAt time.Time) *EventDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tier := range tiersFor(stage) {
		defs := s.catalog.Tier(tier)
		if len(defs) == 0 {
			continue
		}

		p := baseP(tier) * s.peakMultiplier(now) * s.activityMultiplier(ctx)
		if p > s.cfg.MaxProbability {
			p = s.cfg.MaxProbability
		}
		if s.rng.Float64() >= p {
			return nil
		}

		if def := s.weightedPick(defs, now, lastEventAt); def != nil {
			return def
		}
		// All definitions in the tier are cooling down; no event fires.
		return nil
	}
	return nil
}

func (s *Selector) peakMultiplier(now time.Time) float64 {
	h := now.Hour()
	if h >= s.cfg.PeakStart && h <= s.cfg.PeakEnd {
		return s.cfg.PeakMultiplier
	}
	return 1
}

func (s *Selector) activityMultiplier(ctx Context) float64 {
	if s.cfg.ActivityDivisor <= 0 || ctx.RecentMessages <= 0 {
		return 1
	}
	boost := float64(ctx.RecentMessages) / s.cfg.ActivityDivisor
	if boost > 1 {
		boost = 1
	}
	return 1 + boost
}

// weightedPick draws among defs by weight, skipping definitions still
// cooling down against the last committed event.
func (s *Selector) weightedPick(defs []EventDefinition, now time.Time, lastEventAt time.Time) *EventDefinition {
	eligible := make([]EventDefinition, 0, len(defs))
	total := 0
	for _, d := range defs {
		if d.Weight <= 0 {
			continue
		}
		if !lastEventAt.IsZero() && now.Sub(lastEventAt) < d.Cooldown {
			continue
		}
		eligible = append(eligible, d)
		total += d.Weight
	}
	if total == 0 {
		return nil
	}
	n := s.rng.IntN(total)
	for i := range eligible {
		n -= eligible[i].Weight
		if n < 0 {
			return &eligible[i]
		}
	}
	return &eligible[len(eligible)-1]
}
