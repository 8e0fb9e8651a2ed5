package decay

// Stage is the discrete bucket derived from the continuous decay level.
// It is never set directly; the controller recomputes it from the level.
type Stage int

const (
	StageStable Stage = iota
	StageMinor
	StageModerate
	StageSevere
	StageCritical
	StageTerminal
)

// StageFor returns the stage bucket containing level. Out-of-range levels
// are clamped rather than rejected. A level of exactly 9 is still critical;
// terminal covers the strip above it up to and including 10.
func StageFor(level float64) Stage {
	level = clampLevel(level)
	switch {
	case level < 1:
		return StageStable
	case level < 3:
		return StageMinor
	case level < 5:
		return StageModerate
	case level < 7:
		return StageSevere
	case level <= 9:
		return StageCritical
	}
	return StageTerminal
}

func (s Stage) String() string {
	switch s {
	case StageStable:
		return "stable"
	case StageMinor:
		return "minor"
	case StageModerate:
		return "moderate"
	case StageSevere:
		return "severe"
	case StageCritical:
		return "critical"
	case StageTerminal:
		return "terminal"
	}
	return "unknown"
}

// NextBreakpoint returns the level at which the stage above s begins, and
// false when s is already terminal.
func (s Stage) NextBreakpoint() (float64, bool) {
	switch s {
	case StageStable:
		return 1, true
	case StageMinor:
		return 3, true
	case StageModerate:
		return 5, true
	case StageSevere:
		return 7, true
	case StageCritical:
		return 9, true
	}
	return 0, false
}

// Severity classifies events and recorded deltas.
type Severity int

const (
	SeverityMinor Severity = iota
	SeverityModerate
	SeveritySevere
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// ParseSeverity maps a stored severity name back to its value. Unknown
// names degrade to minor so a stale snapshot never blocks startup.
func ParseSeverity(name string) Severity {
	switch name {
	case "moderate":
		return SeverityModerate
	case "severe":
		return SeveritySevere
	case "critical":
		return SeverityCritical
	}
	return SeverityMinor
}

func clampLevel(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 10 {
		return 10
	}
	return level
}
