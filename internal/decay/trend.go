package decay

import (
	"math"
	"time"
)

// TrendDirection classifies the recent slope of the level history.
type TrendDirection int

const (
	TrendStable TrendDirection = iota
	TrendImproving
	TrendWorsening
)

func (d TrendDirection) String() string {
	switch d {
	case TrendStable:
		return "stable"
	case TrendImproving:
		return "improving"
	case TrendWorsening:
		return "worsening"
	}
	return "unknown"
}

// Trend is the analyzer's report: a direction and, when a breakpoint
// crossing can be extrapolated, the time until the next stage change.
type Trend struct {
	Direction TrendDirection
	// ProjectedStageChangeIn is nil when the slope is flat or the state is
	// already terminal.
	ProjectedStageChangeIn *time.Duration
}

const (
	// trendWindow is how many of the most recent samples the slope is
	// fit over.
	trendWindow = 20
	// noiseThreshold is the slope magnitude (levels per hour) below which
	// the trend is reported stable.
	noiseThreshold = 0.05
)

// AnalyzeTrend fits a least-squares line over the most recent samples and
// classifies its slope. It never mutates the history.
func AnalyzeTrend(history []Sample) Trend {
	if len(history) > trendWindow {
		history = history[len(history)-trendWindow:]
	}
	if len(history) < 2 {
		return Trend{Direction: TrendStable}
	}

	// Least-squares slope in levels per hour, with time measured from the
	// first sample in the window.
	t0 := history[0].At
	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(history))
	for _, s := range history {
		x := s.At.Sub(t0).Hours()
		y := s.Level
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Trend{Direction: TrendStable}
	}
	slope := (n*sumXY - sumX*sumY) / denom

	if math.Abs(slope) < noiseThreshold {
		return Trend{Direction: TrendStable}
	}

	trend := Trend{Direction: TrendWorsening}
	if slope < 0 {
		trend.Direction = TrendImproving
	}

	last := history[len(history)-1]
	stage := StageFor(last.Level)

	// Extrapolate the slope to the breakpoint the level is heading toward.
	var target float64
	switch trend.Direction {
	case TrendWorsening:
		next, ok := stage.NextBreakpoint()
		if !ok {
			return trend // already terminal
		}
		target = next
	case TrendImproving:
		if stage == StageStable {
			return trend
		}
		target = stageLowerBound(stage)
	}

	hours := (target - last.Level) / slope
	if hours <= 0 || math.IsInf(hours, 0) || math.IsNaN(hours) {
		return trend
	}
	d := time.Duration(hours * float64(time.Hour))
	trend.ProjectedStageChangeIn = &d
	return trend
}

// stageLowerBound is the level at which a stage begins; dropping below it
// crosses into the stage beneath.
func stageLowerBound(s Stage) float64 {
	switch s {
	case StageMinor:
		return 1
	case StageModerate:
		return 3
	case StageSevere:
		return 5
	case StageCritical:
		return 7
	case StageTerminal:
		return 9
	}
	return 0
}
