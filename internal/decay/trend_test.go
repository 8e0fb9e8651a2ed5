package decay

import (
	"testing"
	"time"
)

// makeHistory builds samples at one-minute spacing from a start level with
// a fixed per-sample increment.
func makeHistory(start float64, step float64, n int) []Sample {
	t0 := time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)
	out := make([]Sample, n)
	level := start
	for i := 0; i < n; i++ {
		out[i] = Sample{At: t0.Add(time.Duration(i) * time.Minute), Level: clampLevel(level)}
		level += step
	}
	return out
}

func TestAnalyzeTrendWorsening(t *testing.T) {
	trend := AnalyzeTrend(makeHistory(3, 0.05, 20))
	if trend.Direction != TrendWorsening {
		t.Fatalf("direction = %s, want worsening", trend.Direction)
	}
	if trend.ProjectedStageChangeIn == nil {
		t.Fatal("expected a projected stage change")
	}
	if *trend.ProjectedStageChangeIn <= 0 {
		t.Errorf("projection %v not positive", *trend.ProjectedStageChangeIn)
	}
}

func TestAnalyzeTrendImproving(t *testing.T) {
	trend := AnalyzeTrend(makeHistory(6, -0.05, 20))
	if trend.Direction != TrendImproving {
		t.Fatalf("direction = %s, want improving", trend.Direction)
	}
	if trend.ProjectedStageChangeIn == nil {
		t.Fatal("expected a projection toward the stage below")
	}
}

func TestAnalyzeTrendStableFlat(t *testing.T) {
	trend := AnalyzeTrend(makeHistory(5, 0, 20))
	if trend.Direction != TrendStable {
		t.Fatalf("direction = %s, want stable", trend.Direction)
	}
	if trend.ProjectedStageChangeIn != nil {
		t.Errorf("flat history projected a stage change in %v", *trend.ProjectedStageChangeIn)
	}
}

func TestAnalyzeTrendNoiseThreshold(t *testing.T) {
	// A slope well below the noise threshold classifies as stable.
	trend := AnalyzeTrend(makeHistory(5, 0.0001, 20))
	if trend.Direction != TrendStable {
		t.Errorf("direction = %s, want stable for sub-noise slope", trend.Direction)
	}
}

func TestAnalyzeTrendTerminalNoProjection(t *testing.T) {
	trend := AnalyzeTrend(makeHistory(9.7, 0.01, 20))
	if trend.Direction != TrendWorsening {
		t.Fatalf("direction = %s, want worsening", trend.Direction)
	}
	if trend.ProjectedStageChangeIn != nil {
		t.Error("terminal stage should not project a further stage change")
	}
}

func TestAnalyzeTrendShortHistory(t *testing.T) {
	if trend := AnalyzeTrend(nil); trend.Direction != TrendStable {
		t.Errorf("empty history direction = %s, want stable", trend.Direction)
	}
	if trend := AnalyzeTrend(makeHistory(5, 1, 1)); trend.Direction != TrendStable {
		t.Errorf("single sample direction = %s, want stable", trend.Direction)
	}
}

func TestAnalyzeTrendUsesRecentWindow(t *testing.T) {
	// Older rising samples followed by a recent falling window: only the
	// last 20 samples should drive the classification.
	history := append(makeHistory(1, 0.2, 30), makeHistory(7, -0.1, 20)...)
	trend := AnalyzeTrend(history)
	if trend.Direction != TrendImproving {
		t.Errorf("direction = %s, want improving from recent window", trend.Direction)
	}
}
