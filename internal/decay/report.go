package decay

import (
	"fmt"
	"time"
)

// renderReport builds the diagnostic report shown to observers. The report
// itself degrades as the level rises, so at high corruption even the
// diagnostics are barely legible.
func (e *Engine) renderReport(level float64, stage Stage, now time.Time) string {
	day, inWindow := e.schedule.DayIndex(now)
	uptime := "outside campaign window"
	if inWindow {
		uptime = fmt.Sprintf("day %d of %d", day+1, e.schedule.Days)
	}

	report := fmt.Sprintf(
		"DIAGNOSTIC REPORT\ncorruption level: %.1f/10\nstatus: %s\nuptime: %s",
		level, stage, uptime,
	)

	switch {
	case level < 3:
		return report + "\nminor anomalies detected in personality matrix."
	case level < 6:
		return e.corruptor.Transform(report+"\nWARNING: significant system degradation detected.", level)
	default:
		return e.corruptor.Transform(report+"\nCRITICAL: SYSTEM FAILURE IMMINENT", level)
	}
}
