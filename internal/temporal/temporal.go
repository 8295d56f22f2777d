// Package temporal provides session-duration awareness, the orchestrator
// role system/runtime/lib/temporal plays for the teacher's hooks, trimmed
// to two dimensions: wall-clock time and elapsed session duration with a
// session phase. No other package of the router calls it; gate templates
// carry no temporal variables and no fatigue warning is emitted.
package temporal

import (
	"strconv"
	"time"
)

// Context holds the computed time awareness for one session (grounded in
// hooks/tool/cmd-pre-use's use of GetTemporalContext for "long session"
// warnings).
type Context struct {
	Now              time.Time
	SessionStart     time.Time
	Elapsed          time.Duration
	ElapsedFormatted string
	SessionPhase     string // "fresh", "active", "long"
}

// GetContext computes temporal awareness given a session's recorded
// start time. A zero sessionStart means the session has no recorded
// start yet (first turn); elapsed is reported as zero.
func GetContext(sessionStart time.Time) Context {
	now := time.Now()
	ctx := Context{Now: now, SessionStart: sessionStart}

	if !sessionStart.IsZero() {
		ctx.Elapsed = now.Sub(sessionStart)
	}
	ctx.ElapsedFormatted = formatDuration(ctx.Elapsed)

	switch minutes := ctx.Elapsed.Minutes(); {
	case minutes < 30:
		ctx.SessionPhase = "fresh"
	case minutes < 120:
		ctx.SessionPhase = "active"
	default:
		ctx.SessionPhase = "long"
	}

	return ctx
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return strconv.Itoa(h) + "h" + strconv.Itoa(m) + "m"
	}
	return strconv.Itoa(m) + "m"
}
