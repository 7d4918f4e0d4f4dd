// Package tod evaluates the configured time-of-day windows that drive the
// aux relay and, optionally, a host shutdown request (spec.md §4.9). A
// window list is a set of sorted, non-overlapping UTC HH:MM-HH:MM
// intervals expressed as minute-of-day, validated at config load time
// (internal/config.validateTODIntervals) so this package only has to
// evaluate them.
package tod

import (
	"time"

	"github.com/tamzrod/ema-gateway/internal/config"
)

// Evaluator decides, for a given wall-clock minute, whether "now" falls
// inside any configured window.
type Evaluator struct {
	intervals []config.TODInterval
	inside    bool
}

func New(intervals []config.TODInterval) *Evaluator {
	return &Evaluator{intervals: intervals}
}

// minuteOfDay returns t's minute-of-day in UTC, matching how intervals are
// stored (spec.md §4.9: windows are always expressed in UTC).
func minuteOfDay(t time.Time) int {
	u := t.UTC()
	return u.Hour()*60 + u.Minute()
}

// activeAt reports whether minute-of-day m falls within any configured
// window; ranges do not wrap past midnight (validated at load time).
func (e *Evaluator) activeAt(m int) bool {
	for _, iv := range e.intervals {
		if m >= iv.StartMinute && m < iv.EndMinute {
			return true
		}
	}
	return false
}

// Transition is the result of evaluating one tick: whether a window is
// currently active, and whether that differs from the previous tick
// (spec.md §4.9: aux relay and shutdown are driven off the edge, not the
// level). A new Evaluator starts outside every window, so its first
// evaluation inside a window, e.g. after a restart mid-window, reports
// Entered.
type Transition struct {
	Active    bool
	Entered   bool
	Left      bool
}

// Evaluate advances the evaluator to time t and reports the transition.
func (e *Evaluator) Evaluate(t time.Time) Transition {
	active := e.activeAt(minuteOfDay(t))
	tr := Transition{Active: active}
	if active && !e.inside {
		tr.Entered = true
	}
	if !active && e.inside {
		tr.Left = true
	}
	e.inside = active
	return tr
}
