// Package resolve inspects a Slot Model and decides whether it is bookable,
// under-specified, or self-contradictory. The decision is a pure function of
// the model and the turn's reference time, so the same model always yields
// the same classification and the same missing-field set.
package resolve

import (
	"fmt"
	"time"

	"github.com/eransh/bookwise/internal/slot"
	"github.com/eransh/bookwise/internal/timeutil"
)

// Kind classifies the resolver outcome.
type Kind string

const (
	KindBookable           Kind = "bookable"
	KindNeedsClarification Kind = "needs_clarification"
	KindContradiction      Kind = "contradiction"
)

// Default working-day bounds used when one end of the time range is open.
const (
	dayStart = 9 * time.Hour
	dayEnd   = 18 * time.Hour
)

// Window is the narrowest concrete search window implied by a bookable model:
// the candidate dates, the admissible time-of-day bounds on each of them, and
// the meeting duration.
type Window struct {
	Dates     []time.Time   // candidate dates (midnight), earliest first
	ClockFrom time.Duration // offset from midnight
	ClockTo   time.Duration
	Duration  time.Duration
	NotBefore time.Time // no candidate may start before this instant
}

// RequestedStart is the instant the user originally asked for: the earliest
// admissible start in the window.
func (w Window) RequestedStart() time.Time {
	start := w.Dates[0].Add(w.ClockFrom)
	if start.Before(w.NotBefore) {
		return w.NotBefore
	}
	return start
}

// Outcome is the resolver's classification of a Slot Model.
type Outcome struct {
	Kind          Kind
	Window        *Window      // set when Kind == KindBookable
	Question      string       // set when Kind == KindNeedsClarification
	MissingFields []slot.Field // set when Kind == KindNeedsClarification
	Reason        string       // set when Kind == KindContradiction
}

// Resolver applies the clarification policy.
type Resolver struct {
	maxDateSpanDays  int
	maxCandidateDays int
	defaultDuration  time.Duration
}

func New(maxDateSpanDays, maxCandidateDays int, defaultDuration time.Duration) *Resolver {
	if maxDateSpanDays <= 0 {
		maxDateSpanDays = 14
	}
	if maxCandidateDays <= 0 {
		maxCandidateDays = 3
	}
	if defaultDuration <= 0 {
		defaultDuration = 30 * time.Minute
	}
	return &Resolver{
		maxDateSpanDays:  maxDateSpanDays,
		maxCandidateDays: maxCandidateDays,
		defaultDuration:  defaultDuration,
	}
}

// Resolve classifies the model. Decision order, first match wins:
// intent missing, date missing, date range too wide, time missing,
// window entirely in the past, otherwise bookable.
func (r *Resolver) Resolve(m slot.Model, referenceTime time.Time) Outcome {
	if m.Intent != slot.IntentSchedule {
		return Outcome{
			Kind:          KindNeedsClarification,
			Question:      "I can book meetings or check your availability. What would you like to do?",
			MissingFields: []slot.Field{slot.FieldIntent},
		}
	}

	if m.DateRange == nil || !m.Specified(slot.FieldDate) {
		return Outcome{
			Kind:          KindNeedsClarification,
			Question:      "Which day would you like to meet?",
			MissingFields: []slot.Field{slot.FieldDate},
		}
	}

	span := m.DateRange.SpanDays()
	if span < 0 || span > r.maxDateSpanDays {
		return Outcome{
			Kind: KindNeedsClarification,
			Question: fmt.Sprintf(
				"That date range is too wide for me to search (more than %d days). Could you narrow it down to a day or a few days?",
				r.maxDateSpanDays,
			),
			MissingFields: []slot.Field{slot.FieldDate},
		}
	}
	if span > r.maxCandidateDays {
		return Outcome{
			Kind: KindNeedsClarification,
			Question: fmt.Sprintf(
				"Which day between %s and %s works best for you?",
				timeutil.FormatDay(m.DateRange.Earliest),
				timeutil.FormatDay(m.DateRange.Latest),
			),
			MissingFields: []slot.Field{slot.FieldDate},
		}
	}

	if m.TimeRange == nil || !m.Has(slot.FieldTime) {
		return Outcome{
			Kind:          KindNeedsClarification,
			Question:      fmt.Sprintf("What time works for you on %s?", timeutil.FormatDay(m.DateRange.Earliest)),
			MissingFields: []slot.Field{slot.FieldTime},
		}
	}

	window := r.buildWindow(m, referenceTime)

	if !window.end().After(referenceTime) {
		return Outcome{
			Kind: KindContradiction,
			Reason: fmt.Sprintf(
				"the requested date and time (%s at %s) are entirely in the past",
				timeutil.FormatDay(m.DateRange.Earliest),
				timeutil.FormatClock(window.ClockFrom),
			),
		}
	}

	return Outcome{Kind: KindBookable, Window: &window}
}

// buildWindow emits the narrowest concrete window the current bounds imply.
// An open earliest time falls back to the start of the working day, an open
// latest time to its end. The duration defaults only here, once the slot is
// otherwise complete.
func (r *Resolver) buildWindow(m slot.Model, referenceTime time.Time) Window {
	duration := m.Duration
	if duration <= 0 {
		duration = r.defaultDuration
	}

	clockFrom := m.TimeRange.Earliest
	if clockFrom == slot.ClockOpen {
		clockFrom = dayStart
	}
	clockTo := m.TimeRange.Latest
	if clockTo == slot.ClockOpen {
		clockTo = dayEnd
	}
	// A point request ("at 10am") still needs room for the meeting itself.
	if clockTo < clockFrom+duration {
		clockTo = clockFrom + duration
	}

	var dates []time.Time
	refDate := timeutil.StartOfDay(referenceTime)
	for d := timeutil.StartOfDay(m.DateRange.Earliest); !d.After(m.DateRange.Latest); d = d.AddDate(0, 0, 1) {
		if d.Before(refDate) {
			continue
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		// Entirely in the past; keep the original dates so the contradiction
		// message can name them.
		dates = []time.Time{timeutil.StartOfDay(m.DateRange.Earliest)}
	}

	return Window{
		Dates:     dates,
		ClockFrom: clockFrom,
		ClockTo:   clockTo,
		Duration:  duration,
		NotBefore: referenceTime,
	}
}

func (w Window) end() time.Time {
	return w.Dates[len(w.Dates)-1].Add(w.ClockTo)
}

// End is the last admissible instant of the window.
func (w Window) End() time.Time { return w.end() }
