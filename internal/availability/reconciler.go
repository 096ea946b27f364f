// Package availability reconciles a requested time window against the
// external calendar capability's freebusy data.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/eransh/bookwise/internal/resolve"
	"github.com/eransh/bookwise/internal/slot"
)

// Interval is a busy span reported by the calendar capability.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the interval intersects [from, to).
func (i Interval) Overlaps(from, to time.Time) bool {
	return i.Start.Before(to) && from.Before(i.End)
}

// FreeBusy is the external calendar-availability capability. Implementations
// return the merged busy intervals of all attendees over the window.
type FreeBusy interface {
	FreeBusy(ctx context.Context, attendees []string, from, to time.Time) ([]Interval, error)
}

// Kind classifies a reconciliation result.
type Kind string

const (
	KindConfirmed      Kind = "confirmed"
	KindAlternatives   Kind = "alternatives"
	KindNoAvailability Kind = "no_availability"
)

// Result is the outcome of reconciling a window against real availability.
type Result struct {
	Kind         Kind
	Confirmed    *slot.Candidate
	Alternatives []slot.Candidate
}

// Reconciler searches a bounded window for free slots. It never widens its
// own bounds: when the window is exhausted it reports NoAvailability and
// leaves the widening decision to the caller.
type Reconciler struct {
	freebusy        FreeBusy
	increment       time.Duration
	maxAlternatives int
}

func New(freebusy FreeBusy, increment time.Duration, maxAlternatives int) *Reconciler {
	if increment <= 0 {
		increment = 15 * time.Minute
	}
	if maxAlternatives <= 0 {
		maxAlternatives = 3
	}
	return &Reconciler{
		freebusy:        freebusy,
		increment:       increment,
		maxAlternatives: maxAlternatives,
	}
}

// Reconcile checks the originally requested start first; if it is free it is
// confirmed exactly as asked, with no unrequested rescheduling. Otherwise the
// window is scanned forward in fixed increments and up to maxAlternatives
// free slots are returned, nearest to the request first.
func (r *Reconciler) Reconcile(ctx context.Context, w resolve.Window, attendees []string) (Result, error) {
	busy, err := r.freebusy.FreeBusy(ctx, attendees, w.RequestedStart(), w.End())
	if err != nil {
		return Result{}, fmt.Errorf("freebusy query failed: %w", err)
	}

	requested := w.RequestedStart()
	if isFree(busy, requested, requested.Add(w.Duration)) && fitsWindow(w, requested) {
		return Result{
			Kind: KindConfirmed,
			Confirmed: &slot.Candidate{
				Start:  requested,
				End:    requested.Add(w.Duration),
				Source: slot.SourceUserRequested,
			},
		}, nil
	}

	var alternatives []slot.Candidate
	for _, date := range w.Dates {
		dayEnd := date.Add(w.ClockTo)
		for start := date.Add(w.ClockFrom); !start.Add(w.Duration).After(dayEnd); start = start.Add(r.increment) {
			if start.Before(w.NotBefore) || start.Equal(requested) {
				continue
			}
			if !isFree(busy, start, start.Add(w.Duration)) {
				continue
			}
			alternatives = append(alternatives, slot.Candidate{
				Start:  start,
				End:    start.Add(w.Duration),
				Source: slot.SourceSystemSuggested,
			})
			if len(alternatives) == r.maxAlternatives {
				return Result{Kind: KindAlternatives, Alternatives: alternatives}, nil
			}
		}
	}

	if len(alternatives) > 0 {
		return Result{Kind: KindAlternatives, Alternatives: alternatives}, nil
	}
	return Result{Kind: KindNoAvailability}, nil
}

func isFree(busy []Interval, from, to time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(from, to) {
			return false
		}
	}
	return true
}

func fitsWindow(w resolve.Window, start time.Time) bool {
	for _, date := range w.Dates {
		if !start.Before(date.Add(w.ClockFrom)) && !start.Add(w.Duration).After(date.Add(w.ClockTo)) {
			return true
		}
	}
	return false
}
