package availability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eransh/bookwise/internal/resolve"
	"github.com/eransh/bookwise/internal/slot"
)

var ref = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2026, time.March, 2+offset, 0, 0, 0, 0, time.UTC)
}

// fakeFreeBusy serves canned busy intervals, or an error.
type fakeFreeBusy struct {
	busy []Interval
	err  error
}

func (f *fakeFreeBusy) FreeBusy(_ context.Context, _ []string, from, to time.Time) ([]Interval, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Interval
	for _, b := range f.busy {
		if b.Overlaps(from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func window(dates []time.Time, from, to, duration time.Duration) resolve.Window {
	return resolve.Window{
		Dates:     dates,
		ClockFrom: from,
		ClockTo:   to,
		Duration:  duration,
		NotBefore: ref,
	}
}

func TestReconcile_RequestedSlotFree(t *testing.T) {
	fb := &fakeFreeBusy{}
	r := New(fb, 15*time.Minute, 3)
	w := window([]time.Time{day(1)}, 10*time.Hour, 12*time.Hour, 30*time.Minute)

	res, err := r.Reconcile(context.Background(), w, nil)
	require.NoError(t, err)
	require.Equal(t, KindConfirmed, res.Kind)
	require.NotNil(t, res.Confirmed)

	// Confirmed exactly as asked, never quietly rescheduled.
	assert.Equal(t, day(1).Add(10*time.Hour), res.Confirmed.Start)
	assert.Equal(t, day(1).Add(10*time.Hour+30*time.Minute), res.Confirmed.End)
	assert.Equal(t, slot.SourceUserRequested, res.Confirmed.Source)
}

func TestReconcile_BusyStartYieldsNearestAlternatives(t *testing.T) {
	fb := &fakeFreeBusy{busy: []Interval{
		{Start: day(1).Add(10 * time.Hour), End: day(1).Add(10*time.Hour + 30*time.Minute)},
	}}
	r := New(fb, 15*time.Minute, 3)
	w := window([]time.Time{day(1)}, 10*time.Hour, 12*time.Hour, 30*time.Minute)

	res, err := r.Reconcile(context.Background(), w, nil)
	require.NoError(t, err)
	require.Equal(t, KindAlternatives, res.Kind)
	require.Len(t, res.Alternatives, 3)

	wantStarts := []time.Duration{
		10*time.Hour + 30*time.Minute,
		10*time.Hour + 45*time.Minute,
		11 * time.Hour,
	}
	for i, alt := range res.Alternatives {
		assert.Equal(t, day(1).Add(wantStarts[i]), alt.Start, "alternative %d", i)
		assert.Equal(t, slot.SourceSystemSuggested, alt.Source)
	}
}

func TestReconcile_PartialOverlapIsNotConfirmed(t *testing.T) {
	// Busy 10:15-10:45 clips the tail of the requested 10:00-10:30 slot.
	fb := &fakeFreeBusy{busy: []Interval{
		{Start: day(1).Add(10*time.Hour + 15*time.Minute), End: day(1).Add(10*time.Hour + 45*time.Minute)},
	}}
	r := New(fb, 15*time.Minute, 3)
	w := window([]time.Time{day(1)}, 10*time.Hour, 12*time.Hour, 30*time.Minute)

	res, err := r.Reconcile(context.Background(), w, nil)
	require.NoError(t, err)
	require.Equal(t, KindAlternatives, res.Kind)
	for _, alt := range res.Alternatives {
		assert.False(t, alt.Start.Before(day(1).Add(10*time.Hour+45*time.Minute)),
			"alternative %s overlaps a busy interval", alt.Start)
	}
}

func TestReconcile_NoAvailability(t *testing.T) {
	fb := &fakeFreeBusy{busy: []Interval{
		{Start: day(1).Add(9 * time.Hour), End: day(1).Add(13 * time.Hour)},
	}}
	r := New(fb, 15*time.Minute, 3)
	w := window([]time.Time{day(1)}, 10*time.Hour, 12*time.Hour, 30*time.Minute)

	res, err := r.Reconcile(context.Background(), w, nil)
	require.NoError(t, err)
	assert.Equal(t, KindNoAvailability, res.Kind)
	assert.Nil(t, res.Confirmed)
	assert.Empty(t, res.Alternatives)
}

func TestReconcile_AlternativesStayInsideWindow(t *testing.T) {
	fb := &fakeFreeBusy{busy: []Interval{
		// Only the last half hour of the window is free.
		{Start: day(1).Add(10 * time.Hour), End: day(1).Add(11*time.Hour + 30*time.Minute)},
	}}
	r := New(fb, 15*time.Minute, 3)
	w := window([]time.Time{day(1)}, 10*time.Hour, 12*time.Hour, 30*time.Minute)

	res, err := r.Reconcile(context.Background(), w, nil)
	require.NoError(t, err)
	require.Equal(t, KindAlternatives, res.Kind)
	require.Len(t, res.Alternatives, 1)

	// The meeting must end by the window's close; no widening.
	alt := res.Alternatives[0]
	assert.Equal(t, day(1).Add(11*time.Hour+30*time.Minute), alt.Start)
	assert.Equal(t, day(1).Add(12*time.Hour), alt.End)
}

func TestReconcile_MultiDayWindowScansInDateOrder(t *testing.T) {
	fb := &fakeFreeBusy{busy: []Interval{
		{Start: day(1).Add(10 * time.Hour), End: day(1).Add(12 * time.Hour)},
	}}
	r := New(fb, 15*time.Minute, 3)
	w := window([]time.Time{day(1), day(2)}, 10*time.Hour, 11*time.Hour, 30*time.Minute)

	res, err := r.Reconcile(context.Background(), w, nil)
	require.NoError(t, err)
	require.Equal(t, KindAlternatives, res.Kind)
	require.NotEmpty(t, res.Alternatives)
	assert.Equal(t, day(2).Add(10*time.Hour), res.Alternatives[0].Start)
}

func TestReconcile_RespectsNotBefore(t *testing.T) {
	fb := &fakeFreeBusy{busy: []Interval{
		// The clamped requested start (11:00) is taken.
		{Start: day(0).Add(11 * time.Hour), End: day(0).Add(11*time.Hour + 30*time.Minute)},
	}}
	r := New(fb, 15*time.Minute, 3)

	// Same-day window that opened before the current time.
	w := resolve.Window{
		Dates:     []time.Time{day(0)},
		ClockFrom: 9 * time.Hour,
		ClockTo:   13 * time.Hour,
		Duration:  30 * time.Minute,
		NotBefore: day(0).Add(11 * time.Hour),
	}

	res, err := r.Reconcile(context.Background(), w, nil)
	require.NoError(t, err)
	require.Equal(t, KindAlternatives, res.Kind)
	for _, alt := range res.Alternatives {
		assert.False(t, alt.Start.Before(day(0).Add(11*time.Hour)),
			"alternative %s starts in the past", alt.Start)
	}
}

func TestReconcile_FreeBusyFailure(t *testing.T) {
	fb := &fakeFreeBusy{err: fmt.Errorf("calendar unreachable")}
	r := New(fb, 15*time.Minute, 3)
	w := window([]time.Time{day(1)}, 10*time.Hour, 12*time.Hour, 30*time.Minute)

	_, err := r.Reconcile(context.Background(), w, nil)
	assert.Error(t, err)
}

func TestInterval_Overlaps(t *testing.T) {
	b := Interval{Start: day(1).Add(10 * time.Hour), End: day(1).Add(11 * time.Hour)}

	tests := []struct {
		name string
		from time.Duration
		to   time.Duration
		want bool
	}{
		{name: "inside", from: 10*time.Hour + 15*time.Minute, to: 10*time.Hour + 45*time.Minute, want: true},
		{name: "clips start", from: 9*time.Hour + 45*time.Minute, to: 10*time.Hour + 15*time.Minute, want: true},
		{name: "clips end", from: 10*time.Hour + 45*time.Minute, to: 11*time.Hour + 15*time.Minute, want: true},
		{name: "back to back before", from: 9 * time.Hour, to: 10 * time.Hour, want: false},
		{name: "back to back after", from: 11 * time.Hour, to: 12 * time.Hour, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Overlaps(day(1).Add(tt.from), day(1).Add(tt.to)))
		})
	}
}
