package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eransh/bookwise/internal/slot"
)

// Monday morning, fixed for every test so outcomes are reproducible.
var ref = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2026, time.March, 2+offset, 0, 0, 0, 0, time.UTC)
}

func model(build func(m *slot.Model)) slot.Model {
	m := slot.New()
	m.Intent = slot.IntentSchedule
	m.Provenance[slot.FieldIntent] = slot.Explicit
	build(&m)
	return m
}

func withDate(m *slot.Model, from, to time.Time) {
	m.DateRange = &slot.DateRange{Earliest: from, Latest: to}
	m.Provenance[slot.FieldDate] = slot.Explicit
}

func withTime(m *slot.Model, from, to time.Duration) {
	m.TimeRange = &slot.ClockRange{Earliest: from, Latest: to}
	m.Provenance[slot.FieldTime] = slot.Explicit
}

func TestResolve_ClarificationOrder(t *testing.T) {
	r := New(14, 3, 30*time.Minute)

	tests := []struct {
		name        string
		model       slot.Model
		wantMissing slot.Field
	}{
		{
			name: "no intent yet",
			model: func() slot.Model {
				m := slot.New()
				return m
			}(),
			wantMissing: slot.FieldIntent,
		},
		{
			name:        "intent but no date",
			model:       model(func(m *slot.Model) {}),
			wantMissing: slot.FieldDate,
		},
		{
			name: "date asked before time even when both missing",
			model: model(func(m *slot.Model) {
				m.Duration = time.Hour
				m.Provenance[slot.FieldDuration] = slot.Explicit
			}),
			wantMissing: slot.FieldDate,
		},
		{
			name: "date but no time",
			model: model(func(m *slot.Model) {
				withDate(m, day(1), day(1))
			}),
			wantMissing: slot.FieldTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Resolve(tt.model, ref)
			require.Equal(t, KindNeedsClarification, out.Kind)
			require.Len(t, out.MissingFields, 1)
			assert.Equal(t, tt.wantMissing, out.MissingFields[0])
			assert.NotEmpty(t, out.Question)
		})
	}
}

func TestResolve_OneQuestionPerTurn(t *testing.T) {
	r := New(14, 3, 30*time.Minute)

	// Everything except intent is missing; still exactly one question.
	out := r.Resolve(slot.New(), ref)
	require.Equal(t, KindNeedsClarification, out.Kind)
	assert.Len(t, out.MissingFields, 1)
}

func TestResolve_WideDateRangeNeedsNarrowing(t *testing.T) {
	r := New(14, 3, 30*time.Minute)

	m := model(func(m *slot.Model) {
		withDate(m, day(1), day(20)) // 20 days
		withTime(m, 10*time.Hour, 11*time.Hour)
	})

	out := r.Resolve(m, ref)
	require.Equal(t, KindNeedsClarification, out.Kind)
	assert.Equal(t, []slot.Field{slot.FieldDate}, out.MissingFields)
	assert.Contains(t, out.Question, "narrow")
}

func TestResolve_MultiDayRangeAsksForOneDay(t *testing.T) {
	r := New(14, 3, 30*time.Minute)

	// "Sometime next week between 3 and 5 PM": time is pinned but the date
	// still spans a working week, so the next question is about the day.
	m := model(func(m *slot.Model) {
		withDate(m, day(7), day(11)) // Mon..Fri next week
		withTime(m, 15*time.Hour, 17*time.Hour)
	})

	out := r.Resolve(m, ref)
	require.Equal(t, KindNeedsClarification, out.Kind)
	assert.Equal(t, []slot.Field{slot.FieldDate}, out.MissingFields)
	assert.Contains(t, out.Question, "Which day")
}

func TestResolve_OpenEndedDateRangeNeedsNarrowing(t *testing.T) {
	r := New(14, 3, 30*time.Minute)

	m := model(func(m *slot.Model) {
		m.DateRange = &slot.DateRange{Earliest: day(1)} // "any time after tomorrow"
		m.Provenance[slot.FieldDate] = slot.Explicit
		withTime(m, 10*time.Hour, 11*time.Hour)
	})

	out := r.Resolve(m, ref)
	require.Equal(t, KindNeedsClarification, out.Kind)
	assert.Equal(t, []slot.Field{slot.FieldDate}, out.MissingFields)
}

func TestResolve_PastWindowIsContradiction(t *testing.T) {
	r := New(14, 3, 30*time.Minute)

	m := model(func(m *slot.Model) {
		withDate(m, day(-7), day(-7))
		withTime(m, 10*time.Hour, 11*time.Hour)
	})

	out := r.Resolve(m, ref)
	require.Equal(t, KindContradiction, out.Kind)
	assert.NotEmpty(t, out.Reason)
}

func TestResolve_EarlierTodayIsContradiction(t *testing.T) {
	r := New(14, 3, 30*time.Minute)

	// Reference time is 9:00; 7-8 AM today has already passed.
	m := model(func(m *slot.Model) {
		withDate(m, day(0), day(0))
		withTime(m, 7*time.Hour, 8*time.Hour)
	})

	out := r.Resolve(m, ref)
	assert.Equal(t, KindContradiction, out.Kind)
}

func TestResolve_Bookable(t *testing.T) {
	r := New(14, 3, 30*time.Minute)

	tests := []struct {
		name          string
		model         slot.Model
		wantDates     int
		wantClockFrom time.Duration
		wantClockTo   time.Duration
		wantDuration  time.Duration
	}{
		{
			name: "point request with explicit duration",
			model: model(func(m *slot.Model) {
				withDate(m, day(1), day(1))
				withTime(m, 10*time.Hour, slot.ClockOpen)
				m.Duration = time.Hour
				m.Provenance[slot.FieldDuration] = slot.Explicit
			}),
			wantDates:     1,
			wantClockFrom: 10 * time.Hour,
			wantClockTo:   18 * time.Hour, // open end falls back to end of working day
			wantDuration:  time.Hour,
		},
		{
			name: "duration defaults once the rest is pinned",
			model: model(func(m *slot.Model) {
				withDate(m, day(1), day(1))
				withTime(m, 15*time.Hour, 17*time.Hour)
			}),
			wantDates:     1,
			wantClockFrom: 15 * time.Hour,
			wantClockTo:   17 * time.Hour,
			wantDuration:  30 * time.Minute,
		},
		{
			name: "open start falls back to start of working day",
			model: model(func(m *slot.Model) {
				withDate(m, day(1), day(1))
				withTime(m, slot.ClockOpen, 12*time.Hour)
			}),
			wantDates:     1,
			wantClockFrom: 9 * time.Hour,
			wantClockTo:   12 * time.Hour,
			wantDuration:  30 * time.Minute,
		},
		{
			name: "short multi-day range is searchable without clarification",
			model: model(func(m *slot.Model) {
				withDate(m, day(1), day(3))
				withTime(m, 10*time.Hour, 12*time.Hour)
			}),
			wantDates:     3,
			wantClockFrom: 10 * time.Hour,
			wantClockTo:   12 * time.Hour,
			wantDuration:  30 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Resolve(tt.model, ref)
			require.Equal(t, KindBookable, out.Kind)
			require.NotNil(t, out.Window)
			assert.Len(t, out.Window.Dates, tt.wantDates)
			assert.Equal(t, tt.wantClockFrom, out.Window.ClockFrom)
			assert.Equal(t, tt.wantClockTo, out.Window.ClockTo)
			assert.Equal(t, tt.wantDuration, out.Window.Duration)
			assert.Equal(t, ref, out.Window.NotBefore)
		})
	}
}

func TestResolve_PointRequestWindowCoversMeeting(t *testing.T) {
	r := New(14, 3, 30*time.Minute)

	// "at 10" with an hour-long meeting: the window must leave room for it.
	m := model(func(m *slot.Model) {
		withDate(m, day(1), day(1))
		withTime(m, 10*time.Hour, 10*time.Hour)
		m.Duration = time.Hour
		m.Provenance[slot.FieldDuration] = slot.Explicit
	})

	out := r.Resolve(m, ref)
	require.Equal(t, KindBookable, out.Kind)
	assert.Equal(t, 11*time.Hour, out.Window.ClockTo)
}

func TestResolve_PastDatesDroppedFromWindow(t *testing.T) {
	r := New(14, 3, 30*time.Minute)

	m := model(func(m *slot.Model) {
		withDate(m, day(-1), day(1))
		withTime(m, 10*time.Hour, 12*time.Hour)
	})

	out := r.Resolve(m, ref)
	require.Equal(t, KindBookable, out.Kind)
	require.Len(t, out.Window.Dates, 2)
	assert.Equal(t, day(0), out.Window.Dates[0])
}

func TestResolve_Deterministic(t *testing.T) {
	r := New(14, 3, 30*time.Minute)

	m := model(func(m *slot.Model) {
		withDate(m, day(1), day(2))
		withTime(m, 10*time.Hour, 12*time.Hour)
	})

	first := r.Resolve(m, ref)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, r.Resolve(m, ref))
	}
}

func TestWindow_RequestedStart(t *testing.T) {
	w := Window{
		Dates:     []time.Time{day(1)},
		ClockFrom: 10 * time.Hour,
		ClockTo:   12 * time.Hour,
		Duration:  30 * time.Minute,
		NotBefore: ref,
	}
	assert.Equal(t, day(1).Add(10*time.Hour), w.RequestedStart())

	// Same-day request earlier than the reference time clamps forward.
	w.Dates = []time.Time{day(0)}
	w.NotBefore = day(0).Add(11 * time.Hour)
	assert.Equal(t, day(0).Add(11*time.Hour), w.RequestedStart())
}
