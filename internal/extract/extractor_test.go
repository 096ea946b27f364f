package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eransh/bookwise/internal/slot"
)

var ref = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// scriptedLM returns one fixed extraction, or an error.
type scriptedLM struct {
	result *Extraction
	err    error
}

func (s *scriptedLM) ClassifyAndExtract(context.Context, string, time.Time, slot.Model) (*Extraction, error) {
	return s.result, s.err
}

func (s *scriptedLM) IsConfigured() bool { return true }

func TestExtract_FullRequest(t *testing.T) {
	lm := &scriptedLM{result: &Extraction{
		Intent:          "schedule",
		DateEarliest:    "2026-03-03",
		DateLatest:      "2026-03-03",
		TimeEarliest:    "10:00",
		DurationMinutes: 30,
		Attendees:       []string{"Dana@Example.com"},
		Provenance: map[string]string{
			"intent": "explicit", "date": "explicit", "time": "explicit", "duration": "explicit",
			"attendees": "explicit",
		},
		Confidence: 0.95,
	}}
	e := New(lm, time.UTC)

	m, err := e.Extract(context.Background(), "tomorrow at 10am for 30 minutes with Dana", slot.New(), ref)
	require.NoError(t, err)

	assert.Equal(t, slot.IntentSchedule, m.Intent)
	require.NotNil(t, m.DateRange)
	assert.Equal(t, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC), m.DateRange.Earliest)
	require.NotNil(t, m.TimeRange)
	assert.Equal(t, 10*time.Hour, m.TimeRange.Earliest)
	assert.Equal(t, slot.ClockOpen, m.TimeRange.Latest)
	assert.Equal(t, 30*time.Minute, m.Duration)
	assert.Equal(t, []string{"dana@example.com"}, m.Attendees)
	assert.Equal(t, slot.Explicit, m.Provenance[slot.FieldDate])
}

func TestExtract_InferredFieldsMarked(t *testing.T) {
	// "sometime in the afternoon": the model maps it to a clock range and
	// flags the mapping as its own inference.
	lm := &scriptedLM{result: &Extraction{
		Intent:       "schedule",
		TimeEarliest: "12:00",
		TimeLatest:   "17:00",
		Provenance:   map[string]string{"intent": "explicit", "time": "inferred"},
		Confidence:   0.8,
	}}
	e := New(lm, time.UTC)

	m, err := e.Extract(context.Background(), "sometime in the afternoon", slot.New(), ref)
	require.NoError(t, err)
	assert.Equal(t, slot.Inferred, m.Provenance[slot.FieldTime])
}

func TestExtract_MissingProvenanceClaimTreatedAsInferred(t *testing.T) {
	lm := &scriptedLM{result: &Extraction{
		Intent:       "schedule",
		DateEarliest: "2026-03-03",
		Confidence:   0.9,
	}}
	e := New(lm, time.UTC)

	m, err := e.Extract(context.Background(), "tomorrow maybe", slot.New(), ref)
	require.NoError(t, err)
	assert.Equal(t, slot.Inferred, m.Provenance[slot.FieldDate])
}

func TestExtract_MergesIntoPrior(t *testing.T) {
	prior := slot.New()
	prior.Intent = slot.IntentSchedule
	prior.Provenance[slot.FieldIntent] = slot.Explicit
	prior.TimeRange = &slot.ClockRange{Earliest: 15 * time.Hour, Latest: 17 * time.Hour}
	prior.Provenance[slot.FieldTime] = slot.Explicit

	// Follow-up turn only pins the day; the time constraint must survive.
	lm := &scriptedLM{result: &Extraction{
		Intent:       "schedule",
		DateEarliest: "2026-03-10",
		Provenance:   map[string]string{"date": "explicit"},
		Confidence:   0.9,
	}}
	e := New(lm, time.UTC)

	m, err := e.Extract(context.Background(), "Tuesday", prior, ref)
	require.NoError(t, err)
	require.NotNil(t, m.TimeRange)
	assert.Equal(t, 15*time.Hour, m.TimeRange.Earliest)
	require.NotNil(t, m.DateRange)
	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), m.DateRange.Earliest)
}

func TestExtract_FailuresReturnPriorUnchanged(t *testing.T) {
	prior := slot.New()
	prior.Intent = slot.IntentSchedule
	prior.Provenance[slot.FieldIntent] = slot.Explicit

	tests := []struct {
		name string
		lm   LanguageModel
	}{
		{name: "capability error", lm: &scriptedLM{err: context.DeadlineExceeded}},
		{name: "nil extraction", lm: &scriptedLM{}},
		{
			name: "garbage intent",
			lm:   &scriptedLM{result: &Extraction{Intent: "book_flight", Confidence: 0.5}},
		},
		{
			name: "malformed date",
			lm:   &scriptedLM{result: &Extraction{Intent: "schedule", DateEarliest: "next tuesday", Confidence: 0.5}},
		},
		{
			name: "inverted date range",
			lm: &scriptedLM{result: &Extraction{
				Intent: "schedule", DateEarliest: "2026-03-10", DateLatest: "2026-03-03", Confidence: 0.5,
			}},
		},
		{
			name: "inverted time range",
			lm: &scriptedLM{result: &Extraction{
				Intent: "schedule", TimeEarliest: "17:00", TimeLatest: "15:00", Confidence: 0.5,
			}},
		},
		{
			name: "absurd duration",
			lm:   &scriptedLM{result: &Extraction{Intent: "schedule", DurationMinutes: 1440, Confidence: 0.5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.lm, time.UTC)
			m, err := e.Extract(context.Background(), "whatever", prior, ref)
			require.ErrorIs(t, err, ErrExtraction)
			assert.Equal(t, prior, m)
		})
	}
}

func TestExtract_SingleDateBoundMeansSingleDay(t *testing.T) {
	lm := &scriptedLM{result: &Extraction{
		Intent:     "schedule",
		DateLatest: "2026-03-05",
		Provenance: map[string]string{"date": "explicit"},
		Confidence: 0.9,
	}}
	e := New(lm, time.UTC)

	m, err := e.Extract(context.Background(), "Thursday", slot.New(), ref)
	require.NoError(t, err)
	require.NotNil(t, m.DateRange)
	d, ok := m.DateRange.Single()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC), d)
}

func TestExtract_AttendeesNormalized(t *testing.T) {
	lm := &scriptedLM{result: &Extraction{
		Intent:     "schedule",
		Attendees:  []string{" Bob@X.com ", "alice@x.com", "bob@x.com", ""},
		Provenance: map[string]string{"attendees": "explicit"},
		Confidence: 0.9,
	}}
	e := New(lm, time.UTC)

	m, err := e.Extract(context.Background(), "with alice and bob", slot.New(), ref)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@x.com", "bob@x.com"}, m.Attendees)
}

func TestExtract_NotConfigured(t *testing.T) {
	e := New(nil, time.UTC)
	_, err := e.Extract(context.Background(), "hi", slot.New(), ref)
	assert.ErrorIs(t, err, ErrExtraction)
}
