// Package slot holds the structured representation of a scheduling request
// as it is assembled across a negotiation: what the user wants, how much of
// it has been pinned down, and where each piece of information came from.
package slot

import (
	"time"

	"github.com/eransh/bookwise/internal/timeutil"
)

// Intent classifies what the user is trying to do.
type Intent string

const (
	IntentUnknown           Intent = "unknown"
	IntentSchedule          Intent = "schedule"
	IntentCheckAvailability Intent = "check_availability"
	IntentCancel            Intent = "cancel"
	IntentModify            Intent = "modify"
)

// Status is the lifecycle state of a scheduling request.
type Status string

const (
	StatusCollecting Status = "collecting"
	StatusResolving  Status = "resolving"
	StatusConfirming Status = "confirming"
	StatusBooked     Status = "booked"
	StatusAbandoned  Status = "abandoned"
)

// Provenance records how a field value entered the model. The resolver only
// counts Explicit and Inferred values as "specified".
type Provenance string

const (
	Explicit  Provenance = "explicit"
	Inferred  Provenance = "inferred"
	Defaulted Provenance = "defaulted"
)

// Field names an individual slot of the scheduling request.
type Field string

const (
	FieldIntent    Field = "intent"
	FieldDate      Field = "date"
	FieldTime      Field = "time"
	FieldDuration  Field = "duration"
	FieldAttendees Field = "attendees"
)

// ClockOpen marks an open end of a time-of-day range.
const ClockOpen = time.Duration(-1)

// DateRange bounds the candidate calendar dates. A zero time means that end
// is open.
type DateRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// SpanDays returns the number of calendar days the range covers, or -1 when
// either end is open.
func (r DateRange) SpanDays() int {
	if r.Earliest.IsZero() || r.Latest.IsZero() {
		return -1
	}
	return int(timeutil.StartOfDay(r.Latest).Sub(timeutil.StartOfDay(r.Earliest)).Hours()/24) + 1
}

// Single returns the one concrete date the range resolves to, if any.
func (r DateRange) Single() (time.Time, bool) {
	if r.Earliest.IsZero() || r.Latest.IsZero() {
		return time.Time{}, false
	}
	if timeutil.SameDate(r.Earliest, r.Latest) {
		return timeutil.StartOfDay(r.Earliest), true
	}
	return time.Time{}, false
}

// ClockRange bounds the time of day as offsets from midnight. ClockOpen marks
// an open end.
type ClockRange struct {
	Earliest time.Duration `json:"earliest"`
	Latest   time.Duration `json:"latest"`
}

// Model is the evolving scheduling request. It is a value type: turns produce
// new models rather than mutating shared state.
type Model struct {
	Intent     Intent               `json:"intent"`
	DateRange  *DateRange           `json:"date_range,omitempty"`
	TimeRange  *ClockRange          `json:"time_range,omitempty"`
	Duration   time.Duration        `json:"duration,omitempty"`
	Attendees  []string             `json:"attendees,omitempty"`
	Title      string               `json:"title,omitempty"`
	Provenance map[Field]Provenance `json:"provenance,omitempty"`
	Status     Status               `json:"status"`
}

// New returns an empty model at the start of a negotiation.
func New() Model {
	return Model{
		Intent:     IntentUnknown,
		Provenance: map[Field]Provenance{},
		Status:     StatusCollecting,
	}
}

// Has reports whether the field carries a value at all, regardless of
// provenance.
func (m Model) Has(f Field) bool {
	_, ok := m.Provenance[f]
	return ok
}

// Specified reports whether the field was stated or inferred from the user,
// as opposed to filled in by a default.
func (m Model) Specified(f Field) bool {
	p, ok := m.Provenance[f]
	return ok && p != Defaulted
}

// Clone returns a deep copy of the model.
func (m Model) Clone() Model {
	out := m
	if m.DateRange != nil {
		dr := *m.DateRange
		out.DateRange = &dr
	}
	if m.TimeRange != nil {
		tr := *m.TimeRange
		out.TimeRange = &tr
	}
	out.Attendees = append([]string(nil), m.Attendees...)
	out.Provenance = make(map[Field]Provenance, len(m.Provenance))
	for k, v := range m.Provenance {
		out.Provenance[k] = v
	}
	return out
}
