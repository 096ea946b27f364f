package extract

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eransh/bookwise/internal/slot"
	"github.com/eransh/bookwise/internal/timeutil"
)

const (
	minDuration = 5 * time.Minute
	maxDuration = 8 * time.Hour
)

// normalize converts the untrusted wire structure into a strict Slot Model
// update. Anything malformed fails the whole extraction rather than being
// silently guessed at.
func (e *Extractor) normalize(raw *Extraction) (slot.Model, error) {
	if raw == nil {
		return slot.Model{}, fmt.Errorf("empty extraction")
	}

	update := slot.New()

	intent, err := parseIntent(raw.Intent)
	if err != nil {
		return slot.Model{}, err
	}
	if intent != slot.IntentUnknown {
		update.Intent = intent
		update.Provenance[slot.FieldIntent] = provenanceFor(raw, "intent")
	}

	if raw.DateEarliest != "" || raw.DateLatest != "" {
		dr, err := e.parseDateRange(raw.DateEarliest, raw.DateLatest)
		if err != nil {
			return slot.Model{}, err
		}
		update.DateRange = dr
		update.Provenance[slot.FieldDate] = provenanceFor(raw, "date")
	}

	if raw.TimeEarliest != "" || raw.TimeLatest != "" {
		tr, err := parseClockRange(raw.TimeEarliest, raw.TimeLatest)
		if err != nil {
			return slot.Model{}, err
		}
		update.TimeRange = tr
		update.Provenance[slot.FieldTime] = provenanceFor(raw, "time")
	}

	if raw.DurationMinutes != 0 {
		d := time.Duration(raw.DurationMinutes) * time.Minute
		if d < minDuration || d > maxDuration {
			return slot.Model{}, fmt.Errorf("duration out of range: %d minutes", raw.DurationMinutes)
		}
		update.Duration = d
		update.Provenance[slot.FieldDuration] = provenanceFor(raw, "duration")
	}

	if len(raw.Attendees) > 0 {
		attendees := normalizeAttendees(raw.Attendees)
		if len(attendees) > 0 {
			update.Attendees = attendees
			update.Provenance[slot.FieldAttendees] = provenanceFor(raw, "attendees")
		}
	}

	update.Title = strings.TrimSpace(raw.Title)

	return update, nil
}

func parseIntent(value string) (slot.Intent, error) {
	switch slot.Intent(strings.ToLower(strings.TrimSpace(value))) {
	case slot.IntentSchedule:
		return slot.IntentSchedule, nil
	case slot.IntentCheckAvailability:
		return slot.IntentCheckAvailability, nil
	case slot.IntentCancel:
		return slot.IntentCancel, nil
	case slot.IntentModify:
		return slot.IntentModify, nil
	case slot.IntentUnknown, "", "none":
		return slot.IntentUnknown, nil
	}
	return slot.IntentUnknown, fmt.Errorf("unknown intent value: %s", value)
}

func (e *Extractor) parseDateRange(earliest, latest string) (*slot.DateRange, error) {
	// A single bound means a single concrete date.
	if earliest == "" {
		earliest = latest
	}
	if latest == "" {
		latest = earliest
	}

	from, err := timeutil.ParseDate(earliest, e.loc)
	if err != nil {
		return nil, err
	}
	to, err := timeutil.ParseDate(latest, e.loc)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("date range ends before it starts: %s > %s", earliest, latest)
	}
	return &slot.DateRange{Earliest: from, Latest: to}, nil
}

func parseClockRange(earliest, latest string) (*slot.ClockRange, error) {
	tr := &slot.ClockRange{Earliest: slot.ClockOpen, Latest: slot.ClockOpen}

	if earliest != "" {
		from, err := timeutil.ParseClock(earliest)
		if err != nil {
			return nil, err
		}
		tr.Earliest = from
	}
	if latest != "" {
		to, err := timeutil.ParseClock(latest)
		if err != nil {
			return nil, err
		}
		tr.Latest = to
	}
	if tr.Earliest != slot.ClockOpen && tr.Latest != slot.ClockOpen && tr.Latest <= tr.Earliest {
		return nil, fmt.Errorf("time range ends before it starts: %s > %s", earliest, latest)
	}
	return tr, nil
}

func normalizeAttendees(values []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// provenanceFor reads the model's own provenance claim for a field, treating
// anything other than an explicit claim as inferred.
func provenanceFor(raw *Extraction, field string) slot.Provenance {
	if raw.Provenance != nil && strings.EqualFold(raw.Provenance[field], string(slot.Explicit)) {
		return slot.Explicit
	}
	return slot.Inferred
}
