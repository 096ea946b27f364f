package timeutil

import (
	"fmt"
	"strings"
	"time"
)

var defaultLocation = time.UTC

// ResolveLocation returns the configured location with UTC fallback.
func ResolveLocation(timezone string) (*time.Location, bool) {
	if timezone == "" {
		return defaultLocation, true
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return defaultLocation, true
	}
	return loc, false
}

// ParseDate parses a date-only value ("2006-01-02") in the provided location.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("date value is required")
	}

	d, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
	}
	return d, nil
}

// ParseClock parses a time-of-day value ("15:04" or "15:04:05") into an
// offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("time value is required")
	}

	layouts := []string{"15:04", "15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
		}
	}
	return 0, fmt.Errorf("unable to parse time of day: %s", value)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// IsBusinessDay reports whether t falls on a weekday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddBusinessDays returns the date n business days after t, skipping weekends.
func AddBusinessDays(t time.Time, n int) time.Time {
	d := t
	for n > 0 {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d) {
			n--
		}
	}
	return d
}

// FormatClock formats an offset from midnight as a 12-hour clock string.
func FormatClock(offset time.Duration) string {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(offset)
	return strings.TrimPrefix(base.Format("3:04 PM"), "0")
}

// FormatTimeRange renders a start/end pair the way the assistant speaks about
// it, e.g. "3:00 PM - 3:30 PM" with a next-day marker when the range crosses
// midnight.
func FormatTimeRange(start, end time.Time) string {
	s := strings.TrimPrefix(start.Format("3:04 PM"), "0")
	e := strings.TrimPrefix(end.Format("3:04 PM"), "0")
	if end.YearDay() != start.YearDay() || end.Year() != start.Year() {
		e += " (next day)"
	}
	return fmt.Sprintf("%s - %s", s, e)
}

// FormatDay renders a date as spoken, e.g. "Tuesday, June 28".
func FormatDay(t time.Time) string {
	return t.Format("Monday, January 2")
}
