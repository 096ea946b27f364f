package slot

import "time"

// Source tags who proposed a candidate slot.
type Source string

const (
	SourceUserRequested   Source = "user_requested"
	SourceSystemSuggested Source = "system_suggested"
)

// Candidate is a single proposed meeting time. Immutable once produced: the
// reconciler creates candidates and everything downstream only reads them.
type Candidate struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Source Source    `json:"source"`
}

// Overlaps reports whether the candidate intersects the [from, to) interval.
func (c Candidate) Overlaps(from, to time.Time) bool {
	return c.Start.Before(to) && from.Before(c.End)
}

// BookingRecord is the committed outcome of a negotiation. Created only by a
// successful commit and never mutated afterwards.
type BookingRecord struct {
	Slot           Candidate `json:"slot"`
	Title          string    `json:"title"`
	Attendees      []string  `json:"attendees"`
	IdempotencyKey string    `json:"idempotency_key"`
	EventID        string    `json:"event_id"`
	CreatedAt      time.Time `json:"created_at"`
}
