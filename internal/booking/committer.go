// Package booking performs the at-most-once transactional write of a
// confirmed slot to the external calendar capability.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/eransh/bookwise/internal/availability"
	"github.com/eransh/bookwise/internal/slot"
)

// ErrConflict means the slot was taken between reconciliation and commit.
// The negotiation re-enters resolving to offer fresh alternatives.
var ErrConflict = errors.New("booking conflict")

// ErrUnavailable means the calendar capability stayed unreachable through the
// retry budget. Nothing was booked.
var ErrUnavailable = errors.New("booking unavailable")

// Calendar is the external calendar-write capability. CreateEvent must be
// idempotent under an identical key: a retried call with the same key must
// not create a duplicate event.
type Calendar interface {
	CreateEvent(ctx context.Context, title string, c slot.Candidate, attendees []string, idempotencyKey string) (string, error)
}

// Committer writes confirmed slots to the calendar. Races between independent
// negotiations for the same slot are resolved optimistically: a freebusy
// re-check immediately before the write, and the calendar's own conflict
// detection, not in-process locking.
type Committer struct {
	calendar   Calendar
	freebusy   availability.FreeBusy
	maxRetries uint64
}

func New(calendar Calendar, freebusy availability.FreeBusy, maxRetries int) *Committer {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Committer{
		calendar:   calendar,
		freebusy:   freebusy,
		maxRetries: uint64(maxRetries),
	}
}

// Commit books the candidate under the given idempotency key. The key is
// passed through unchanged on every retry; it is never regenerated, so the
// calendar wrapper can deduplicate repeated creates.
func (c *Committer) Commit(
	ctx context.Context,
	title string,
	cand slot.Candidate,
	attendees []string,
	idempotencyKey string,
) (*slot.BookingRecord, error) {
	busy, err := c.freebusy.FreeBusy(ctx, attendees, cand.Start, cand.End)
	if err != nil {
		return nil, fmt.Errorf("%w: pre-commit availability check failed: %v", ErrUnavailable, err)
	}
	for _, b := range busy {
		if b.Overlaps(cand.Start, cand.End) {
			return nil, fmt.Errorf("%w: slot %s is no longer free", ErrConflict, cand.Start.Format(time.RFC3339))
		}
	}

	var eventID string
	operation := func() error {
		id, err := c.calendar.CreateEvent(ctx, title, cand, attendees, idempotencyKey)
		if err != nil {
			return err
		}
		eventID = id
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &slot.BookingRecord{
		Slot:           cand,
		Title:          title,
		Attendees:      append([]string(nil), attendees...),
		IdempotencyKey: idempotencyKey,
		EventID:        eventID,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
