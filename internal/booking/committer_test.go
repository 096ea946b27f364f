package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eransh/bookwise/internal/booking"
	"github.com/eransh/bookwise/internal/slot"
	"github.com/eransh/bookwise/internal/testutil"
)

func candidate() slot.Candidate {
	start := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	return slot.Candidate{
		Start:  start,
		End:    start.Add(30 * time.Minute),
		Source: slot.SourceUserRequested,
	}
}

func TestCommit_Success(t *testing.T) {
	cal := testutil.NewMockCalendar()
	c := booking.New(cal, cal, 3)

	cand := candidate()
	key := booking.IdempotencyKey("conv-1", cand, []string{"dana@example.com"})

	rec, err := c.Commit(context.Background(), "Meeting with Dana", cand, []string{"dana@example.com"}, key)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "Meeting with Dana", rec.Title)
	assert.Equal(t, key, rec.IdempotencyKey)
	assert.NotEmpty(t, rec.EventID)
	assert.Equal(t, cand.Start, rec.Slot.Start)
	assert.Equal(t, 1, cal.EventCount())
}

func TestCommit_ConflictDetectedBeforeWrite(t *testing.T) {
	cal := testutil.NewMockCalendar()
	cand := candidate()

	// Another negotiation grabbed the slot between reconciliation and commit.
	cal.AddBusy(cand.Start, cand.End)

	c := booking.New(cal, cal, 3)
	key := booking.IdempotencyKey("conv-1", cand, nil)

	_, err := c.Commit(context.Background(), "Meeting", cand, nil, key)
	require.ErrorIs(t, err, booking.ErrConflict)
	assert.Equal(t, 0, cal.CreateCalls(), "no write should be attempted on conflict")
}

func TestCommit_RetriesTransientFailureWithSameKey(t *testing.T) {
	cal := testutil.NewMockCalendar()
	cal.FailCreates(1)

	c := booking.New(cal, cal, 3)
	cand := candidate()
	key := booking.IdempotencyKey("conv-1", cand, nil)

	rec, err := c.Commit(context.Background(), "Meeting", cand, nil, key)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.EventID)

	// The failed call was retried, but the retries all carried the same key,
	// so only one event exists.
	assert.Equal(t, 2, cal.CreateCalls())
	assert.Equal(t, 1, cal.EventCount())
}

func TestCommit_UnavailableAfterRetryBudget(t *testing.T) {
	cal := testutil.NewMockCalendar()
	cal.FailCreates(10)

	c := booking.New(cal, cal, 2)
	cand := candidate()
	key := booking.IdempotencyKey("conv-1", cand, nil)

	_, err := c.Commit(context.Background(), "Meeting", cand, nil, key)
	require.ErrorIs(t, err, booking.ErrUnavailable)
	assert.Equal(t, 0, cal.EventCount())

	// A later retry of the whole commit, same key, books exactly once.
	cal.FailCreates(0)
	rec, err := c.Commit(context.Background(), "Meeting", cand, nil, key)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.EventID)
	assert.Equal(t, 1, cal.EventCount())
}

func TestIdempotencyKey_Deterministic(t *testing.T) {
	cand := candidate()

	a := booking.IdempotencyKey("conv-1", cand, []string{"b@x.com", "a@x.com"})
	b := booking.IdempotencyKey("conv-1", cand, []string{"a@x.com", "b@x.com"})
	assert.Equal(t, a, b, "attendee order must not change the key")

	assert.NotEqual(t, a, booking.IdempotencyKey("conv-2", cand, []string{"a@x.com", "b@x.com"}))

	shifted := cand
	shifted.Start = cand.Start.Add(15 * time.Minute)
	assert.NotEqual(t, a, booking.IdempotencyKey("conv-1", shifted, []string{"a@x.com", "b@x.com"}))
}
