package gcal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/eransh/bookwise/internal/availability"
	"github.com/eransh/bookwise/internal/slot"
)

// idempotencyProperty is the private extended property that carries the
// idempotency key on created events. The Google API has no native idempotent
// insert, so CreateEvent looks this property up before inserting.
const idempotencyProperty = "bookwiseIdempotencyKey"

// FreeBusy queries busy intervals for the assistant's calendar and every
// attendee over [from, to). All attendees' busy intervals are merged into one
// list, which intersects their free time.
func (c *Client) FreeBusy(ctx context.Context, attendees []string, from, to time.Time) ([]availability.Interval, error) {
	if c.service == nil {
		return nil, fmt.Errorf("calendar service not initialized")
	}
	if !to.After(from) {
		return nil, fmt.Errorf("invalid range: time_max is not after time_min")
	}

	items := []*calendar.FreeBusyRequestItem{{Id: c.calendarID}}
	for _, a := range attendees {
		items = append(items, &calendar.FreeBusyRequestItem{Id: a})
	}

	req := &calendar.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   items,
	}

	resp, err := c.service.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query failed: %w", err)
	}

	var busy []availability.Interval
	for _, cal := range resp.Calendars {
		for _, period := range cal.Busy {
			start, err := time.Parse(time.RFC3339, period.Start)
			if err != nil {
				return nil, fmt.Errorf("failed to parse busy start: %w", err)
			}
			end, err := time.Parse(time.RFC3339, period.End)
			if err != nil {
				return nil, fmt.Errorf("failed to parse busy end: %w", err)
			}
			busy = append(busy, availability.Interval{Start: start, End: end})
		}
	}

	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return busy, nil
}

// CreateEvent creates the event for a confirmed candidate slot. It is
// idempotent under the key: if an event tagged with the same key already
// exists, its ID is returned and nothing new is inserted.
func (c *Client) CreateEvent(
	ctx context.Context,
	title string,
	cand slot.Candidate,
	attendees []string,
	idempotencyKey string,
) (string, error) {
	if c.service == nil {
		return "", fmt.Errorf("calendar service not initialized")
	}
	if idempotencyKey == "" {
		return "", fmt.Errorf("idempotency key is required")
	}

	if existing, err := c.findByIdempotencyKey(ctx, idempotencyKey); err != nil {
		return "", err
	} else if existing != "" {
		return existing, nil
	}

	event := &calendar.Event{
		Summary:     title,
		Description: "Booked via Bookwise",
		Start: &calendar.EventDateTime{
			DateTime: cand.Start.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: cand.End.Format(time.RFC3339),
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{idempotencyProperty: idempotencyKey},
		},
	}

	sendUpdates := "none"
	if len(attendees) > 0 {
		eventAttendees := make([]*calendar.EventAttendee, len(attendees))
		for i, email := range attendees {
			eventAttendees[i] = &calendar.EventAttendee{Email: email}
		}
		event.Attendees = eventAttendees
		sendUpdates = "all"
	}

	created, err := c.service.Events.Insert(c.calendarID, event).
		SendUpdates(sendUpdates).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	return created.Id, nil
}

// findByIdempotencyKey returns the ID of an event previously created under
// the key, or empty when none exists.
func (c *Client) findByIdempotencyKey(ctx context.Context, key string) (string, error) {
	resp, err := c.service.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", idempotencyProperty, key)).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("idempotency lookup failed: %w", err)
	}

	for _, item := range resp.Items {
		if item.Status != "cancelled" {
			return item.Id, nil
		}
	}
	return "", nil
}
