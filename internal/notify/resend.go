// Package notify sends booking-confirmation emails. Delivery is best effort:
// a failed notification never unwinds a committed booking.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/eransh/bookwise/internal/slot"
	"github.com/eransh/bookwise/internal/timeutil"
)

// ResendNotifier sends email notifications via Resend API
type ResendNotifier struct {
	client      *resend.Client
	fromAddress string
}

// NewResendNotifier creates a new Resend email notifier
func NewResendNotifier(apiKey, from string) *ResendNotifier {
	if apiKey == "" {
		return nil
	}
	return &ResendNotifier{
		client:      resend.NewClient(apiKey),
		fromAddress: from,
	}
}

// IsConfigured returns true if the notifier has server-side config
func (r *ResendNotifier) IsConfigured() bool {
	return r != nil && r.client != nil && r.fromAddress != ""
}

// SendBookingConfirmation emails every attendee of a committed booking.
func (r *ResendNotifier) SendBookingConfirmation(ctx context.Context, rec *slot.BookingRecord) error {
	if !r.IsConfigured() {
		return fmt.Errorf("notifier is not configured")
	}
	if len(rec.Attendees) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Booked: %s", rec.Title)
	params := &resend.SendEmailRequest{
		From:    r.fromAddress,
		To:      rec.Attendees,
		Subject: subject,
		Html:    r.formatEmailHTML(rec),
	}

	if _, err := r.client.Emails.Send(params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("booking confirmation sent",
		"event_id", rec.EventID,
		"recipients", strings.Join(rec.Attendees, ","),
	)
	return nil
}

// formatEmailHTML creates the HTML email body
func (r *ResendNotifier) formatEmailHTML(rec *slot.BookingRecord) string {
	day := rec.Slot.Start.Format("Monday, January 2, 2006")
	window := timeutil.FormatTimeRange(rec.Slot.Start, rec.Slot.End)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>%s</h2>", rec.Title))
	b.WriteString(fmt.Sprintf("<p><strong>%s</strong><br>%s</p>", day, window))
	if len(rec.Attendees) > 0 {
		b.WriteString(fmt.Sprintf("<p>Attendees: %s</p>", strings.Join(rec.Attendees, ", ")))
	}
	b.WriteString("<p>This meeting was booked through the scheduling assistant.</p>")
	return b.String()
}
