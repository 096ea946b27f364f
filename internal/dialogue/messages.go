package dialogue

import (
	"fmt"
	"strings"

	"github.com/eransh/bookwise/internal/availability"
	"github.com/eransh/bookwise/internal/slot"
	"github.com/eransh/bookwise/internal/timeutil"
)

func greetingMessage() (string, []string) {
	return "Hi! I'm your scheduling assistant. I can book meetings or check your availability.", []string{
		"What's my schedule today?",
		"Am I free tomorrow at 2pm?",
		"Book a meeting tomorrow at 3pm",
		"Schedule a call with dana@example.com on Friday",
	}
}

func rephraseMessage() string {
	return "Sorry, I couldn't understand that. Could you rephrase? For example: 'Book a meeting tomorrow at 3pm'."
}

func apologyHandoffMessage() string {
	return "I'm sorry, we don't seem to be getting anywhere with this booking. I'm going to stop here — please try again later or reach out to a human assistant."
}

func cancelledMessage() string {
	return "No problem, I've cancelled this request. Just say the word when you'd like to schedule something."
}

func widenMessage() string {
	return "I couldn't find any free slot in that range. Would a different time of day or another day work?"
}

func calendarTroubleMessage() string {
	return "I'm having trouble reaching the calendar right now. Please try again in a moment."
}

func bookingFailedMessage() string {
	return "I couldn't complete the booking because the calendar service is unavailable. Nothing was booked — say 'yes' to try again, or pick a different time."
}

func confirmedMessage(c slot.Candidate) string {
	return fmt.Sprintf(
		"%s from %s is free. Shall I book it?",
		timeutil.FormatDay(c.Start),
		timeutil.FormatTimeRange(c.Start, c.End),
	)
}

func alternativesMessage(alts []slot.Candidate) string {
	var b strings.Builder
	b.WriteString("That exact time is taken, but these are free:\n")
	for i, c := range alts {
		fmt.Fprintf(&b, "%d. %s, %s\n", i+1, timeutil.FormatDay(c.Start), timeutil.FormatTimeRange(c.Start, c.End))
	}
	b.WriteString("Which one should I book?")
	return b.String()
}

func conflictRetryMessage(alts []slot.Candidate) string {
	var b strings.Builder
	b.WriteString("That slot was just taken by someone else. These are still free:\n")
	for i, c := range alts {
		fmt.Fprintf(&b, "%d. %s, %s\n", i+1, timeutil.FormatDay(c.Start), timeutil.FormatTimeRange(c.Start, c.End))
	}
	b.WriteString("Which one should I book?")
	return b.String()
}

func bookedMessage(rec *slot.BookingRecord) string {
	return fmt.Sprintf(
		"Booked '%s' on %s from %s.",
		rec.Title,
		timeutil.FormatDay(rec.Slot.Start),
		timeutil.FormatTimeRange(rec.Slot.Start, rec.Slot.End),
	)
}

func rejectedMessage() string {
	return "Okay, none of those. What day or time would work better?"
}

func scheduleMessage(day string, busy []availability.Interval) string {
	if len(busy) == 0 {
		return fmt.Sprintf("You're completely free on %s. Would you like to schedule something?", day)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d busy block(s) on %s:\n", len(busy), day)
	for _, iv := range busy {
		fmt.Fprintf(&b, "- %s\n", timeutil.FormatTimeRange(iv.Start, iv.End))
	}
	return strings.TrimRight(b.String(), "\n")
}

// meetingTitle derives the event summary from the collected model, the way
// the assistant names meetings: "Meeting with <attendees>" when people are
// named, an extracted title when one was implied, "Meeting" otherwise.
func meetingTitle(m slot.Model) string {
	if m.Title != "" {
		return m.Title
	}
	if len(m.Attendees) > 0 {
		return fmt.Sprintf("Meeting with %s", strings.Join(m.Attendees, ", "))
	}
	return "Meeting"
}
