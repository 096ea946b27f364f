package server

import (
	"net/http"
	"time"

	"github.com/eransh/bookwise/internal/slot"
	"github.com/eransh/bookwise/internal/timeutil"
)

// BookingResponse is the transport view of a committed booking.
type BookingResponse struct {
	IdempotencyKey string   `json:"idempotency_key"`
	EventID        string   `json:"event_id"`
	Title          string   `json:"title"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	Source         string   `json:"source"`
	Attendees      []string `json:"attendees,omitempty"`
}

func toBookingResponse(rec slot.BookingRecord) BookingResponse {
	return BookingResponse{
		IdempotencyKey: rec.IdempotencyKey,
		EventID:        rec.EventID,
		Title:          rec.Title,
		Start:          rec.Slot.Start.Format(time.RFC3339),
		End:            rec.Slot.End.Format(time.RFC3339),
		Source:         string(rec.Slot.Source),
		Attendees:      rec.Attendees,
	}
}

// handleListBookings lists committed bookings in a date window. Defaults to
// the coming week when no bounds are given.
func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	from := timeutil.StartOfDay(time.Now().UTC())
	to := from.AddDate(0, 0, 7)

	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = timeutil.ParseDate(v, time.UTC); err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'from' date, expected YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = timeutil.ParseDate(v, time.UTC); err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'to' date, expected YYYY-MM-DD")
			return
		}
		// An inclusive end date covers its whole day.
		to = to.AddDate(0, 0, 1)
	}

	records, err := s.bookings.ListBookings(from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	out := make([]BookingResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toBookingResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out})
}

// handleGetBooking returns the booking committed under an idempotency key.
func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	rec, err := s.bookings.GetBookingByKey(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load booking")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no booking under that key")
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(*rec))
}
