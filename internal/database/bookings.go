package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eransh/bookwise/internal/slot"
)

// InsertBooking records a committed booking. Insertion is keyed by the
// idempotency key, so recording the same commit twice is a no-op.
func (d *DB) InsertBooking(conversationID string, rec *slot.BookingRecord) error {
	attendeesJSON, err := json.Marshal(rec.Attendees)
	if err != nil {
		return fmt.Errorf("failed to marshal attendees: %w", err)
	}

	_, err = d.Exec(`
		INSERT OR IGNORE INTO bookings
			(idempotency_key, conversation_id, event_id, title, start_time, end_time, source, attendees_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.IdempotencyKey,
		conversationID,
		rec.EventID,
		rec.Title,
		rec.Slot.Start.UTC(),
		rec.Slot.End.UTC(),
		string(rec.Slot.Source),
		string(attendeesJSON),
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// GetBookingByKey returns the booking committed under the idempotency key,
// or nil when none exists.
func (d *DB) GetBookingByKey(key string) (*slot.BookingRecord, error) {
	var (
		rec           slot.BookingRecord
		source        string
		attendeesJSON string
	)
	err := d.QueryRow(`
		SELECT idempotency_key, event_id, title, start_time, end_time, source, attendees_json, created_at
		FROM bookings WHERE idempotency_key = ?
	`, key).Scan(
		&rec.IdempotencyKey,
		&rec.EventID,
		&rec.Title,
		&rec.Slot.Start,
		&rec.Slot.End,
		&source,
		&attendeesJSON,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	if err := json.Unmarshal([]byte(attendeesJSON), &rec.Attendees); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attendees: %w", err)
	}
	rec.Slot.Source = slot.Source(source)
	return &rec, nil
}

// ListBookings returns committed bookings in a window, earliest first.
func (d *DB) ListBookings(from, to time.Time) ([]slot.BookingRecord, error) {
	rows, err := d.Query(`
		SELECT idempotency_key, event_id, title, start_time, end_time, source, attendees_json, created_at
		FROM bookings
		WHERE start_time >= ? AND start_time < ?
		ORDER BY start_time ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var out []slot.BookingRecord
	for rows.Next() {
		var (
			rec           slot.BookingRecord
			source        string
			attendeesJSON string
		)
		if err := rows.Scan(
			&rec.IdempotencyKey,
			&rec.EventID,
			&rec.Title,
			&rec.Slot.Start,
			&rec.Slot.End,
			&source,
			&attendeesJSON,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		rec.Slot.Source = slot.Source(source)
		if err := json.Unmarshal([]byte(attendeesJSON), &rec.Attendees); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attendees: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
