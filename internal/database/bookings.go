package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mietbot/internal/models"
)

const bookingColumns = `id, uid, COALESCE(summary, ''), COALESCE(description, ''),
    COALESCE(checkin, ''), COALESCE(checkout, ''), COALESCE(nuki_pin, ''),
    COALESCE(nuki_auth_id, ''), reminder_sent, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.UID, &b.Summary, &b.Description, &b.Checkin, &b.Checkout,
		&b.NukiPIN, &b.NukiAuthID, &b.ReminderSent, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindBookingForStay links a chat request to an imported calendar
// booking by matching the guest name against summary/description and
// the exact stay dates.
func (db *DB) FindBookingForStay(ctx context.Context, guestName, arrival, departure string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE (summary LIKE ? OR description LIKE ?)
        AND checkin = ? AND checkout = ?
        LIMIT 1`

	pattern := "%" + guestName + "%"
	booking, err := scanBooking(db.QueryRowContext(ctx, query, pattern, pattern, arrival, departure))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking for stay: %w", err)
	}
	return booking, nil
}

// UpsertBooking inserts or refreshes a calendar booking by UID.
// Returns true when a new row was inserted.
func (db *DB) UpsertBooking(ctx context.Context, booking *models.Booking) (bool, error) {
	var existingID int64
	err := db.QueryRowContext(ctx, `SELECT id FROM bookings WHERE uid = ?`, booking.UID).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to look up booking: %w", err)
	}

	if err == nil {
		_, err = db.ExecContext(ctx,
			`UPDATE bookings SET summary = ?, description = ?, checkin = ?, checkout = ?, updated_at = CURRENT_TIMESTAMP
             WHERE id = ?`,
			booking.Summary, booking.Description, booking.Checkin, booking.Checkout, existingID)
		if err != nil {
			return false, fmt.Errorf("failed to update booking: %w", err)
		}
		booking.ID = existingID
		return false, nil
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO bookings (uid, summary, description, checkin, checkout) VALUES (?, ?, ?, ?, ?)`,
		booking.UID, booking.Summary, booking.Description, booking.Checkin, booking.Checkout)
	if err != nil {
		return false, fmt.Errorf("failed to insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	return true, nil
}

// UpdateBookingNukiData attaches an issued keypad code to a booking.
func (db *DB) UpdateBookingNukiData(ctx context.Context, bookingID int64, pin, authID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE bookings SET nuki_pin = ?, nuki_auth_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		pin, authID, bookingID)
	if err != nil {
		return fmt.Errorf("failed to update booking nuki data: %w", err)
	}
	return nil
}

// GetUpcomingBookings returns stays checking in within the next `days`
// days that have not been reminded yet.
func (db *DB) GetUpcomingBookings(ctx context.Context, days int) ([]*models.Booking, error) {
	today := time.Now().Format("2006-01-02")
	until := time.Now().AddDate(0, 0, days).Format("2006-01-02")

	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE checkin >= ? AND checkin <= ? AND reminder_sent = 0
        ORDER BY checkin`

	rows, err := db.QueryContext(ctx, query, today, until)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// MarkReminderSent flags a booking so it is reminded only once.
func (db *DB) MarkReminderSent(ctx context.Context, bookingID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE bookings SET reminder_sent = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

// GetExpiredNukiAuths lists bookings whose checkout has passed but that
// still hold a keypad authorization.
func (db *DB) GetExpiredNukiAuths(ctx context.Context) ([]*models.Booking, error) {
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE checkout <= ? AND nuki_auth_id IS NOT NULL AND nuki_auth_id != ''`

	rows, err := db.QueryContext(ctx, query, yesterday)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired nuki auths: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// ClearNukiAuth removes the authorization reference after revocation.
func (db *DB) ClearNukiAuth(ctx context.Context, bookingID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE bookings SET nuki_auth_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to clear nuki auth: %w", err)
	}
	return nil
}
