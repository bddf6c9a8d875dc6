package models

import "time"

// Booking is a stay imported from the booking calendar (iCal feed).
// Checkin/Checkout are calendar dates in ISO form (2006-01-02).
type Booking struct {
	ID           int64     `json:"id"`
	UID          string    `json:"uid"`
	Summary      string    `json:"summary"`
	Description  string    `json:"description"`
	Checkin      string    `json:"checkin"`
	Checkout     string    `json:"checkout"`
	NukiPIN      string    `json:"nuki_pin"`
	NukiAuthID   string    `json:"nuki_auth_id"`
	ReminderSent bool      `json:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Guest is a billing contact resolved from invoices and PIN requests.
type Guest struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
