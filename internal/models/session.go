package models

import (
	"strings"
	"time"
)

// Intent is the conversational goal of a session.
type Intent string

const (
	IntentInvoice Intent = "invoice"
	IntentPinOnly Intent = "pin_only"
)

// Awaiting names the single field the bot asked for last.
type Awaiting string

const (
	AwaitingNone    Awaiting = ""
	AwaitingName    Awaiting = "name"
	AwaitingAddress Awaiting = "address"
	AwaitingDates   Awaiting = "dates"
)

// BookingRequest accumulates guest data across conversation turns.
type BookingRequest struct {
	GuestName    string    `json:"guest_name"`
	GuestAddress string    `json:"guest_address"`
	Arrival      time.Time `json:"arrival"`
	Departure    time.Time `json:"departure"`
}

func (r *BookingRequest) HasDates() bool {
	return !r.Arrival.IsZero() && !r.Departure.IsZero()
}

// CompleteForInvoice reports whether all four fields are filled.
func (r *BookingRequest) CompleteForInvoice() bool {
	return strings.TrimSpace(r.GuestName) != "" &&
		strings.TrimSpace(r.GuestAddress) != "" &&
		r.HasDates()
}

// CompleteForPin does not require an address.
func (r *BookingRequest) CompleteForPin() bool {
	return strings.TrimSpace(r.GuestName) != "" && r.HasDates()
}

// Session is the in-progress state of one sender's unfinished request.
// Two transports never share a session even for the same person.
type Session struct {
	Channel   string         `json:"channel"`
	Sender    string         `json:"sender"`
	Intent    Intent         `json:"intent"`
	Awaiting  Awaiting       `json:"awaiting"`
	Request   BookingRequest `json:"request"`
	UpdatedAt time.Time      `json:"updated_at"`
}
