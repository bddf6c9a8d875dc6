package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventInvoiceCreated  = "invoice_created"
	EventPinIssued       = "pin_issued"
	EventBookingImported = "booking_imported"
)

// InvoiceEventPayload is the snapshot published after an invoice flow.
type InvoiceEventPayload struct {
	InvoiceNumber string  `json:"invoice_number"`
	GuestName     string  `json:"guest_name"`
	Arrival       string  `json:"arrival"`
	Departure     string  `json:"departure"`
	TotalAmount   float64 `json:"total_amount"`
	Channel       string  `json:"channel,omitempty"`
}

// PinEventPayload is published after a keypad code was issued.
type PinEventPayload struct {
	GuestName string `json:"guest_name"`
	Arrival   string `json:"arrival"`
	Departure string `json:"departure"`
	Reused    bool   `json:"reused"`
}

// BookingEventPayload is published for calendar imports.
type BookingEventPayload struct {
	BookingID int64  `json:"booking_id"`
	Summary   string `json:"summary"`
	Checkin   string `json:"checkin"`
	Checkout  string `json:"checkout"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
