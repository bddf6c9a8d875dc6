package domain

import (
	"context"
	"time"

	"mietbot/internal/models"
)

// Repository is the persistence boundary (guests, bookings, invoices,
// settings, access requests).
type Repository interface {
	GetAllSettings(ctx context.Context) (*models.Settings, error)
	GetNextInvoiceNumber(ctx context.Context) (string, error)
	SaveInvoice(ctx context.Context, data *models.InvoiceData) (*models.Invoice, error)
	GetOpenInvoices(ctx context.Context) ([]*models.Invoice, error)
	GetAllInvoices(ctx context.Context) ([]*models.Invoice, error)

	FindOrCreateGuest(ctx context.Context, name, email, address string) (*models.Guest, error)

	FindBookingForStay(ctx context.Context, guestName, arrival, departure string) (*models.Booking, error)
	UpsertBooking(ctx context.Context, booking *models.Booking) (bool, error)
	UpdateBookingNukiData(ctx context.Context, bookingID int64, pin, authID string) error
	GetUpcomingBookings(ctx context.Context, days int) ([]*models.Booking, error)
	MarkReminderSent(ctx context.Context, bookingID int64) error
	GetExpiredNukiAuths(ctx context.Context) ([]*models.Booking, error)
	ClearNukiAuth(ctx context.Context, bookingID int64) error

	IsTelegramIDAuthorized(ctx context.Context, chatID int64) (bool, error)
	AddPendingTelegramRequest(ctx context.Context, chatID int64, name, username string) error
	IsWhatsAppSenderAuthorized(ctx context.Context, phone string) (bool, error)
	LogNotification(ctx context.Context, kind, message, status string) error
}

// StateRepository stores per-sender conversation sessions, keyed by
// (channel, sender). Callers serialize access per sender; different
// senders are always independent.
type StateRepository interface {
	GetSession(ctx context.Context, channel, sender string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, channel, sender string) error
	CheckRateLimit(ctx context.Context, channel, sender string, limit int, window time.Duration) (bool, error)
}

// StateManager is the service-level view of session state.
type StateManager interface {
	GetSession(ctx context.Context, channel, sender string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, channel, sender string) error
	CheckRateLimit(ctx context.Context, channel, sender string, limit int, window time.Duration) (bool, error)
}

// LockCode is a provisioned smart-lock keypad code.
type LockCode struct {
	PIN    string
	AuthID string
}

// LockProvider provisions and revokes door access codes.
type LockProvider interface {
	CreatePin(ctx context.Context, guestName string, arrival, departure time.Time) (*LockCode, error)
	DeleteAuth(ctx context.Context, authID string) error
}

// PdfRenderer turns invoice HTML into PDF bytes.
type PdfRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// Mailer sends an invoice PDF to a guest.
type Mailer interface {
	SendInvoice(smtp models.SMTP, to, subject, body, attachmentPath string) error
}

// EventPublisher fans out domain events in-process.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Document is a file to deliver on the originating channel. When
// Cleanup is set the adapter removes the file after sending.
type Document struct {
	FilePath string
	FileName string
	Caption  string
	Cleanup  bool
}

// Reply is one outbound action produced by the conversation core.
type Reply struct {
	Text     string
	Document *Document
}

// Conversation is the transport-agnostic core: adapters feed it
// (channel, sender, text) and send whatever replies come back.
type Conversation interface {
	HandleMessage(ctx context.Context, channel, sender, text string) []Reply
}
