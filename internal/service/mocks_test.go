package service

import (
	"context"
	"time"

	"mietbot/internal/domain"
	"mietbot/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetAllSettings(ctx context.Context) (*models.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Settings), args.Error(1)
}
func (m *mockRepository) GetNextInvoiceNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *mockRepository) SaveInvoice(ctx context.Context, data *models.InvoiceData) (*models.Invoice, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}
func (m *mockRepository) GetOpenInvoices(ctx context.Context) ([]*models.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}
func (m *mockRepository) GetAllInvoices(ctx context.Context) ([]*models.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}
func (m *mockRepository) FindOrCreateGuest(ctx context.Context, name, email, address string) (*models.Guest, error) {
	args := m.Called(ctx, name, email, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guest), args.Error(1)
}
func (m *mockRepository) FindBookingForStay(ctx context.Context, guestName, arrival, departure string) (*models.Booking, error) {
	args := m.Called(ctx, guestName, arrival, departure)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepository) UpsertBooking(ctx context.Context, booking *models.Booking) (bool, error) {
	args := m.Called(ctx, booking)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepository) UpdateBookingNukiData(ctx context.Context, bookingID int64, pin, authID string) error {
	return m.Called(ctx, bookingID, pin, authID).Error(0)
}
func (m *mockRepository) GetUpcomingBookings(ctx context.Context, days int) ([]*models.Booking, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepository) MarkReminderSent(ctx context.Context, bookingID int64) error {
	return m.Called(ctx, bookingID).Error(0)
}
func (m *mockRepository) GetExpiredNukiAuths(ctx context.Context) ([]*models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepository) ClearNukiAuth(ctx context.Context, bookingID int64) error {
	return m.Called(ctx, bookingID).Error(0)
}
func (m *mockRepository) IsTelegramIDAuthorized(ctx context.Context, chatID int64) (bool, error) {
	args := m.Called(ctx, chatID)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepository) AddPendingTelegramRequest(ctx context.Context, chatID int64, name, username string) error {
	return m.Called(ctx, chatID, name, username).Error(0)
}
func (m *mockRepository) IsWhatsAppSenderAuthorized(ctx context.Context, phone string) (bool, error) {
	args := m.Called(ctx, phone)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepository) LogNotification(ctx context.Context, kind, message, status string) error {
	return m.Called(ctx, kind, message, status).Error(0)
}

type mockLock struct {
	mock.Mock
}

func (m *mockLock) CreatePin(ctx context.Context, guestName string, arrival, departure time.Time) (*domain.LockCode, error) {
	args := m.Called(ctx, guestName, arrival, departure)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LockCode), args.Error(1)
}
func (m *mockLock) DeleteAuth(ctx context.Context, authID string) error {
	return m.Called(ctx, authID).Error(0)
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	args := m.Called(ctx, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendInvoice(smtp models.SMTP, to, subject, body, attachmentPath string) error {
	return m.Called(smtp, to, subject, body, attachmentPath).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockFinalizer struct {
	mock.Mock
}

func (m *mockFinalizer) FinalizeInvoice(ctx context.Context, req models.BookingRequest) (*domain.Document, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}
func (m *mockFinalizer) FinalizePin(ctx context.Context, req models.BookingRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
func (m *mockFinalizer) StatusText(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
