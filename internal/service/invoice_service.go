package service

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mietbot/internal/domain"
	"mietbot/internal/events"
	"mietbot/internal/models"
	"mietbot/internal/pdf"

	"github.com/rs/zerolog"
)

const isoDate = "2006-01-02"

// InvoiceService finalizes completed booking requests: it resolves
// settings, provisions the door code, assembles and persists the
// invoice and renders the PDF for delivery.
type InvoiceService struct {
	repo     domain.Repository
	lock     domain.LockProvider
	renderer domain.PdfRenderer
	mailer   domain.Mailer
	eventBus domain.EventPublisher
	tempPath string
	logger   *zerolog.Logger
}

func NewInvoiceService(repo domain.Repository, lock domain.LockProvider, renderer domain.PdfRenderer, mailer domain.Mailer, eventBus domain.EventPublisher, tempPath string, logger *zerolog.Logger) *InvoiceService {
	if tempPath == "" {
		tempPath = "temp"
	}
	return &InvoiceService{
		repo:     repo,
		lock:     lock,
		renderer: renderer,
		mailer:   mailer,
		eventBus: eventBus,
		tempPath: tempPath,
		logger:   logger,
	}
}

// CalcNights returns the billable night count for a stay. A zero or
// negative span still bills one night instead of being rejected.
func CalcNights(arrival, departure time.Time) int {
	nights := int(math.Ceil(departure.Sub(arrival).Hours() / 24))
	if nights < 1 {
		return 1
	}
	return nights
}

// FinalizeInvoice runs the full invoice flow and returns the document
// payload for the originating channel. A failing lock provider only
// costs the PIN line, never the invoice.
func (s *InvoiceService) FinalizeInvoice(ctx context.Context, req models.BookingRequest) (*domain.Document, error) {
	settings, err := s.repo.GetAllSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettingsUnavailable, err)
	}

	arrival := req.Arrival.Format(isoDate)
	departure := req.Departure.Format(isoDate)
	nights := CalcNights(req.Arrival, req.Departure)

	number, err := s.repo.GetNextInvoiceNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: next invoice number: %v", ErrPersistFailed, err)
	}

	data := &models.InvoiceData{
		VName:     settings.Vermieter.Name,
		VAdresse:  settings.Vermieter.Adresse,
		VTelefon:  settings.Vermieter.Telefon,
		VEmail:    settings.Vermieter.Email,
		VSteuernr: settings.Vermieter.Steuernr,

		GName:    req.GuestName,
		GAdresse: req.GuestAddress,

		RNummer: number,
		RDatum:  time.Now().Format(isoDate),

		AAnreise: arrival,
		AAbreise: departure,

		MwstSatz:         settings.Pricing.MwstRate,
		Kleinunternehmer: settings.Pricing.Kleinunternehmer,

		ZMethode:  models.PaymentMethodTransfer,
		ZShowBank: true,

		BInhaber: settings.Bank.Inhaber,
		BIban:    settings.Bank.Iban,
		BBic:     settings.Bank.Bic,
		BBank:    settings.Bank.Name,

		Positions: []models.Position{
			{Description: "Übernachtung", Quantity: nights, UnitPrice: settings.Pricing.PricePerNight},
			{Description: "Endreinigung", Quantity: 1, UnitPrice: settings.Pricing.CleaningFee},
		},
		Branding: settings.Branding,
	}

	// Код замка: сбой не фатален для счёта
	if code, _, err := s.resolveLockCode(ctx, req.GuestName, arrival, departure); err != nil {
		s.logger.Warn().Err(err).Str("guest", req.GuestName).Msg("lock code unavailable, invoice continues without pin")
	} else {
		data.LockPIN = code
	}

	guest, err := s.repo.FindOrCreateGuest(ctx, req.GuestName, "", req.GuestAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve guest: %v", ErrPersistFailed, err)
	}
	data.GEmail = guest.Email

	if _, err := s.repo.SaveInvoice(ctx, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	html, err := pdf.RenderInvoiceHTML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: template: %v", ErrRenderFailed, err)
	}
	content, err := s.renderer.Render(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	filePath, fileName, err := s.writeTempPdf(data.RNummer, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	s.sendInvoiceMail(settings, guest, data, filePath)
	s.publishInvoiceCreated(data)

	pin := data.LockPIN
	if pin == "" {
		pin = "Fehlgeschlagen"
	}

	return &domain.Document{
		FilePath: filePath,
		FileName: fileName,
		Caption:  fmt.Sprintf("✅ Rechnung %s erstellt.\n🔑 Nuki-PIN: %s", data.RNummer, pin),
		Cleanup:  true,
	}, nil
}

// FinalizePin issues (or reuses) a door code without creating an
// invoice. Unlike the invoice flow a lock failure is fatal here.
func (s *InvoiceService) FinalizePin(ctx context.Context, req models.BookingRequest) (string, error) {
	arrival := req.Arrival.Format(isoDate)
	departure := req.Departure.Format(isoDate)

	code, reused, err := s.resolveLockCode(ctx, req.GuestName, arrival, departure)
	if err != nil {
		return "", err
	}

	if _, err := s.repo.FindOrCreateGuest(ctx, req.GuestName, "", ""); err != nil {
		s.logger.Error().Err(err).Str("guest", req.GuestName).Msg("guest record not created for pin")
	}

	s.publishPinIssued(req, arrival, departure, reused)

	return fmt.Sprintf("✅ Tür-Code: *%s*\nGast: %s\nZeit: %s bis %s", code, req.GuestName, arrival, departure), nil
}

// resolveLockCode reuses the code of a matching booking when present,
// otherwise asks the lock provider for a new one and attaches it to the
// booking. reused is true when no provider call was made.
func (s *InvoiceService) resolveLockCode(ctx context.Context, guestName, arrival, departure string) (code string, reused bool, err error) {
	booking, err := s.repo.FindBookingForStay(ctx, guestName, arrival, departure)
	if err != nil {
		s.logger.Error().Err(err).Str("guest", guestName).Msg("booking lookup failed")
		booking = nil
	}
	if booking != nil && booking.NukiPIN != "" {
		return booking.NukiPIN, true, nil
	}

	arrivalDate, _ := time.Parse(isoDate, arrival)
	departureDate, _ := time.Parse(isoDate, departure)

	lockCode, err := s.lock.CreatePin(ctx, guestName, arrivalDate, departureDate)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrLockFailed, err)
	}

	if booking != nil {
		if err := s.repo.UpdateBookingNukiData(ctx, booking.ID, lockCode.PIN, lockCode.AuthID); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("attach lock code to booking failed")
		}
	}

	return lockCode.PIN, false, nil
}

// StatusText lists open invoices for the read-only status command.
func (s *InvoiceService) StatusText(ctx context.Context) (string, error) {
	open, err := s.repo.GetOpenInvoices(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: open invoices: %v", ErrPersistFailed, err)
	}
	if len(open) == 0 {
		return "Aktuell keine offenen Rechnungen. ✅", nil
	}

	var b strings.Builder
	b.WriteString("*Offene Rechnungen:*\n\n")
	for _, inv := range open {
		fmt.Fprintf(&b, "• %s - %s: %.2f€\n", inv.InvoiceNumber, inv.GuestName, inv.TotalAmount)
	}
	return b.String(), nil
}

func (s *InvoiceService) writeTempPdf(number string, content []byte) (filePath, fileName string, err error) {
	if err := os.MkdirAll(s.tempPath, 0o755); err != nil {
		return "", "", fmt.Errorf("create temp dir: %w", err)
	}

	fileName = fmt.Sprintf("Rechnung_%s.pdf", number)
	filePath = filepath.Join(s.tempPath, fileName)
	if err := os.WriteFile(filePath, content, 0o644); err != nil {
		return "", "", fmt.Errorf("write pdf: %w", err)
	}

	return filePath, fileName, nil
}

// sendInvoiceMail emails the rendered PDF to the guest. Best effort:
// a failure is logged and the chat delivery proceeds.
func (s *InvoiceService) sendInvoiceMail(settings *models.Settings, guest *models.Guest, data *models.InvoiceData, filePath string) {
	if s.mailer == nil || !settings.SMTP.Configured() || guest.Email == "" {
		return
	}

	subject := fmt.Sprintf("Rechnung %s", data.RNummer)
	body := fmt.Sprintf("Guten Tag %s,\n\nanbei Ihre Rechnung %s.\n\nMit freundlichen Grüßen\n%s",
		data.GName, data.RNummer, data.VName)

	if err := s.mailer.SendInvoice(settings.SMTP, guest.Email, subject, body, filePath); err != nil {
		s.logger.Warn().Err(err).Str("to", guest.Email).Str("invoice", data.RNummer).Msg("invoice mail failed")
		return
	}

	s.logger.Info().Str("to", guest.Email).Str("invoice", data.RNummer).Msg("invoice mailed")
}

func (s *InvoiceService) publishInvoiceCreated(data *models.InvoiceData) {
	if s.eventBus == nil {
		return
	}

	payload := events.InvoiceEventPayload{
		InvoiceNumber: data.RNummer,
		GuestName:     data.GName,
		Arrival:       data.AAnreise,
		Departure:     data.AAbreise,
		TotalAmount:   data.Total(),
	}

	if err := s.eventBus.PublishJSON(events.EventInvoiceCreated, payload); err != nil {
		s.logger.Error().Err(err).Str("invoice", data.RNummer).Msg("publish event error")
	}
}

func (s *InvoiceService) publishPinIssued(req models.BookingRequest, arrival, departure string, reused bool) {
	if s.eventBus == nil {
		return
	}

	payload := events.PinEventPayload{
		GuestName: req.GuestName,
		Arrival:   arrival,
		Departure: departure,
		Reused:    reused,
	}

	if err := s.eventBus.PublishJSON(events.EventPinIssued, payload); err != nil {
		s.logger.Error().Err(err).Str("guest", req.GuestName).Msg("publish event error")
	}
}
