package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mietbot/internal/domain"
	"mietbot/internal/events"
	"mietbot/internal/models"

	ics "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"
)

const (
	maxFeedBytes          = 5 * 1024 * 1024
	maxSummaryLength      = 500
	maxDescriptionLength  = 2000
	defaultBookingSummary = "Buchung"
)

// BookingStore is the subset of the repository the calendar sync needs.
type BookingStore interface {
	GetAllSettings(ctx context.Context) (*models.Settings, error)
	UpsertBooking(ctx context.Context, booking *models.Booking) (bool, error)
}

// IcalWorker polls the booking calendar feed and mirrors its events
// into the bookings table. New stays are announced on the event bus.
type IcalWorker struct {
	repo         BookingStore
	eventBus     domain.EventPublisher
	httpClient   *http.Client
	pollInterval time.Duration
	retryPolicy  RetryPolicy
	logger       *zerolog.Logger
}

func NewIcalWorker(repo BookingStore, eventBus domain.EventPublisher, pollInterval time.Duration, logger *zerolog.Logger) *IcalWorker {
	if pollInterval <= 0 {
		pollInterval = time.Duration(models.DefaultIcalPollMinutes) * time.Minute
	}
	return &IcalWorker{
		repo:     repo,
		eventBus: eventBus,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		pollInterval: pollInterval,
		retryPolicy:  defaultFetchRetryPolicy(),
		logger:       logger,
	}
}

// Run polls until the context is cancelled. The first sync happens
// immediately.
func (w *IcalWorker) Run(ctx context.Context) {
	w.logger.Info().Dur("interval", w.pollInterval).Msg("ical worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.syncWithLogging(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("ical worker stopped")
			return
		case <-ticker.C:
			w.syncWithLogging(ctx)
		}
	}
}

func (w *IcalWorker) syncWithLogging(ctx context.Context) {
	imported, err := w.SyncOnce(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("ical sync failed")
		return
	}
	if imported > 0 {
		w.logger.Info().Int("new_bookings", imported).Msg("ical sync imported bookings")
	}
}

// SyncOnce fetches the configured feed and upserts every event.
// Returns the number of newly inserted bookings. A missing feed URL is
// not an error, the worker just idles.
func (w *IcalWorker) SyncOnce(ctx context.Context) (int, error) {
	settings, err := w.repo.GetAllSettings(ctx)
	if err != nil {
		return 0, fmt.Errorf("load settings: %w", err)
	}
	if settings.BookingIcal == "" {
		return 0, nil
	}

	body, err := w.fetchFeed(ctx, settings.BookingIcal)
	if err != nil {
		return 0, err
	}

	cal, err := ics.ParseCalendar(strings.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("parse calendar: %w", err)
	}

	imported := 0
	for _, event := range cal.Events() {
		booking, ok := w.bookingFromEvent(event)
		if !ok {
			continue
		}

		inserted, err := w.repo.UpsertBooking(ctx, booking)
		if err != nil {
			w.logger.Error().Err(err).Str("uid", booking.UID).Msg("booking upsert failed")
			continue
		}
		if !inserted {
			continue
		}

		imported++
		w.publishImported(booking)
	}

	return imported, nil
}

// fetchFeed downloads the feed, retrying transient failures with
// backoff.
func (w *IcalWorker) fetchFeed(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		body, err := w.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt < w.retryPolicy.MaxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(w.retryPolicy.NextDelay(attempt)):
			}
		}
	}

	return "", fmt.Errorf("fetch feed after %d attempts: %w", w.retryPolicy.MaxRetries, lastErr)
}

func (w *IcalWorker) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "RentalInvoice/1.0")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (w *IcalWorker) bookingFromEvent(event *ics.VEvent) (*models.Booking, bool) {
	uid := event.Id()
	if uid == "" {
		return nil, false
	}

	booking := &models.Booking{
		UID:         uid,
		Summary:     clip(propValue(event, ics.ComponentPropertySummary, defaultBookingSummary), maxSummaryLength),
		Description: clip(propValue(event, ics.ComponentPropertyDescription, ""), maxDescriptionLength),
	}

	if start, err := eventStart(event); err == nil {
		booking.Checkin = start.UTC().Format("2006-01-02")
	}
	if end, err := eventEnd(event); err == nil {
		booking.Checkout = end.UTC().Format("2006-01-02")
	}

	return booking, true
}

func (w *IcalWorker) publishImported(booking *models.Booking) {
	if w.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		Summary:   booking.Summary,
		Checkin:   booking.Checkin,
		Checkout:  booking.Checkout,
	}
	if err := w.eventBus.PublishJSON(events.EventBookingImported, payload); err != nil {
		w.logger.Error().Err(err).Str("uid", booking.UID).Msg("publish event error")
	}
}

// eventStart tolerates both timed and all-day events.
func eventStart(event *ics.VEvent) (time.Time, error) {
	if t, err := event.GetStartAt(); err == nil {
		return t, nil
	}
	return event.GetAllDayStartAt()
}

func eventEnd(event *ics.VEvent) (time.Time, error) {
	if t, err := event.GetEndAt(); err == nil {
		return t, nil
	}
	return event.GetAllDayEndAt()
}

func propValue(event *ics.VEvent, prop ics.ComponentProperty, fallback string) string {
	p := event.GetProperty(prop)
	if p == nil || p.Value == "" {
		return fallback
	}
	return p.Value
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
