package bot

import (
	"context"
	"fmt"
	"time"

	"mietbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// StartReminders schedules the daily morning run: arrival reminders
// plus revocation of expired door codes.
func (b *Bot) StartReminders(ctx context.Context) {
	if b == nil || b.tg == nil {
		return
	}

	go func() {
		hour := models.ReminderHour
		if b.config.Bot.ReminderTime != "" {
			var m int
			_, err := fmt.Sscanf(b.config.Bot.ReminderTime, "%d:%d", &hour, &m)
			if err != nil {
				b.logger.Error().Err(err).Str("reminder_time", b.config.Bot.ReminderTime).Msg("Invalid reminder time format")
				return
			}
		}

		// First wait until next reminder time local time, then tick every 24h.
		wait := timeUntilNextHour(hour)
		timer := time.NewTimer(wait)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				b.runDailyJobs(ctx)
				timer.Reset(24 * time.Hour)
			}
		}
	}()
}

func (b *Bot) runDailyJobs(ctx context.Context) {
	b.sendArrivalReminders(ctx)
	b.revokeExpiredCodes(ctx)
}

func (b *Bot) sendArrivalReminders(ctx context.Context) {
	days := models.DefaultReminderDays
	if settings, err := b.store.GetAllSettings(ctx); err == nil && settings.ReminderDays > 0 {
		days = settings.ReminderDays
	}

	bookings, err := b.store.GetUpcomingBookings(ctx, days)
	if err != nil {
		b.logger.Error().Err(err).Msg("reminder: get bookings error")
		return
	}

	for _, booking := range bookings {
		msgText := formatReminderMessage(booking)

		sent := b.notifyAdmins(msgText)
		if sent {
			if err := b.store.MarkReminderSent(ctx, booking.ID); err != nil {
				b.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("reminder: mark sent error")
			}
			if b.metrics != nil {
				b.metrics.RemindersSent.Inc()
			}
		}

		status := "sent"
		if !sent {
			status = "failed"
		}
		if err := b.store.LogNotification(ctx, "reminder", msgText, status); err != nil {
			b.logger.Error().Err(err).Msg("reminder: log notification error")
		}
	}

	if len(bookings) > 0 {
		b.logger.Info().Int("count", len(bookings)).Msg("arrival reminders processed")
	}
}

// revokeExpiredCodes deletes keypad authorizations whose stay ended.
func (b *Bot) revokeExpiredCodes(ctx context.Context) {
	if b.lock == nil {
		return
	}

	expired, err := b.store.GetExpiredNukiAuths(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("expired auth load error")
		return
	}

	for _, booking := range expired {
		if booking.NukiAuthID != "" {
			if err := b.lock.DeleteAuth(ctx, booking.NukiAuthID); err != nil {
				b.logger.Error().Err(err).Str("auth_id", booking.NukiAuthID).Msg("auth delete error")
				continue
			}
		}
		if err := b.store.ClearNukiAuth(ctx, booking.ID); err != nil {
			b.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("auth clear error")
		}
	}

	if len(expired) > 0 {
		b.logger.Info().Int("count", len(expired)).Msg("expired door codes revoked")
	}
}

// notifyAdmins sends the text to every configured admin chat. Returns
// true when at least one send succeeded.
func (b *Bot) notifyAdmins(text string) bool {
	sent := false
	for _, chatID := range b.config.Admins {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := b.tg.Send(msg); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("admin notify error")
			continue
		}
		sent = true
	}
	return sent
}

func formatReminderMessage(b *models.Booking) string {
	summary := b.Summary
	if summary == "" {
		summary = "Gast"
	}
	return fmt.Sprintf("⏰ Erinnerung: %s reist bald an!\n📅 Anreise: %s\n📅 Abreise: %s",
		summary, formatDateDE(b.Checkin), formatDateDE(b.Checkout))
}

// formatDateDE converts an ISO date to the German 02.01.2006 form.
// Anything unparseable passes through untouched.
func formatDateDE(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02.01.2006")
}

func timeUntilNextHour(hour int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
