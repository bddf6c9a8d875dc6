package bot

import (
	"context"
	"encoding/json"
	"fmt"

	"time"

	"mietbot/internal/events"
)

const notifyTimeout = 5 * time.Second

// SubscribeEvents wires the admin notifications onto the event bus.
// Calendar imports announce new stays in every admin chat.
func (b *Bot) SubscribeEvents(bus *events.EventBus) {
	if bus == nil {
		return
	}

	bus.Subscribe(events.EventBookingImported, func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			b.logger.Error().Err(err).Msg("booking event decode error")
			return err
		}

		msg := fmt.Sprintf("🏠 Neue Buchung!\n%s\n📅 %s – %s",
			payload.Summary, formatDateDE(payload.Checkin), formatDateDE(payload.Checkout))

		status := "sent"
		if !b.notifyAdmins(msg) {
			status = "failed"
		}

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := b.store.LogNotification(ctx, "new_booking", msg, status); err != nil {
			b.logger.Error().Err(err).Msg("notification log error")
		}
		return nil
	})

	if b.metrics == nil {
		return
	}

	bus.Subscribe(events.EventInvoiceCreated, func(ev *events.Event) error {
		b.metrics.InvoicesCreated.Inc()
		return nil
	})
	bus.Subscribe(events.EventPinIssued, func(ev *events.Event) error {
		b.metrics.PinsIssued.Inc()
		return nil
	})
}
