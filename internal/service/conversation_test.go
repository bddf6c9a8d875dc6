package service

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"mietbot/internal/domain"
	"mietbot/internal/models"
	"mietbot/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestConversation(t *testing.T) (*ConversationService, *repository.MemoryStateRepository, *mockFinalizer) {
	t.Helper()
	states := repository.NewMemoryStateRepository(time.Hour)
	finalizer := new(mockFinalizer)
	logger := zerolog.New(io.Discard)
	svc := NewConversationService(states, finalizer, DefaultPrompts(), &logger)
	return svc, states, finalizer
}

func replyTexts(replies []domain.Reply) []string {
	texts := make([]string, 0, len(replies))
	for _, r := range replies {
		texts = append(texts, r.Text)
	}
	return texts
}

func TestConversationOneShotInvoice(t *testing.T) {
	ctx := context.Background()
	svc, states, finalizer := newTestConversation(t)

	expected := models.BookingRequest{
		GuestName:    "Max Mustermann",
		GuestAddress: "Hauptstr. 1, 12345 Berlin",
		Arrival:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Departure:    time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
	}
	doc := &domain.Document{FileName: "Rechnung_2026-001.pdf", Caption: "✅ Rechnung 2026-001 erstellt."}
	finalizer.On("FinalizeInvoice", ctx, expected).Return(doc, nil).Once()

	replies := svc.HandleMessage(ctx, models.ChannelTelegram, "100",
		"Max Mustermann\nHauptstr. 1, 12345 Berlin\n15.03. - 20.03.2026")

	require.Len(t, replies, 2)
	assert.Equal(t, "⏳ Erstelle Rechnung...", replies[0].Text)
	assert.Equal(t, doc, replies[1].Document)

	// Завершённый поток не оставляет сессии
	session, err := states.GetSession(ctx, models.ChannelTelegram, "100")
	require.NoError(t, err)
	assert.Nil(t, session)

	finalizer.AssertExpectations(t)
}

func TestConversationInvoiceStepByStep(t *testing.T) {
	ctx := context.Background()
	svc, _, finalizer := newTestConversation(t)
	sender := "200"

	year := time.Now().Year()
	expected := models.BookingRequest{
		GuestName:    "Anna Beispiel",
		GuestAddress: "Musterweg 2",
		Arrival:      time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC),
		Departure:    time.Date(year, 6, 5, 0, 0, 0, 0, time.UTC),
	}
	finalizer.On("FinalizeInvoice", ctx, expected).Return(&domain.Document{}, nil).Once()

	replies := svc.HandleMessage(ctx, models.ChannelTelegram, sender, "Rechnung")
	require.Len(t, replies, 1)
	assert.Equal(t, "Für wen ist die Rechnung? (Bitte Vor- und Nachname angeben)", replies[0].Text)

	replies = svc.HandleMessage(ctx, models.ChannelTelegram, sender, "Anna Beispiel")
	require.Len(t, replies, 1)
	assert.Equal(t, "Wie lautet die Adresse?", replies[0].Text)

	replies = svc.HandleMessage(ctx, models.ChannelTelegram, sender, "Musterweg 2")
	require.Len(t, replies, 1)
	assert.Equal(t, "Für welchen Zeitraum? (z.B. 15.03. - 20.03.2026)", replies[0].Text)

	replies = svc.HandleMessage(ctx, models.ChannelTelegram, sender, "01.06.-05.06.")
	require.Len(t, replies, 2)

	finalizer.AssertExpectations(t)
}

func TestConversationPinFlow(t *testing.T) {
	ctx := context.Background()
	svc, _, finalizer := newTestConversation(t)
	sender := "300"

	finalizer.On("FinalizePin", ctx, mock.AnythingOfType("models.BookingRequest")).
		Return("✅ Tür-Code: *456789*", nil).Once()

	replies := svc.HandleMessage(ctx, models.ChannelTelegram, sender, "Pin")
	require.Len(t, replies, 1)
	assert.Equal(t, "Für wen soll der Tür-Code erstellt werden?", replies[0].Text)

	replies = svc.HandleMessage(ctx, models.ChannelTelegram, sender, "Anna Beispiel")
	require.Len(t, replies, 1)
	// Pin-поток пропускает адрес
	assert.Equal(t, "Für welchen Zeitraum? (z.B. 15.03. - 20.03.)", replies[0].Text)

	replies = svc.HandleMessage(ctx, models.ChannelTelegram, sender, "15.03. - 20.03.")
	require.Len(t, replies, 2)
	assert.Equal(t, "⏳ Generiere Nuki-PIN...", replies[0].Text)
	assert.Equal(t, "✅ Tür-Code: *456789*", replies[1].Text)

	finalizer.AssertExpectations(t)
}

func TestConversationPinFailureReachesUser(t *testing.T) {
	ctx := context.Background()
	svc, _, finalizer := newTestConversation(t)

	finalizer.On("FinalizePin", ctx, mock.AnythingOfType("models.BookingRequest")).
		Return("", fmt.Errorf("%w: unauthorized", ErrLockFailed)).Once()

	replies := svc.HandleMessage(ctx, models.ChannelTelegram, "310", "Pin Anna 15.03. - 20.03.")

	require.Len(t, replies, 2)
	assert.Equal(t, "❌ Nuki Fehler: unauthorized", replies[1].Text)
}

func TestConversationDatesRepromptKeepsSession(t *testing.T) {
	ctx := context.Background()
	svc, states, _ := newTestConversation(t)
	sender := "400"

	svc.HandleMessage(ctx, models.ChannelTelegram, sender, "Rechnung")
	svc.HandleMessage(ctx, models.ChannelTelegram, sender, "Anna Beispiel")
	svc.HandleMessage(ctx, models.ChannelTelegram, sender, "Musterweg 2")

	before, err := states.GetSession(ctx, models.ChannelTelegram, sender)
	require.NoError(t, err)
	require.NotNil(t, before)
	require.Equal(t, models.AwaitingDates, before.Awaiting)
	beforeRequest := before.Request

	replies := svc.HandleMessage(ctx, models.ChannelTelegram, sender, "irgendwann im Sommer")
	require.Len(t, replies, 1)
	assert.Equal(t, "Zeitraum nicht erkannt. Bitte DD.MM. - DD.MM.YYYY.", replies[0].Text)

	// Сессия не продвинулась и данные не потеряны
	after, err := states.GetSession(ctx, models.ChannelTelegram, sender)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, models.AwaitingDates, after.Awaiting)
	assert.Equal(t, beforeRequest, after.Request)
}

func TestConversationCancel(t *testing.T) {
	ctx := context.Background()
	svc, states, _ := newTestConversation(t)
	sender := "500"

	svc.HandleMessage(ctx, models.ChannelTelegram, sender, "Rechnung")

	replies := svc.HandleMessage(ctx, models.ChannelTelegram, sender, "Abbrechen")
	require.Len(t, replies, 1)
	assert.Equal(t, "Vorgang abgebrochen.", replies[0].Text)

	session, err := states.GetSession(ctx, models.ChannelTelegram, sender)
	require.NoError(t, err)
	assert.Nil(t, session)

	// Следующее сообщение начинает новый поток с нуля
	replies = svc.HandleMessage(ctx, models.ChannelTelegram, sender, "Rechnung")
	require.Len(t, replies, 1)
	assert.Equal(t, "Für wen ist die Rechnung? (Bitte Vor- und Nachname angeben)", replies[0].Text)
}

func TestConversationChannelsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc, states, _ := newTestConversation(t)

	svc.HandleMessage(ctx, models.ChannelTelegram, "600", "Rechnung")
	svc.HandleMessage(ctx, models.ChannelWhatsApp, "600", "Pin")

	tg, err := states.GetSession(ctx, models.ChannelTelegram, "600")
	require.NoError(t, err)
	require.NotNil(t, tg)
	assert.Equal(t, models.IntentInvoice, tg.Intent)

	wa, err := states.GetSession(ctx, models.ChannelWhatsApp, "600")
	require.NoError(t, err)
	require.NotNil(t, wa)
	assert.Equal(t, models.IntentPinOnly, wa.Intent)
}

func TestConversationStatusAndHelp(t *testing.T) {
	ctx := context.Background()
	svc, _, finalizer := newTestConversation(t)

	finalizer.On("StatusText", ctx).Return("Aktuell keine offenen Rechnungen. ✅", nil).Once()

	replies := svc.HandleMessage(ctx, models.ChannelTelegram, "700", "Status")
	require.Len(t, replies, 1)
	assert.Equal(t, "Aktuell keine offenen Rechnungen. ✅", replies[0].Text)

	replies = svc.HandleMessage(ctx, models.ChannelTelegram, "700", "Hilfe")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Buchungs-Assistent")

	replies = svc.HandleMessage(ctx, models.ChannelTelegram, "700", "/help")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Buchungs-Assistent")

	finalizer.AssertExpectations(t)
}

func TestConversationUnknownSingleLine(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestConversation(t)

	replies := svc.HandleMessage(ctx, models.ChannelTelegram, "800", "Hallo")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "nicht verstanden")
}

func TestConversationUnsolicitedBookingText(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestConversation(t)

	// Дата без команды трактуется как попытка счёта
	replies := svc.HandleMessage(ctx, models.ChannelTelegram, "900", "Buchung 15.03. - 20.03.")
	require.Len(t, replies, 1)
	// Имя уже извлечено из первой строки, дальше спрашивается адрес
	assert.Equal(t, "Wie lautet die Adresse?", replies[0].Text)
}

func TestConversationEmptyMessage(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestConversation(t)

	assert.Empty(t, replyTexts(svc.HandleMessage(ctx, models.ChannelTelegram, "1000", "   ")))
}
