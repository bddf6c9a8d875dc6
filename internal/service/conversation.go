package service

import (
	"context"
	"strings"

	"mietbot/internal/domain"
	"mietbot/internal/models"
	"mietbot/internal/parser"

	"github.com/rs/zerolog"
)

// Prompts are the canned German questions and acknowledgments of the
// dialog. Deployments can override single texts via configs/prompts.yaml.
type Prompts struct {
	AskName        string `yaml:"ask_name"`
	AskAddress     string `yaml:"ask_address"`
	AskDates       string `yaml:"ask_dates"`
	AskPinName     string `yaml:"ask_pin_name"`
	AskPinDates    string `yaml:"ask_pin_dates"`
	DatesNotParsed string `yaml:"dates_not_parsed"`
	Cancelled      string `yaml:"cancelled"`
	NotUnderstood  string `yaml:"not_understood"`
	Help           string `yaml:"help"`
	WorkingInvoice string `yaml:"working_invoice"`
	WorkingPin     string `yaml:"working_pin"`
}

func DefaultPrompts() Prompts {
	return Prompts{
		AskName:        "Für wen ist die Rechnung? (Bitte Vor- und Nachname angeben)",
		AskAddress:     "Wie lautet die Adresse?",
		AskDates:       "Für welchen Zeitraum? (z.B. 15.03. - 20.03.2026)",
		AskPinName:     "Für wen soll der Tür-Code erstellt werden?",
		AskPinDates:    "Für welchen Zeitraum? (z.B. 15.03. - 20.03.)",
		DatesNotParsed: "Zeitraum nicht erkannt. Bitte DD.MM. - DD.MM.YYYY.",
		Cancelled:      "Vorgang abgebrochen.",
		NotUnderstood:  "Befehl nicht verstanden. Sende \"Hilfe\" für eine Übersicht.",
		Help: "*Buchungs-Assistent* 🏠\n\n" +
			"• Rechnung [Name]\n" +
			"• Pin [Name]\n" +
			"• Status\n" +
			"• Hilfe\n\n" +
			"Du kannst auch einfach Buchungstexte senden!",
		WorkingInvoice: "⏳ Erstelle Rechnung...",
		WorkingPin:     "⏳ Generiere Nuki-PIN...",
	}
}

// Merge overlays non-empty override texts onto p.
func (p Prompts) Merge(override Prompts) Prompts {
	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	merge(&p.AskName, override.AskName)
	merge(&p.AskAddress, override.AskAddress)
	merge(&p.AskDates, override.AskDates)
	merge(&p.AskPinName, override.AskPinName)
	merge(&p.AskPinDates, override.AskPinDates)
	merge(&p.DatesNotParsed, override.DatesNotParsed)
	merge(&p.Cancelled, override.Cancelled)
	merge(&p.NotUnderstood, override.NotUnderstood)
	merge(&p.Help, override.Help)
	merge(&p.WorkingInvoice, override.WorkingInvoice)
	merge(&p.WorkingPin, override.WorkingPin)
	return p
}

// Finalizer completes a gathered booking request.
type Finalizer interface {
	FinalizeInvoice(ctx context.Context, req models.BookingRequest) (*domain.Document, error)
	FinalizePin(ctx context.Context, req models.BookingRequest) (string, error)
	StatusText(ctx context.Context) (string, error)
}

// ConversationService is the transport-agnostic dialog core. Adapters
// hand it (channel, sender, text); it reads and writes the session and
// returns the replies to deliver in order.
type ConversationService struct {
	states    domain.StateManager
	finalizer Finalizer
	prompts   Prompts
	logger    *zerolog.Logger
}

func NewConversationService(states domain.StateManager, finalizer Finalizer, prompts Prompts, logger *zerolog.Logger) *ConversationService {
	return &ConversationService{
		states:    states,
		finalizer: finalizer,
		prompts:   prompts,
		logger:    logger,
	}
}

func (c *ConversationService) HandleMessage(ctx context.Context, channel, sender, text string) []domain.Reply {
	body := strings.TrimSpace(text)
	if body == "" {
		return nil
	}

	// Отмена работает из любого состояния
	if strings.EqualFold(body, "abbrechen") {
		if err := c.states.ClearSession(ctx, channel, sender); err != nil {
			c.logger.Error().Err(err).Str("sender", sender).Msg("clear session on cancel")
		}
		return []domain.Reply{{Text: c.prompts.Cancelled}}
	}

	session, err := c.states.GetSession(ctx, channel, sender)
	if err != nil {
		// Хранилище недоступно: обрабатываем как новое сообщение
		session = nil
	}
	if session != nil {
		return c.handleFollowUp(ctx, session, body)
	}

	firstLine := strings.ToLower(strings.SplitN(body, "\n", 2)[0])

	switch {
	case strings.Contains(firstLine, "rechnung"):
		return c.startFlow(ctx, channel, sender, models.IntentInvoice, body)
	case strings.Contains(firstLine, "status"):
		return c.statusReply(ctx)
	case strings.Contains(firstLine, "pin"):
		return c.startFlow(ctx, channel, sender, models.IntentPinOnly, parser.StripPinKeyword(body))
	case strings.Contains(firstLine, "hilfe"), firstLine == "/help":
		return []domain.Reply{{Text: c.prompts.Help}}
	case strings.Count(body, "\n") >= 1, parser.ContainsDateFragment(body):
		// Похоже на присланный текст брони: пробуем как счёт
		return c.startFlow(ctx, channel, sender, models.IntentInvoice, body)
	default:
		return []domain.Reply{{Text: c.prompts.NotUnderstood}}
	}
}

// startFlow parses the opening message and either asks for the first
// missing field or finalizes right away.
func (c *ConversationService) startFlow(ctx context.Context, channel, sender string, intent models.Intent, text string) []domain.Reply {
	session := &models.Session{
		Channel: channel,
		Sender:  sender,
		Intent:  intent,
		Request: parser.ParseBookingText(text),
	}
	return c.advance(ctx, session)
}

// handleFollowUp applies the message as the answer to the single
// awaited field, then advances.
func (c *ConversationService) handleFollowUp(ctx context.Context, session *models.Session, body string) []domain.Reply {
	switch session.Awaiting {
	case models.AwaitingName:
		session.Request.GuestName = body
	case models.AwaitingAddress:
		session.Request.GuestAddress = body
	case models.AwaitingDates:
		arrival, departure, ok := parser.ParseDateRange(body)
		if !ok {
			// Сессию не трогаем: тот же вопрос повторяется
			return []domain.Reply{{Text: c.prompts.DatesNotParsed}}
		}
		session.Request.Arrival = arrival
		session.Request.Departure = departure
	case models.AwaitingNone:
		// Не должно случаться: сохранённая сессия всегда ждёт поле
		c.logger.Warn().Str("sender", session.Sender).Msg("session without awaiting field")
	}

	return c.advance(ctx, session)
}

// advance asks for the next missing field in priority order
// name → address (invoice only) → dates, or finalizes when complete.
func (c *ConversationService) advance(ctx context.Context, session *models.Session) []domain.Reply {
	req := &session.Request

	ask := func(awaiting models.Awaiting, prompt string) []domain.Reply {
		session.Awaiting = awaiting
		if err := c.states.SetSession(ctx, session); err != nil {
			c.logger.Error().Err(err).Str("sender", session.Sender).Msg("persist session")
		}
		return []domain.Reply{{Text: prompt}}
	}

	switch session.Intent {
	case models.IntentPinOnly:
		if strings.TrimSpace(req.GuestName) == "" {
			return ask(models.AwaitingName, c.prompts.AskPinName)
		}
		if !req.HasDates() {
			return ask(models.AwaitingDates, c.prompts.AskPinDates)
		}
	default:
		if strings.TrimSpace(req.GuestName) == "" {
			return ask(models.AwaitingName, c.prompts.AskName)
		}
		if strings.TrimSpace(req.GuestAddress) == "" {
			return ask(models.AwaitingAddress, c.prompts.AskAddress)
		}
		if !req.HasDates() {
			return ask(models.AwaitingDates, c.prompts.AskDates)
		}
	}

	if err := c.states.ClearSession(ctx, session.Channel, session.Sender); err != nil {
		c.logger.Error().Err(err).Str("sender", session.Sender).Msg("clear session on completion")
	}

	return c.finalize(ctx, session.Intent, session.Request)
}

func (c *ConversationService) finalize(ctx context.Context, intent models.Intent, req models.BookingRequest) []domain.Reply {
	if intent == models.IntentPinOnly {
		replies := []domain.Reply{{Text: c.prompts.WorkingPin}}
		text, err := c.finalizer.FinalizePin(ctx, req)
		if err != nil {
			return append(replies, domain.Reply{Text: ErrorMessage(err)})
		}
		return append(replies, domain.Reply{Text: text})
	}

	replies := []domain.Reply{{Text: c.prompts.WorkingInvoice}}
	doc, err := c.finalizer.FinalizeInvoice(ctx, req)
	if err != nil {
		return append(replies, domain.Reply{Text: ErrorMessage(err)})
	}
	return append(replies, domain.Reply{Document: doc})
}

func (c *ConversationService) statusReply(ctx context.Context) []domain.Reply {
	text, err := c.finalizer.StatusText(ctx)
	if err != nil {
		return []domain.Reply{{Text: ErrorMessage(err)}}
	}
	return []domain.Reply{{Text: text}}
}
