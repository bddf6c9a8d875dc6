package bot

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"mietbot/internal/config"
	"mietbot/internal/domain"
	"mietbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the persistence slice the Telegram adapter needs: access
// control, reminders and the notification log.
type Store interface {
	GetAllSettings(ctx context.Context) (*models.Settings, error)
	IsTelegramIDAuthorized(ctx context.Context, chatID int64) (bool, error)
	AddPendingTelegramRequest(ctx context.Context, chatID int64, name, username string) error
	GetUpcomingBookings(ctx context.Context, days int) ([]*models.Booking, error)
	MarkReminderSent(ctx context.Context, bookingID int64) error
	GetExpiredNukiAuths(ctx context.Context) ([]*models.Booking, error)
	ClearNukiAuth(ctx context.Context, bookingID int64) error
	LogNotification(ctx context.Context, kind, message, status string) error
}

// WorkbookExporter writes the invoice overview and returns its path.
type WorkbookExporter interface {
	InvoicesWorkbook(ctx context.Context) (string, error)
}

type Bot struct {
	tg           TelegramAPI
	config       *config.Config
	stateService domain.StateManager
	conversation domain.Conversation
	store        Store
	lock         domain.LockProvider
	exporter     WorkbookExporter
	metrics      *Metrics
	logger       *zerolog.Logger
}

func NewBot(
	tg TelegramAPI,
	config *config.Config,
	stateService domain.StateManager,
	conversation domain.Conversation,
	store Store,
	lock domain.LockProvider,
	exporter WorkbookExporter,
	metrics *Metrics,
	logger *zerolog.Logger,
) *Bot {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tg:           tg,
		config:       config,
		stateService: stateService,
		conversation: conversation,
		store:        store,
		lock:         lock,
		exporter:     exporter,
		metrics:      metrics,
		logger:       logger,
	}
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tg.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tg.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.tg == nil {
		return
	}
	b.tg.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	// Создаем контекст для обработки каждого обновления
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		if update.Message == nil || update.Message.Chat == nil {
			return
		}

		chatID := update.Message.Chat.ID
		sender := strconv.FormatInt(chatID, 10)

		allowed, err := b.stateService.CheckRateLimit(updateCtx, models.ChannelTelegram, sender,
			b.config.Bot.RateLimitMessages, time.Duration(b.config.Bot.RateLimitWindow)*time.Second)
		if err != nil {
			l.Error().Err(err).Int64("chat_id", chatID).Msg("Rate limit check failed")
		} else if !allowed {
			l.Warn().Int64("chat_id", chatID).Msg("Rate limit exceeded")
			b.sendText(chatID, "⚠️ Du sendest zu viele Nachrichten. Bitte warte einen Moment.")
			return
		}

		b.handleMessage(updateCtx, update.Message)
	})
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	l := zerolog.Ctx(ctx)
	chatID := msg.Chat.ID
	body := strings.TrimSpace(msg.Text)
	if body == "" {
		return
	}

	if b.metrics != nil {
		b.metrics.MessagesProcessed.Inc()
	}

	l.Info().Int64("chat_id", chatID).Str("text", body).Msg("telegram message")

	authorized, err := b.store.IsTelegramIDAuthorized(ctx, chatID)
	if err != nil {
		l.Error().Err(err).Int64("chat_id", chatID).Msg("authorization check failed")
		return
	}

	lower := strings.ToLower(body)

	if !authorized {
		if lower == "/register" || lower == "/start" {
			b.handleRegister(ctx, msg)
			return
		}
		l.Warn().Int64("chat_id", chatID).Msg("Zugriff verweigert")
		b.sendText(chatID, "⛔ Zugriff verweigert.\nSende `/register` um eine Anfrage zu stellen.")
		return
	}

	switch lower {
	case "/register":
		if b.metrics != nil {
			b.metrics.CommandsProcessed.Inc()
		}
		b.sendMarkdown(chatID, "✅ *Du bist bereits registriert.*\nDein Zugriff ist aktiv.")
		return
	case "/start":
		if b.metrics != nil {
			b.metrics.CommandsProcessed.Inc()
		}
		// Приветствие совпадает со справкой
		body = "hilfe"
	case "export", "/export":
		if b.metrics != nil {
			b.metrics.CommandsProcessed.Inc()
		}
		b.handleExport(ctx, chatID)
		return
	}

	sender := strconv.FormatInt(chatID, 10)
	replies := b.conversation.HandleMessage(ctx, models.ChannelTelegram, sender, body)
	b.deliver(chatID, replies)
}

func (b *Bot) handleRegister(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	firstName := "Unbekannt"
	username := ""
	if msg.From != nil {
		if msg.From.FirstName != "" {
			firstName = msg.From.FirstName
		}
		username = msg.From.UserName
	}

	if err := b.store.AddPendingTelegramRequest(ctx, chatID, firstName, username); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("pending request save failed")
	}

	text := "🔒 *Zugriff angefragt*\n\nDeine ID `" + strconv.FormatInt(chatID, 10) +
		"` wurde an den Administrator gesendet.\nBitte schalte den Zugriff im Web-Interface (Einstellungen -> Telegram) frei."
	b.sendMarkdown(chatID, text)
}

func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	path, err := b.exporter.InvoicesWorkbook(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("export failed")
		b.sendText(chatID, "❌ Fehler: Export fehlgeschlagen.")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = "📊 Rechnungs-Export"
	if _, err := b.tg.Send(doc); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("path", path).Msg("export send failed")
	}
}

func (b *Bot) deliver(chatID int64, replies []domain.Reply) {
	for _, reply := range replies {
		if reply.Text != "" {
			b.sendMarkdown(chatID, reply.Text)
		}
		if reply.Document != nil {
			b.sendDocument(chatID, reply.Document)
		}
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send message error")
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send message error")
	}
}

func (b *Bot) sendDocument(chatID int64, document *domain.Document) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(document.FilePath))
	doc.Caption = document.Caption
	doc.ParseMode = tgbotapi.ModeMarkdown

	if _, err := b.tg.Send(doc); err != nil {
		b.logger.Error().Err(err).Str("file", document.FileName).Msg("send document error")
	} else if b.metrics != nil {
		b.metrics.DocumentsSent.Inc()
	}

	if document.Cleanup {
		if err := os.Remove(document.FilePath); err != nil && !os.IsNotExist(err) {
			b.logger.Warn().Err(err).Str("file", document.FilePath).Msg("temp file cleanup failed")
		}
	}
}
