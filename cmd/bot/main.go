package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"mietbot/internal/bot"
	"mietbot/internal/config"
	"mietbot/internal/database"
	"mietbot/internal/events"
	"mietbot/internal/export"
	"mietbot/internal/logging"
	"mietbot/internal/mailer"
	"mietbot/internal/metrics"
	"mietbot/internal/nuki"
	"mietbot/internal/pdf"
	"mietbot/internal/repository"
	"mietbot/internal/service"
	"mietbot/internal/whatsapp"
	"mietbot/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	yamlv2 "gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateService := initStateService(ctx, cfg, &logger)
	defer repository.Close(redisClient)

	eventBus := events.NewEventBus()

	// Бизнес-слой
	lockClient := nuki.NewClient(db, "", &logger)
	pdfClient := pdf.NewClient(cfg.Pdf.RendererURL, &logger)
	mailService := mailer.New(&logger)
	invoiceService := service.NewInvoiceService(db, lockClient, pdfClient, mailService, eventBus, cfg.Pdf.TempPath, &logger)

	prompts := loadPrompts(&logger)
	conversation := service.NewConversationService(stateService, invoiceService, prompts, &logger)

	exporter := export.NewExporter(db, cfg.Exports.Path, &logger)
	metrics := bot.NewMetrics()

	// Синхронизация календаря бронирований
	icalWorker := worker.NewIcalWorker(db, eventBus, time.Duration(cfg.Bot.IcalPollMinutes)*time.Minute, &logger)
	go icalWorker.Run(ctx)

	if cfg.Monitoring.PrometheusEnabled {
		startMetricsServer(cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.WhatsApp.Enabled {
		waSender := whatsapp.NewClient(cfg.WhatsApp, &logger)
		waServer := whatsapp.NewServer(cfg.WhatsApp, db, conversation, waSender, &logger)
		go func() {
			if err := waServer.Start(); err != nil {
				logger.Error().Err(err).Msg("WhatsApp webhook server error")
			}
		}()
		defer func() {
			_ = waServer.Shutdown(context.Background())
		}()
	}

	return startBot(ctx, cfg, stateService, conversation, db, lockClient, exporter, eventBus, metrics, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
}

// loadPrompts overlays configs/prompts.yaml onto the built-in texts.
// A missing file keeps the defaults.
func loadPrompts(logger *zerolog.Logger) service.Prompts {
	prompts := service.DefaultPrompts()

	promptsPath := os.Getenv("PROMPTS_PATH")
	if promptsPath == "" {
		promptsPath = "configs/prompts.yaml"
	}

	data, err := os.ReadFile(promptsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error().Err(err).Msgf("Ошибка чтения %s", promptsPath)
		}
		return prompts
	}

	var override service.Prompts
	if err := yamlv2.Unmarshal(data, &override); err != nil {
		logger.Error().Err(err).Msg("Ошибка парсинга prompts.yaml")
		return prompts
	}

	return prompts.Merge(override)
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	if err := os.MkdirAll(cfg.Pdf.TempPath, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания временной директории")
		return err
	}
	return nil
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	ttl := time.Duration(cfg.Bot.SessionTTL) * time.Second
	primaryRepo := repository.NewRedisStateRepository(redisClient, ttl)
	fallbackRepo := repository.NewMemoryStateRepository(ttl)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	metrics.Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Prometheus metrics listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	stateService *service.StateService,
	conversation *service.ConversationService,
	db *database.DB,
	lockClient *nuki.Client,
	exporter *export.Exporter,
	eventBus *events.EventBus,
	metrics *bot.Metrics,
	logger *zerolog.Logger,
) error {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)

	telegramBot := bot.NewBot(
		botWrapper, cfg, stateService, conversation,
		db, lockClient, exporter, metrics, logger,
	)
	telegramBot.SubscribeEvents(eventBus)

	logger.Info().Msg("Бот запущен...")
	telegramBot.StartReminders(ctx)
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}
