package config

import (
	"errors"
	"fmt"
	"os"

	"mietbot/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	WhatsApp   WhatsAppConfig   `yaml:"whatsapp"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Pdf        PdfConfig        `yaml:"pdf"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Bot        BotConfig        `yaml:"bot"`
	Admins     []int64          `yaml:"admins"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

// WhatsAppConfig drives the Cloud API adapter. The webhook listens for
// inbound messages; outbound sends go through the Graph API.
type WhatsAppConfig struct {
	Enabled        bool    `yaml:"enabled"`
	AccessToken    string  `yaml:"access_token"`
	PhoneNumberID  string  `yaml:"phone_number_id"`
	VerifyToken    string  `yaml:"verify_token"`
	WebhookPort    int     `yaml:"webhook_port"`
	APIBaseURL     string  `yaml:"api_base_url"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type PdfConfig struct {
	RendererURL string `yaml:"renderer_url"`
	TempPath    string `yaml:"temp_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type BotConfig struct {
	ReminderTime      string `yaml:"reminder_time"`
	SessionTTL        int    `yaml:"session_ttl"`
	IcalPollMinutes   int    `yaml:"ical_poll_minutes"`
	RateLimitMessages int    `yaml:"rate_limit_messages"`
	RateLimitWindow   int    `yaml:"rate_limit_window"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env заполняет переменные окружения до подстановки в YAML
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.WhatsApp.Enabled {
		if c.WhatsApp.AccessToken == "" || c.WhatsApp.PhoneNumberID == "" {
			return errors.New("whatsapp access token and phone number id are required when whatsapp is enabled")
		}
		if c.WhatsApp.VerifyToken == "" {
			return errors.New("whatsapp verify token is required when whatsapp is enabled")
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Bot.SessionTTL == 0 {
		c.Bot.SessionTTL = models.DefaultSessionTTL
	}
	if c.Bot.IcalPollMinutes == 0 {
		c.Bot.IcalPollMinutes = models.DefaultIcalPollMinutes
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
	if c.Bot.ReminderTime == "" {
		c.Bot.ReminderTime = fmt.Sprintf("%02d:00", models.ReminderHour)
	}

	if c.WhatsApp.WebhookPort == 0 {
		c.WhatsApp.WebhookPort = 8090
	}
	if c.WhatsApp.APIBaseURL == "" {
		c.WhatsApp.APIBaseURL = "https://graph.facebook.com/v19.0"
	}
	if c.WhatsApp.RateLimitRPS == 0 {
		c.WhatsApp.RateLimitRPS = 5
	}
	if c.WhatsApp.RateLimitBurst == 0 {
		c.WhatsApp.RateLimitBurst = 10
	}

	if c.Pdf.TempPath == "" {
		c.Pdf.TempPath = "temp"
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
