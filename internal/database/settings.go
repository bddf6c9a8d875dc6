package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"mietbot/internal/models"
)

// GetSetting returns the raw JSON value for a key, or sql.ErrNoRows.
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting upserts a raw JSON value for a key.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

func (db *DB) getSettingJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := db.GetSetting(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to decode setting %s: %w", key, err)
	}
	return true, nil
}

// GetAllSettings assembles every settings block the bot flows need.
// Missing blocks fall back to zero values; pricing falls back to the
// dashboard defaults.
func (db *DB) GetAllSettings(ctx context.Context) (*models.Settings, error) {
	settings := &models.Settings{
		Pricing:      models.DefaultPricing(),
		ReminderDays: models.DefaultReminderDays,
	}

	if _, err := db.getSettingJSON(ctx, "vermieter", &settings.Vermieter); err != nil {
		return nil, err
	}
	if _, err := db.getSettingJSON(ctx, "bank", &settings.Bank); err != nil {
		return nil, err
	}
	if _, err := db.getSettingJSON(ctx, "pricing", &settings.Pricing); err != nil {
		return nil, err
	}
	if _, err := db.getSettingJSON(ctx, "smtp", &settings.SMTP); err != nil {
		return nil, err
	}
	if _, err := db.getSettingJSON(ctx, "nuki", &settings.Nuki); err != nil {
		return nil, err
	}
	if _, err := db.getSettingJSON(ctx, "branding", &settings.Branding); err != nil {
		return nil, err
	}
	if _, err := db.getSettingJSON(ctx, "tg_ids", &settings.TelegramIDs); err != nil {
		return nil, err
	}

	raw, err := db.GetSetting(ctx, "booking_ical")
	if err == nil {
		settings.BookingIcal = unquote(raw)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read setting booking_ical: %w", err)
	}

	raw, err = db.GetSetting(ctx, "reminder_days")
	if err == nil {
		if days, convErr := strconv.Atoi(unquote(raw)); convErr == nil && days > 0 {
			settings.ReminderDays = days
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read setting reminder_days: %w", err)
	}

	return settings, nil
}

// unquote tolerates values stored either as bare strings or as JSON
// strings (the dashboard writes both over its lifetime).
func unquote(raw string) string {
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s
	}
	return raw
}

// IsTelegramIDAuthorized checks the chat ID against the tg_ids setting.
func (db *DB) IsTelegramIDAuthorized(ctx context.Context, chatID int64) (bool, error) {
	var ids []string
	if _, err := db.getSettingJSON(ctx, "tg_ids", &ids); err != nil {
		return false, err
	}

	want := strconv.FormatInt(chatID, 10)
	for _, id := range ids {
		if id == want {
			return true, nil
		}
	}
	return false, nil
}

// AddPendingTelegramRequest files an access request for approval in the
// dashboard. A duplicate request is not an error.
func (db *DB) AddPendingTelegramRequest(ctx context.Context, chatID int64, name, username string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO telegram_requests (chat_id, name, username) VALUES (?, ?, ?)`,
		strconv.FormatInt(chatID, 10), name, username)
	if err != nil {
		return fmt.Errorf("failed to add telegram request: %w", err)
	}
	return nil
}

// IsWhatsAppSenderAuthorized checks the phone against the wa_ids
// setting. Unknown numbers are ignored by the transport.
func (db *DB) IsWhatsAppSenderAuthorized(ctx context.Context, phone string) (bool, error) {
	var ids []string
	if _, err := db.getSettingJSON(ctx, "wa_ids", &ids); err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == phone {
			return true, nil
		}
	}
	return false, nil
}

// LogNotification records an outbound notification attempt.
func (db *DB) LogNotification(ctx context.Context, kind, message, status string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO notifications (kind, message, status) VALUES (?, ?, ?)`,
		kind, message, status)
	if err != nil {
		return fmt.Errorf("failed to log notification: %w", err)
	}
	return nil
}
