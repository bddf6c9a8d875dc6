// Package nuki provisions keypad codes through the Nuki Web API.
package nuki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"mietbot/internal/domain"
	"mietbot/internal/models"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.nuki.io"

// keypadAuthType is the Nuki authorization type for keypad codes.
const keypadAuthType = 13

// SettingsSource delivers the API token and lock id, which live in the
// settings table and can change at runtime.
type SettingsSource interface {
	GetAllSettings(ctx context.Context) (*models.Settings, error)
}

// Client implements domain.LockProvider against api.nuki.io.
type Client struct {
	settings   SettingsSource
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(settings SettingsSource, baseURL string, logger *zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		settings:   settings,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type authRequest struct {
	Name             string   `json:"name"`
	AllowedFromDate  string   `json:"allowedFromDate"`
	AllowedUntilDate string   `json:"allowedUntilDate"`
	AllowedWeekDays  int      `json:"allowedWeekDays"`
	AllowedFromTime  int      `json:"allowedFromTime"`
	AllowedUntilTime int      `json:"allowedUntilTime"`
	Type             int      `json:"type"`
	Code             string   `json:"code"`
	SmartlockIDs     []string `json:"smartlockIds"`
}

type authResponse struct {
	ID string `json:"id"`
}

// CreatePin registers a fresh keypad code valid from check-in 15:00 to
// check-out 11:00.
func (c *Client) CreatePin(ctx context.Context, guestName string, arrival, departure time.Time) (*domain.LockCode, error) {
	settings, err := c.settings.GetAllSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load nuki settings: %w", err)
	}
	if settings.Nuki.Token == "" || settings.Nuki.LockID == "" {
		return nil, fmt.Errorf("nuki token or lock id not configured")
	}

	code := GeneratePin()

	payload := authRequest{
		Name:             authName(guestName),
		AllowedFromDate:  arrival.Format("2006-01-02") + "T15:00:00.000Z",
		AllowedUntilDate: departure.Format("2006-01-02") + "T11:00:00.000Z",
		AllowedWeekDays:  127,
		Type:             keypadAuthType,
		Code:             code,
		SmartlockIDs:     []string{settings.Nuki.LockID},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/smartlock/auth", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+settings.Nuki.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nuki request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("nuki returned status %d: %s", resp.StatusCode, apiErrorMessage(resp.Body))
	}

	// 204 без тела это нормальный ответ, auth id тогда неизвестен
	var created authResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil && err != io.EOF {
		c.logger.Debug().Err(err).Msg("nuki auth response not decodable")
	}

	c.logger.Info().Str("guest", guestName).Str("auth_id", created.ID).Msg("keypad code created")

	return &domain.LockCode{PIN: code, AuthID: created.ID}, nil
}

// DeleteAuth revokes a keypad authorization, used once the stay is over.
func (c *Client) DeleteAuth(ctx context.Context, authID string) error {
	settings, err := c.settings.GetAllSettings(ctx)
	if err != nil {
		return fmt.Errorf("load nuki settings: %w", err)
	}
	if settings.Nuki.Token == "" {
		return fmt.Errorf("nuki token not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/smartlock/auth/"+authID, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+settings.Nuki.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nuki request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("nuki returned status %d: %s", resp.StatusCode, apiErrorMessage(resp.Body))
	}

	return nil
}

// GeneratePin builds a 6-digit keypad code. The keypad has no zero key
// and rejects codes starting with "12" (emergency number).
func GeneratePin() string {
	for {
		digits := make([]byte, 6)
		for i := range digits {
			digits[i] = byte('1' + rand.Intn(9))
		}
		pin := string(digits)
		if !strings.HasPrefix(pin, "12") {
			return pin
		}
	}
}

// authName builds the authorization label, capped at the API limit of
// 20 characters.
func authName(guestName string) string {
	name := []rune("Gast: " + guestName)
	if len(name) > 20 {
		name = name[:20]
	}
	return string(name)
}

func apiErrorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 512))

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(raw))
}
