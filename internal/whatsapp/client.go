package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mietbot/internal/config"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client sends outbound messages through the WhatsApp Cloud API.
// Every send passes the shared rate limiter first.
type Client struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
	limiter       *rate.Limiter
	logger        *zerolog.Logger
}

func NewClient(cfg config.WhatsAppConfig, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.APIBaseURL, "/"),
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		logger:  logger,
	}
}

type textMessage struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

type textPayload struct {
	Body string `json:"body"`
}

type documentMessage struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Document         documentPayload `json:"document"`
}

type documentPayload struct {
	ID       string `json:"id"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type mediaResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SendText delivers a plain text message to the given phone number.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	msg := textMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textPayload{Body: body},
	}
	return c.post(ctx, c.messagesURL(), msg)
}

// SendDocument uploads the file to the media endpoint and sends it as
// a document message with the caption.
func (c *Client) SendDocument(ctx context.Context, to, filePath, fileName, caption string) error {
	mediaID, err := c.uploadMedia(ctx, filePath)
	if err != nil {
		return fmt.Errorf("upload media: %w", err)
	}

	msg := documentMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "document",
		Document: documentPayload{
			ID:       mediaID,
			Caption:  caption,
			Filename: fileName,
		},
	}
	return c.post(ctx, c.messagesURL(), msg)
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
}

func (c *Client) post(ctx context.Context, url string, payload interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode, readAPIError(resp.Body))
	}

	c.logger.Debug().Str("url", url).Msg("whatsapp message sent")
	return nil
}

func (c *Client) uploadMedia(ctx context.Context, filePath string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/media", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("media upload status %d: %s", resp.StatusCode, readAPIError(resp.Body))
	}

	var media mediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return "", err
	}
	if media.ID == "" {
		return "", fmt.Errorf("media upload returned empty id")
	}
	return media.ID, nil
}

func readAPIError(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "unreadable body"
	}

	var parsed apiError
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
