package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to the external HTML-to-PDF renderer.
type Client struct {
	rendererURL string
	httpClient  *http.Client
	logger      *zerolog.Logger
}

func NewClient(rendererURL string, logger *zerolog.Logger) *Client {
	return &Client{
		rendererURL: rendererURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		logger:      logger,
	}
}

type renderRequest struct {
	HTML string `json:"html"`
}

// Render posts the HTML and returns the PDF bytes.
func (c *Client) Render(ctx context.Context, html string) ([]byte, error) {
	body, err := json.Marshal(renderRequest{HTML: html})
	if err != nil {
		return nil, fmt.Errorf("marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rendererURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("renderer returned status %d: %s", resp.StatusCode, snippet)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pdf body: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("renderer returned empty body")
	}

	c.logger.Debug().Dur("duration", time.Since(start)).Int("bytes", len(content)).Msg("pdf rendered")

	return content, nil
}
