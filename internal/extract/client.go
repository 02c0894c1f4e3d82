package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultRequestTimeout    = 90 * time.Second
	defaultResponseByteLimit = 8 * 1024 * 1024
)

// Client calls the external AI extraction endpoint, which turns raw page
// text into structured vehicle listings.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     zerolog.Logger
}

type extractRequest struct {
	PageText  string `json:"page_text"`
	SourceURL string `json:"source_url,omitempty"`
}

func NewClient(endpoint string, logger zerolog.Logger) *Client {
	return &Client{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}
}

// Extract sends page text to the extraction endpoint and returns the
// schema-validated listings.
func (c *Client) Extract(ctx context.Context, pageText, sourceURL string) (*Payload, error) {
	if c == nil || c.endpoint == "" {
		return nil, fmt.Errorf("extract client is not initialized")
	}
	text := strings.TrimSpace(pageText)
	if text == "" {
		return nil, fmt.Errorf("page text is required")
	}

	body, err := json.Marshal(extractRequest{
		PageText:  text,
		SourceURL: strings.TrimSpace(sourceURL),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call extract endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, defaultResponseByteLimit))
	if err != nil {
		return nil, fmt.Errorf("read extract response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("extract endpoint status %d: %s", resp.StatusCode, truncateForError(raw))
	}

	payload, err := ValidateListingPayload(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid extract response: %w", err)
	}

	c.logger.Debug().
		Int("listings", len(payload.Listings)).
		Dur("latency", time.Since(started)).
		Msg("extraction completed")

	return payload, nil
}

func truncateForError(raw []byte) string {
	const limit = 512
	text := strings.TrimSpace(string(raw))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
