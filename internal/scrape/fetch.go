package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability/v2"
)

const (
	DefaultFetchTimeout  = 15 * time.Second
	DefaultBodyByteLimit = 4 * 1024 * 1024

	defaultUserAgent = "forecourt-scraper/1.0 (+https://drivetrain.fyi/forecourt)"
)

// FetchOptions controls HTTP behavior for dealer page fetches.
type FetchOptions struct {
	Timeout       time.Duration
	BodyByteLimit int64
	UserAgent     string
	HTTPClient    *http.Client
}

// Page is the readable content extracted from one dealer page.
type Page struct {
	SourceURL    string
	SourceDomain string
	Text         string
}

// FetchPage retrieves a dealer page and extracts its readable text content.
func FetchPage(ctx context.Context, pageURL string, opts FetchOptions) (*Page, error) {
	page := strings.TrimSpace(pageURL)
	if page == "" {
		return nil, fmt.Errorf("page URL is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	bodyLimit := opts.BodyByteLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyByteLimit
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, page, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.8")

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, bodyLimit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parsedURL, err := url.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	var text string
	contentType := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Type")))
	if strings.HasPrefix(contentType, "text/plain") {
		text = CleanText(string(body))
	} else {
		article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
		if err != nil {
			return nil, fmt.Errorf("readability parse: %w", err)
		}

		var renderedText bytes.Buffer
		if err := article.RenderText(&renderedText); err != nil {
			return nil, fmt.Errorf("render readability text: %w", err)
		}

		text = CleanText(renderedText.String())
		if text == "" {
			text = CleanText(article.Excerpt())
		}
	}

	if text == "" {
		return nil, fmt.Errorf("extracted empty content from %s", page)
	}

	return &Page{
		SourceURL:    page,
		SourceDomain: strings.ToLower(parsedURL.Hostname()),
		Text:         text,
	}, nil
}

// CleanText normalizes line endings and collapses extra in-line whitespace.
func CleanText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.Join(strings.Fields(strings.TrimSpace(line)), " ")
		if clean == "" {
			continue
		}
		paragraphs = append(paragraphs, clean)
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n\n"))
}
