package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultRequestTimeout    = 30 * time.Second
	defaultResponseByteLimit = 16 * 1024 * 1024
	defaultListPageSize      = 200
)

var ErrRecordNotFound = errors.New("cms record not found")

// IsNotFound reports whether err indicates a missing CMS record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}

// Record is a vehicle record as stored in the CMS.
type Record struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Brand    string `json:"brand,omitempty"`
	BodyType string `json:"body_type,omitempty"`
}

// RecordInput is the writable shape for create and update calls.
type RecordInput struct {
	Title       string   `json:"title"`
	Brand       string   `json:"brand,omitempty"`
	Description string   `json:"description,omitempty"`
	BodyType    string   `json:"body_type,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// Client is an HTTP client for the CMS record API. The CMS is a black box;
// this client only knows its list, create and update endpoints.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

type listData struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

type recordData struct {
	Record Record `json:"record"`
}

func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiToken:   strings.TrimSpace(apiToken),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// ListRecords fetches all vehicle records, walking the paginated list
// endpoint until it is exhausted.
func (c *Client) ListRecords(ctx context.Context) ([]Record, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("cms client is not initialized")
	}

	var records []Record
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", fmt.Sprintf("%d", page))
		query.Set("page_size", fmt.Sprintf("%d", defaultListPageSize))

		var data listData
		if err := c.do(ctx, http.MethodGet, "/api/records?"+query.Encode(), nil, &data); err != nil {
			return nil, fmt.Errorf("list records page %d: %w", page, err)
		}

		records = append(records, data.Records...)
		if len(data.Records) < defaultListPageSize {
			break
		}
	}

	return records, nil
}

// CreateRecord creates a new vehicle record and returns the stored copy.
func (c *Client) CreateRecord(ctx context.Context, input RecordInput) (*Record, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("cms client is not initialized")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("record title is required")
	}

	var data recordData
	if err := c.do(ctx, http.MethodPost, "/api/records", input, &data); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	if strings.TrimSpace(data.Record.ID) == "" {
		return nil, fmt.Errorf("create record: CMS returned no record id")
	}
	return &data.Record, nil
}

// UpdateRecord overwrites the writable fields of an existing record.
func (c *Client) UpdateRecord(ctx context.Context, recordID string, input RecordInput) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("cms client is not initialized")
	}
	id := strings.TrimSpace(recordID)
	if id == "" {
		return fmt.Errorf("record id is required")
	}

	var data recordData
	if err := c.do(ctx, http.MethodPatch, "/api/records/"+url.PathEscape(id), input, &data); err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call CMS: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, defaultResponseByteLimit))
	if err != nil {
		return fmt.Errorf("read CMS response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrRecordNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("CMS status %d: %s", resp.StatusCode, truncateForError(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode CMS envelope: %w", err)
	}
	if env.Status != "success" {
		return fmt.Errorf("CMS reported %q: %s", env.Status, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode CMS data: %w", err)
		}
	}
	return nil
}

func truncateForError(raw []byte) string {
	const limit = 512
	text := strings.TrimSpace(string(raw))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
