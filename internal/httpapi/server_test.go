package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"drivetrain.fyi/forecourt/internal/syncer"
)

type stubRunner struct {
	result    syncer.Result
	err       error
	lastLimit int
}

func (s *stubRunner) SyncPending(_ context.Context, limit int) (syncer.Result, error) {
	s.lastLimit = limit
	return s.result, s.err
}

func TestParsePagination(t *testing.T) {
	t.Parallel()

	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/sync-events?page=3&page_size=50", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	page, pageSize, err := parsePagination(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 3 || pageSize != 50 {
		t.Fatalf("unexpected pagination: page=%d page_size=%d", page, pageSize)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sync-events", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	page, pageSize, err = parsePagination(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || pageSize != defaultPageSize {
		t.Fatalf("unexpected defaults: page=%d page_size=%d", page, pageSize)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sync-events?page_size=9999", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	_, pageSize, err = parsePagination(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pageSize != maxPageSize {
		t.Fatalf("expected page_size capped at %d, got %d", maxPageSize, pageSize)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sync-events?page=0", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	if _, _, err = parsePagination(c); err == nil {
		t.Fatalf("expected error for page=0")
	}
}

func TestHandleRunSync(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{result: syncer.Result{Processed: 2, Created: 1, Updated: 1}}
	server := NewServer(nil, runner, zerolog.Nop(), Options{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader(`{"limit":25}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := server.handleRunSync(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if runner.lastLimit != 25 {
		t.Fatalf("expected limit 25, got %d", runner.lastLimit)
	}

	var body struct {
		Status string         `json:"status"`
		Data   map[string]int `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "success" || body.Data["processed"] != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHandleRunSyncDefaultsLimit(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	server := NewServer(nil, runner, zerolog.Nop(), Options{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := server.handleRunSync(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.lastLimit != defaultSyncLimit {
		t.Fatalf("expected default limit, got %d", runner.lastLimit)
	}
}

func TestHandleRunSyncRejectsOversizedLimit(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	server := NewServer(nil, runner, zerolog.Nop(), Options{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader(`{"limit":100000}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := server.handleRunSync(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if runner.lastLimit != 0 {
		t.Fatalf("runner should not have been called")
	}
}
