package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestListRecordsWalksPages(t *testing.T) {
	t.Parallel()

	// Two full pages then a short one.
	total := defaultListPageSize*2 + 3
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("unexpected auth header: %q", got)
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			t.Errorf("missing page parameter")
		}

		start := (page - 1) * defaultListPageSize
		end := min(start+defaultListPageSize, total)
		records := make([]Record, 0, defaultListPageSize)
		for i := start; i < end; i++ {
			records = append(records, Record{ID: fmt.Sprintf("rec-%d", i), Title: fmt.Sprintf("Model %d", i)})
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"records": records, "total": total},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-123")
	records, err := client.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != total {
		t.Fatalf("expected %d records, got %d", total, len(records))
	}
	if records[0].ID != "rec-0" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
}

func TestCreateRecord(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/records" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var input RecordInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			t.Errorf("decode input: %v", err)
		}
		if input.Title != "eVitara Select 2WD" {
			t.Errorf("unexpected title: %q", input.Title)
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"record": Record{ID: "rec-9", Title: input.Title, Brand: input.Brand},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	record, err := client.CreateRecord(context.Background(), RecordInput{Title: "eVitara Select 2WD", Brand: "Suzuki"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.ID != "rec-9" {
		t.Fatalf("unexpected record id: %q", record.ID)
	}
}

func TestCreateRecordRequiresTitle(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:0", "")
	if _, err := client.CreateRecord(context.Background(), RecordInput{Title: "  "}); err == nil {
		t.Fatalf("expected error for blank title")
	}
}

func TestUpdateRecordNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	err := client.UpdateRecord(context.Background(), "missing", RecordInput{Title: "Corsa GS"})
	if err == nil {
		t.Fatalf("expected error for missing record")
	}
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestDoRejectsFailEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "fail",
			"message": "validation failed",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.ListRecords(context.Background()); err == nil {
		t.Fatalf("expected error for fail envelope")
	}
}
