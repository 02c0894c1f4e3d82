package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCleanTextCollapsesWhitespaceAndPreservesParagraphs(t *testing.T) {
	input := "  eVitara   Select \n\n From\t£29,999 \r\n\r\nIn stock "
	got := CleanText(input)
	want := "eVitara Select\n\nFrom £29,999\n\nIn stock"
	if got != want {
		t.Fatalf("CleanText mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestFetchPagePlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "forecourt") {
			t.Errorf("unexpected user agent: %q", ua)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Mokka GS Electric\nFrom £32,000"))
	}))
	defer server.Close()

	page, err := FetchPage(context.Background(), server.URL+"/stock", FetchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(page.Text, "Mokka GS Electric") {
		t.Fatalf("unexpected page text: %q", page.Text)
	}
	if page.SourceDomain != "127.0.0.1" {
		t.Fatalf("unexpected source domain: %q", page.SourceDomain)
	}
}

func TestFetchPageRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	if _, err := FetchPage(context.Background(), server.URL, FetchOptions{}); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestFetchPageRequiresURL(t *testing.T) {
	if _, err := FetchPage(context.Background(), "   ", FetchOptions{}); err == nil {
		t.Fatalf("expected error for blank URL")
	}
}
