package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPError_Error(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       string
	}{
		{"404 Not Found", 404, "not found (404)"},
		{"500 Internal Server Error", 500, "server error (500)"},
		{"503 Service Unavailable", 503, "server error (503)"},
		{"403 Forbidden", 403, "client error (403)"},
		{"400 Bad Request", 400, "client error (400)"},
		{"301 Moved Permanently", 301, "redirect not followed (301)"},
		{"302 Found", 302, "redirect not followed (302)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &HTTPError{StatusCode: tt.statusCode, URL: "https://example.com/test"}
			if got := err.Error(); got != tt.want {
				t.Errorf("HTTPError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPError_Category(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       string
	}{
		{"404 is dead link", 404, "dead link"},
		{"500 is retry-able", 500, "server error (retry-able)"},
		{"502 is retry-able", 502, "server error (retry-able)"},
		{"503 is retry-able", 503, "server error (retry-able)"},
		{"408 is timeout", 408, "timeout"},
		{"504 is timeout", 504, "timeout"},
		{"403 is http error", 403, "http error"},
		{"400 is http error", 400, "http error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &HTTPError{StatusCode: tt.statusCode, URL: "https://example.com/test"}
			if got := err.Category(); got != tt.want {
				t.Errorf("HTTPError.Category() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	c := New(Config{MinSpacing: -1})
	res, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", res.StatusCode)
	}
	if res.ContentType != "text/html" {
		t.Errorf("ContentType = %q, want text/html", res.ContentType)
	}
	if string(res.Body) != "<html></html>" {
		t.Errorf("Body = %q", res.Body)
	}
}

func TestFetchNonRetryableStatus(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{MinSpacing: -1})
	_, err := c.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", httpErr.StatusCode)
	}
	if hits != 1 {
		t.Errorf("expected exactly one attempt for a non-retryable status, got %d", hits)
	}
}

func TestFetchRetriesServerError(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(Config{MinSpacing: -1})
	start := time.Now()
	res, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if string(res.Body) != "ok" {
		t.Errorf("Body = %q, want ok", res.Body)
	}
	if hits != 3 {
		t.Errorf("expected 3 attempts, got %d", hits)
	}
	if time.Since(start) < baseBackoff {
		t.Error("expected retries to back off before succeeding")
	}
}
