package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/giygas/diagnostic-api/config"
	"github.com/giygas/diagnostic-api/logging"
)

func TestRealIPMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xRealIP    string
		remoteAddr string
		expected   string
	}{
		{"single forwarded ip", "203.0.113.1", "", "192.168.1.1:12345", "203.0.113.1"},
		{"forwarded chain keeps first hop", "203.0.113.1, 10.0.0.1", "", "192.168.1.1:12345", "203.0.113.1"},
		{"x-real-ip fallback", "", "198.51.100.9", "192.168.1.1:12345", "198.51.100.9"},
		{"no proxy headers", "", "", "192.168.1.1:12345", "192.168.1.1:12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			var got string
			handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.expected {
				t.Errorf("Expected RemoteAddr %q, got %q", tt.expected, got)
			}
		})
	}
}

func newSizeConfig() *config.Config {
	return &config.Config{MaxRequestBody: 100, MaxHeaderSize: 200}
}

func TestRequestSizeMiddleware_ExceedsMaxSize(t *testing.T) {
	logging.InitLogger("")

	handler := RequestSizeMiddleware(newSizeConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached")
	}))

	req := httptest.NewRequest("POST", "/api/diagnostic", strings.NewReader(strings.Repeat("a", 101)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected status 413, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Expected JSON error body: %v", err)
	}
	if body["code"] != float64(http.StatusRequestEntityTooLarge) {
		t.Errorf("Expected code 413 in body, got %v", body["code"])
	}
}

func TestRequestSizeMiddleware_ExactlyMaxSize(t *testing.T) {
	handler := RequestSizeMiddleware(newSizeConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("Unexpected read error: %v", err)
		}
		if len(data) != 100 {
			t.Errorf("Expected 100 bytes, got %d", len(data))
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/diagnostic", strings.NewReader(strings.Repeat("a", 100)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestRequestSizeMiddleware_NoContentLength(t *testing.T) {
	var readErr error
	handler := RequestSizeMiddleware(newSizeConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	// Unknown length: the body reader enforces the cap
	req := httptest.NewRequest("POST", "/api/diagnostic", io.NopCloser(strings.NewReader(strings.Repeat("a", 500))))
	req.ContentLength = -1
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Errorf("Expected MaxBytesError, got %v", readErr)
	}
}

func TestRequestSizeMiddleware_HeadersTooLarge(t *testing.T) {
	logging.InitLogger("")

	handler := RequestSizeMiddleware(newSizeConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/symptoms", nil)
	req.Header.Set("X-Padding", strings.Repeat("x", 300))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestHeaderFieldsTooLarge {
		t.Errorf("Expected status 431, got %d", rr.Code)
	}
}
