package logging

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestLoggingMiddlewareLogsRequest(t *testing.T) {
	logger, buf := newBufferLogger()

	handler := middleware.RequestID(LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/diagnostic?debug=1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	out := buf.String()
	for _, want := range []string{`"path":"/api/diagnostic"`, `"status_code":201`, `"bytes_written":2`, `"query":"debug=1"`, `"request_id"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %s, got %s", want, out)
		}
	}
	if strings.Contains(out, `"request_id":"unknown"`) {
		t.Error("Request id from chi middleware should be logged")
	}
}

func TestLoggingMiddlewareSkipsProbes(t *testing.T) {
	logger, buf := newBufferLogger()
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, path := range []string{"/health", "/metrics"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if buf.Len() != 0 {
		t.Errorf("Probe requests should not be logged, got %s", buf.String())
	}
}

func TestLoggingMiddlewareServerErrorLevel(t *testing.T) {
	logger, buf := newBufferLogger()
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/symptoms", nil))

	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("5xx responses should be logged at error level, got %s", buf.String())
	}
}

func TestLoggingMiddlewareLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, `"level":"INFO"`},
		{http.StatusBadRequest, `"level":"INFO"`},
		{http.StatusUnauthorized, `"level":"WARN"`},
		{http.StatusForbidden, `"level":"WARN"`},
		{http.StatusTooManyRequests, `"level":"WARN"`},
		{http.StatusServiceUnavailable, `"level":"ERROR"`},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			logger, buf := newBufferLogger()
			handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders", nil))

			if !strings.Contains(buf.String(), tt.level) {
				t.Errorf("Expected %s for status %d, got %s", tt.level, tt.status, buf.String())
			}
		})
	}
}

func TestLoggingMiddlewareRoutePattern(t *testing.T) {
	logger, buf := newBufferLogger()

	r := chi.NewRouter()
	r.Use(LoggingMiddleware(logger))
	r.Get("/api/pathologies/{id}", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/pathologies/grippe", nil))

	out := buf.String()
	if !strings.Contains(out, `"route":"/api/pathologies/{id}"`) {
		t.Errorf("Expected route pattern in log, got %s", out)
	}
	if !strings.Contains(out, `"path":"/api/pathologies/grippe"`) {
		t.Errorf("Expected concrete path in log, got %s", out)
	}
}

func TestLoggingMiddlewareSkipsPreflight(t *testing.T) {
	logger, buf := newBufferLogger()
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodOptions, "/api/diagnostic", nil))

	if buf.Len() != 0 {
		t.Errorf("Preflight requests should not be logged, got %s", buf.String())
	}
}
