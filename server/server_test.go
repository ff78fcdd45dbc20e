package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/diagnostic-api/config"
	"github.com/giygas/diagnostic-api/handlers"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// stubHandler answers every route with the name of the method that served it.
type stubHandler struct{}

func named(name string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := handlers.UserIDFromContext(r.Context()); ok {
			w.Header().Set("X-User", id)
		}
		w.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
		w.Header().Set("X-Handler", name)
		w.WriteHeader(http.StatusOK)
	}
}

func (stubHandler) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	named("ListSymptoms")(w, r)
}
func (stubHandler) ListPathologies(w http.ResponseWriter, r *http.Request) {
	named("ListPathologies")(w, r)
}
func (stubHandler) GetPathology(w http.ResponseWriter, r *http.Request) {
	named("GetPathology")(w, r)
}
func (stubHandler) ListProductKits(w http.ResponseWriter, r *http.Request) {
	named("ListProductKits")(w, r)
}
func (stubHandler) GetProductKit(w http.ResponseWriter, r *http.Request) {
	named("GetProductKit")(w, r)
}
func (stubHandler) RunDiagnostic(w http.ResponseWriter, r *http.Request) {
	named("RunDiagnostic")(w, r)
}
func (stubHandler) RunAIDiagnostic(w http.ResponseWriter, r *http.Request) {
	named("RunAIDiagnostic")(w, r)
}
func (stubHandler) AnalyzeSymptoms(w http.ResponseWriter, r *http.Request) {
	named("AnalyzeSymptoms")(w, r)
}
func (stubHandler) Register(w http.ResponseWriter, r *http.Request) { named("Register")(w, r) }
func (stubHandler) Login(w http.ResponseWriter, r *http.Request)    { named("Login")(w, r) }
func (stubHandler) Logout(w http.ResponseWriter, r *http.Request)   { named("Logout")(w, r) }
func (stubHandler) Me(w http.ResponseWriter, r *http.Request)       { named("Me")(w, r) }
func (stubHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	named("ListOrders")(w, r)
}
func (stubHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	named("CreateOrder")(w, r)
}
func (stubHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	named("UpdateOrder")(w, r)
}
func (stubHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	named("ListMessages")(w, r)
}
func (stubHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	named("CreateMessage")(w, r)
}
func (stubHandler) ListBilans(w http.ResponseWriter, r *http.Request) {
	named("ListBilans")(w, r)
}
func (stubHandler) CreateBilan(w http.ResponseWriter, r *http.Request) {
	named("CreateBilan")(w, r)
}
func (stubHandler) CreatePathology(w http.ResponseWriter, r *http.Request) {
	named("CreatePathology")(w, r)
}
func (stubHandler) UpdatePathology(w http.ResponseWriter, r *http.Request) {
	named("UpdatePathology")(w, r)
}
func (stubHandler) DeletePathology(w http.ResponseWriter, r *http.Request) {
	named("DeletePathology")(w, r)
}
func (stubHandler) DataQuality(w http.ResponseWriter, r *http.Request) {
	named("DataQuality")(w, r)
}
func (stubHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	named("HealthCheck")(w, r)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		Address:        "localhost",
		Env:            config.EnvTest,
		LogLevel:       "info",
		MaxRequestBody: 1048576,
		MaxHeaderSize:  1048576,
		AdminToken:     "admin-secret",
		CORSOrigins:    []string{"*"},
	}
}

func newTestServer(t *testing.T) (*Server, *SessionStore) {
	t.Helper()
	logging.InitLogger("")
	sessions := NewSessionStore(time.Hour)
	return NewServer(testConfig(), stubHandler{}, sessions), sessions
}

func TestNewServer(t *testing.T) {
	srv, sessions := newTestServer(t)

	if srv.server.Addr != "localhost:8080" {
		t.Errorf("Expected server address localhost:8080, got %s", srv.server.Addr)
	}
	if srv.router == nil {
		t.Error("Router should not be nil")
	}
	if srv.sessions != sessions {
		t.Error("Session manager should be set correctly")
	}
	if srv.rateLimiter == nil {
		t.Error("Rate limiter should not be nil")
	}
}

func TestSetupRoutes(t *testing.T) {
	srv, sessions := newTestServer(t)
	token, _, err := sessions.Create("user-42")
	if err != nil {
		t.Fatalf("Create session failed: %v", err)
	}

	tests := []struct {
		method  string
		path    string
		auth    bool
		admin   bool
		handler string
	}{
		{"GET", "/health", false, false, "HealthCheck"},
		{"GET", "/api/symptoms", false, false, "ListSymptoms"},
		{"GET", "/api/pathologies", false, false, "ListPathologies"},
		{"GET", "/api/pathologies/P001", false, false, "GetPathology"},
		{"GET", "/api/product-kits", false, false, "ListProductKits"},
		{"GET", "/api/product-kits/KIT_GRIPPE", false, false, "GetProductKit"},
		{"POST", "/api/diagnostic", false, false, "RunDiagnostic"},
		{"POST", "/api/diagnostic/ai", false, false, "RunAIDiagnostic"},
		{"POST", "/api/analysis/symptoms", false, false, "AnalyzeSymptoms"},
		{"POST", "/api/register", false, false, "Register"},
		{"POST", "/api/login", false, false, "Login"},
		{"POST", "/api/logout", false, false, "Logout"},
		{"GET", "/api/me", true, false, "Me"},
		{"GET", "/api/orders", true, false, "ListOrders"},
		{"POST", "/api/orders", true, false, "CreateOrder"},
		{"PATCH", "/api/orders", true, false, "UpdateOrder"},
		{"GET", "/api/messages", true, false, "ListMessages"},
		{"POST", "/api/messages", true, false, "CreateMessage"},
		{"GET", "/api/bilans", true, false, "ListBilans"},
		{"POST", "/api/bilans", true, false, "CreateBilan"},
		{"POST", "/admin/pathologies", false, true, "CreatePathology"},
		{"PUT", "/admin/pathologies/P001", false, true, "UpdatePathology"},
		{"DELETE", "/admin/pathologies/P001", false, true, "DeletePathology"},
		{"GET", "/admin/data-quality", false, true, "DataQuality"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "127.0.0.1:1234"
			if tt.auth {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			if tt.admin {
				req.Header.Set("X-Admin-Token", "admin-secret")
			}
			rr := httptest.NewRecorder()
			srv.Router().ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			if got := rr.Header().Get("X-Handler"); got != tt.handler {
				t.Errorf("Expected handler %s, got %s", tt.handler, got)
			}
			if tt.auth && rr.Header().Get("X-User") != "user-42" {
				t.Errorf("Expected session user in context, got %q", rr.Header().Get("X-User"))
			}
			if rr.Header().Get("X-Request-ID") == "" {
				t.Error("RequestID should be available in request context")
			}
			if rr.Header().Get("X-RateLimit-Limit") == "" {
				t.Error("Expected rate limit headers")
			}
		})
	}
}

func TestProtectedRoutesRequireCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		method         string
		path           string
		expectedStatus int
	}{
		{"GET", "/api/orders", http.StatusUnauthorized},
		{"POST", "/api/messages", http.StatusUnauthorized},
		{"GET", "/api/me", http.StatusUnauthorized},
		{"POST", "/admin/pathologies", http.StatusUnauthorized},
		{"DELETE", "/admin/pathologies/P001", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			srv.Router().ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if rr.Header().Get("X-Handler") != "" {
				t.Error("Handler should not be reached")
			}
		})
	}
}

func TestAdminRoutesDisabledWithoutToken(t *testing.T) {
	logging.InitLogger("")
	cfg := testConfig()
	cfg.AdminToken = ""
	srv := NewServer(cfg, stubHandler{}, NewSessionStore(time.Hour))

	req := httptest.NewRequest("GET", "/admin/data-quality", nil)
	req.Header.Set("X-Admin-Token", "")
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	// Generate at least one observation
	srv.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_request_total") {
		t.Error("Expected http_request_total in metrics output")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/diagnostic", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected Access-Control-Allow-Origin *, got %q", got)
	}
	if rr.Header().Get("X-Handler") != "" {
		t.Error("Preflight should not reach the handler")
	}
}

func TestServerLifecycle(t *testing.T) {
	logging.InitLogger("")
	cfg := testConfig()
	cfg.Address = "127.0.0.1"
	cfg.Port = "0"
	srv := NewServer(cfg, stubHandler{}, NewSessionStore(time.Hour))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected Start to return nil after shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after shutdown")
	}
}
