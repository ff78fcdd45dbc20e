package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/giygas/diagnostic-api/aiscorer"
	"github.com/giygas/diagnostic-api/data"
	"github.com/giygas/diagnostic-api/diagnostic"
	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/health"
	"github.com/giygas/diagnostic-api/knowledgebase"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/giygas/diagnostic-api/store"
	"github.com/giygas/diagnostic-api/validation"
	"github.com/go-chi/chi/v5"
)

const testUserHeader = "X-Test-User"

func testKB() *entities.KnowledgeBase {
	return &entities.KnowledgeBase{
		Symptoms: []entities.Symptom{
			{ID: "fievre", Name: "Fièvre", Category: "général"},
			{ID: "frissons", Name: "Frissons", Category: "général"},
			{ID: "courbatures", Name: "Courbatures", Category: "général"},
			{ID: "mal_gorge", Name: "Mal de gorge", Category: "respiratoire"},
			{ID: "toux_persistante", Name: "Toux persistante", Category: "respiratoire"},
			{ID: "nausees", Name: "Nausées", Category: "digestif"},
		},
		Pathologies: []entities.Pathology{
			{
				ID: "P001", Name: "Grippe", Category: "respiratoire", Severity: entities.SeverityMedium,
				Symptoms:     []string{"fievre", "frissons", "courbatures"},
				ProductKitID: "KIT_GRIPPE",
				Advice:       entities.Advice{Rest: "Repos au lit"},
			},
			{
				ID: "P002", Name: "Angine", Category: "respiratoire", Severity: entities.SeverityMedium,
				Symptoms: []string{"mal_gorge", "fievre"},
			},
		},
		ProductKits: []entities.ProductKit{{ID: "KIT_GRIPPE", Name: "Kit grippe"}},
	}
}

// fakeSessions is an in-memory SessionManager
type fakeSessions struct {
	mu     sync.Mutex
	tokens map[string]string
	next   int
}

func (f *fakeSessions) Create(userID string) (string, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens == nil {
		f.tokens = map[string]string{}
	}
	f.next++
	token := "token-" + strconv.Itoa(f.next)
	f.tokens[token] = userID
	return token, time.Now().Add(time.Hour), nil
}

func (f *fakeSessions) Lookup(token string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[token]
	return id, ok
}

func (f *fakeSessions) Revoke(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
}

type testEnv struct {
	handler   *HTTPHandlerImpl
	router    chi.Router
	container *data.DataContainer
	records   *store.FileStore
	repo      *knowledgebase.Repository
	sessions  *fakeSessions
	changes   []uint64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logging.InitLogger("")

	dir := t.TempDir()
	kbPath := filepath.Join(dir, "knowledge-base.json")
	raw, err := json.Marshal(testKB())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(kbPath, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	repo := knowledgebase.NewRepository(kbPath)
	kb, err := repo.Load(t.Context())
	if err != nil {
		t.Fatalf("failed to load test knowledge base: %v", err)
	}

	container := data.NewDataContainer()
	container.SetServerStartTime(time.Now())
	container.UpdateKnowledgeBase(kb)

	engine, err := diagnostic.NewEngine(container, diagnostic.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	records, err := store.OpenFileStore(filepath.Join(dir, "records.json"))
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{container: container, records: records, repo: repo, sessions: &fakeSessions{}}
	env.handler = NewHTTPHandler(Dependencies{
		DataStore: container,
		Validator: validation.NewDataValidator(),
		Engine:    engine,
		Scorer:    aiscorer.NewAdapter(nil, time.Second),
		Records:   records,
		Writer:    repo,
		Sessions:  env.sessions,
		Health:    health.NewHealthChecker(container, records, 15*time.Minute),
		OnKnowledgeBaseChange: func(version uint64) {
			env.changes = append(env.changes, version)
			engine.Purge()
		},
	}).(*HTTPHandlerImpl)

	env.router = newTestRouter(env.handler)
	return env
}

// newTestRouter mounts the handlers without middleware. The X-Test-User
// header stands in for the session middleware.
func newTestRouter(h *HTTPHandlerImpl) chi.Router {
	r := chi.NewRouter()
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/symptoms", h.ListSymptoms)
		r.Get("/pathologies", h.ListPathologies)
		r.Get("/pathologies/{id}", h.GetPathology)
		r.Get("/product-kits", h.ListProductKits)
		r.Get("/product-kits/{id}", h.GetProductKit)
		r.Post("/diagnostic", h.RunDiagnostic)
		r.Post("/diagnostic/ai", h.RunAIDiagnostic)
		r.Post("/analysis/symptoms", h.AnalyzeSymptoms)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					if id := req.Header.Get(testUserHeader); id != "" {
						req = req.WithContext(WithUserID(req.Context(), id))
					}
					next.ServeHTTP(w, req)
				})
			})
			r.Get("/me", h.Me)
			r.Get("/orders", h.ListOrders)
			r.Post("/orders", h.CreateOrder)
			r.Patch("/orders", h.UpdateOrder)
			r.Get("/messages", h.ListMessages)
			r.Post("/messages", h.CreateMessage)
			r.Get("/bilans", h.ListBilans)
			r.Post("/bilans", h.CreateBilan)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/pathologies", h.CreatePathology)
		r.Put("/pathologies/{id}", h.UpdatePathology)
		r.Delete("/pathologies/{id}", h.DeletePathology)
		r.Get("/data-quality", h.DataQuality)
	})
	return r
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}
