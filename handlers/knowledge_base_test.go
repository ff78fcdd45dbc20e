package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/giygas/diagnostic-api/data"
	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/validation"
)

func TestListSymptoms(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"all", "", []string{"fievre", "frissons", "courbatures", "mal_gorge", "toux_persistante", "nausees"}},
		{"accent-insensitive name", "?q=fievre", []string{"fievre"}},
		{"accented query", "?q=Fi%C3%A8vre", []string{"fievre"}},
		{"partial name", "?q=gorge", []string{"mal_gorge"}},
		{"by id", "?q=toux", []string{"toux_persistante"}},
		{"category", "?category=respiratoire", []string{"mal_gorge", "toux_persistante"}},
		{"category without accents", "?category=general", []string{"fievre", "frissons", "courbatures"}},
		{"no match", "?q=zona", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/api/symptoms"+tt.query, "")
			expectStatus(t, rr, http.StatusOK)

			symptoms := decodeBody[[]entities.Symptom](t, rr)
			if len(symptoms) != len(tt.expected) {
				t.Fatalf("Expected %d symptoms, got %d: %v", len(tt.expected), len(symptoms), symptoms)
			}
			for i, id := range tt.expected {
				if symptoms[i].ID != id {
					t.Errorf("Expected symptom %d to be %s, got %s", i, id, symptoms[i].ID)
				}
			}
		})
	}
}

func TestListSymptomsRejectsBadQuery(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/symptoms?q=%3Cscript%3E", "")
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestPathologyRoutes(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/pathologies", "")
	expectStatus(t, rr, http.StatusOK)
	if list := decodeBody[[]entities.Pathology](t, rr); len(list) != 2 {
		t.Errorf("Expected 2 pathologies, got %d", len(list))
	}

	rr = env.do(t, http.MethodGet, "/api/pathologies?category=digestif", "")
	expectStatus(t, rr, http.StatusOK)
	if list := decodeBody[[]entities.Pathology](t, rr); len(list) != 0 {
		t.Errorf("Expected no digestive pathologies, got %d", len(list))
	}

	rr = env.do(t, http.MethodGet, "/api/pathologies/P001", "")
	expectStatus(t, rr, http.StatusOK)
	body := decodeBody[map[string]any](t, rr)
	if _, ok := body["productKit"]; !ok {
		t.Error("Expected product kit to be resolved")
	}

	rr = env.do(t, http.MethodGet, "/api/pathologies/P002", "")
	expectStatus(t, rr, http.StatusOK)
	body = decodeBody[map[string]any](t, rr)
	if _, ok := body["productKit"]; ok {
		t.Error("Expected no product kit for a pathology without one")
	}

	rr = env.do(t, http.MethodGet, "/api/pathologies/NOPE", "")
	expectStatus(t, rr, http.StatusNotFound)
}

func TestProductKitRoutes(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/product-kits", "")
	expectStatus(t, rr, http.StatusOK)
	if kits := decodeBody[[]entities.ProductKit](t, rr); len(kits) != 1 {
		t.Errorf("Expected 1 kit, got %d", len(kits))
	}

	rr = env.do(t, http.MethodGet, "/api/product-kits/KIT_GRIPPE", "")
	expectStatus(t, rr, http.StatusOK)

	rr = env.do(t, http.MethodGet, "/api/product-kits/KIT_ABSENT", "")
	expectStatus(t, rr, http.StatusNotFound)
}

func TestKnowledgeBaseRoutesUnavailable(t *testing.T) {
	h := NewHTTPHandler(Dependencies{
		DataStore: data.NewDataContainer(),
		Validator: validation.NewDataValidator(),
	}).(*HTTPHandlerImpl)

	for _, fn := range []func(http.ResponseWriter, *http.Request){h.ListSymptoms, h.ListPathologies, h.ListProductKits} {
		rr := httptest.NewRecorder()
		fn(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503 without knowledge base, got %d", rr.Code)
		}
	}
}
