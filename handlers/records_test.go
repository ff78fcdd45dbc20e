package handlers

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/giygas/diagnostic-api/entities"
)

func TestOrders(t *testing.T) {
	env := newTestEnv(t)
	user := []string{testUserHeader, "user-1"}

	rr := env.do(t, http.MethodPost, "/api/orders", `{"items":[]}`, user...)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, http.MethodPost, "/api/orders", `{"items":[{"productId":"KIT_GRIPPE","name":"Kit grippe","quantity":1}],"status":"lost"}`, user...)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, http.MethodPost, "/api/orders", `{"items":[{"productId":"KIT_GRIPPE","name":"Kit grippe","quantity":1}],"total":19.9}`, user...)
	expectStatus(t, rr, http.StatusCreated)

	order := decodeBody[entities.Order](t, rr)
	if order.Status != entities.OrderPending {
		t.Errorf("Expected pending, got %s", order.Status)
	}
	if !regexp.MustCompile(`^AFQ-\d{6}$`).MatchString(order.TrackingCode) {
		t.Errorf("Expected AFQ tracking code, got %s", order.TrackingCode)
	}
	if order.UserID != "user-1" {
		t.Errorf("Expected order owned by user-1, got %s", order.UserID)
	}

	rr = env.do(t, http.MethodGet, "/api/orders", "", user...)
	expectStatus(t, rr, http.StatusOK)
	if orders := decodeBody[[]entities.Order](t, rr); len(orders) != 1 {
		t.Errorf("Expected 1 order, got %d", len(orders))
	}

	rr = env.do(t, http.MethodPatch, "/api/orders", `{"status":"shipped"}`, user...)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, http.MethodPatch, "/api/orders", `{"id":"`+order.ID+`","status":"shipped"}`, testUserHeader, "user-2")
	expectStatus(t, rr, http.StatusNotFound)

	rr = env.do(t, http.MethodPatch, "/api/orders", `{"id":"`+order.ID+`","status":"shipped"}`, user...)
	expectStatus(t, rr, http.StatusOK)
	if updated := decodeBody[entities.Order](t, rr); updated.Status != entities.OrderShipped {
		t.Errorf("Expected shipped, got %s", updated.Status)
	}

	rr = env.do(t, http.MethodGet, "/api/orders", "", testUserHeader, "user-2")
	expectStatus(t, rr, http.StatusOK)
	if orders := decodeBody[[]entities.Order](t, rr); len(orders) != 0 {
		t.Errorf("Expected no orders for user-2, got %d", len(orders))
	}
}

func TestRecordsRequireSession(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/orders"},
		{http.MethodPost, "/api/orders"},
		{http.MethodPatch, "/api/orders"},
		{http.MethodGet, "/api/messages"},
		{http.MethodPost, "/api/messages"},
		{http.MethodGet, "/api/bilans"},
		{http.MethodPost, "/api/bilans"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rr := env.do(t, route.method, route.path, `{}`)
			expectStatus(t, rr, http.StatusUnauthorized)
		})
	}
}

func TestMessages(t *testing.T) {
	env := newTestEnv(t)
	user := []string{testUserHeader, "user-1"}

	rr := env.do(t, http.MethodPost, "/api/messages", `{"content":"   "}`, user...)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, http.MethodPost, "/api/messages", `{"content":"Bonjour, j'ai une question"}`, user...)
	expectStatus(t, rr, http.StatusCreated)
	msg := decodeBody[entities.Message](t, rr)
	if msg.From != entities.FromPatient {
		t.Errorf("Expected sender patient, got %s", msg.From)
	}

	rr = env.do(t, http.MethodGet, "/api/messages", "", user...)
	expectStatus(t, rr, http.StatusOK)
	if messages := decodeBody[[]entities.Message](t, rr); len(messages) != 1 {
		t.Errorf("Expected 1 message, got %d", len(messages))
	}
}

func TestBilans(t *testing.T) {
	env := newTestEnv(t)
	user := []string{testUserHeader, "user-1"}

	rr := env.do(t, http.MethodPost, "/api/bilans", `{}`, user...)
	expectStatus(t, rr, http.StatusCreated)
	bilan := decodeBody[entities.Bilan](t, rr)
	if !bilan.Completed {
		t.Error("Expected completed to default to true")
	}
	if bilan.PathologyID != "unknown" {
		t.Errorf("Expected pathology id unknown, got %s", bilan.PathologyID)
	}
	if !regexp.MustCompile(`^session-\d+$`).MatchString(bilan.DiagnosticSessionID) {
		t.Errorf("Expected generated session id, got %s", bilan.DiagnosticSessionID)
	}

	rr = env.do(t, http.MethodPost, "/api/bilans",
		`{"pathologyId":"P001","completed":false,"followUpDate":"2025-06-01T09:00:00Z","notes":"Revoir dans 1 semaine"}`, user...)
	expectStatus(t, rr, http.StatusCreated)
	second := decodeBody[entities.Bilan](t, rr)
	if second.Completed {
		t.Error("Expected completed false to be kept")
	}
	if second.FollowUpDate == nil {
		t.Error("Expected follow-up date to be stored")
	}

	rr = env.do(t, http.MethodPost, "/api/bilans", `{"followUpDate":"demain"}`, user...)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, http.MethodGet, "/api/bilans", "", user...)
	expectStatus(t, rr, http.StatusOK)
	if bilans := decodeBody[[]entities.Bilan](t, rr); len(bilans) != 2 {
		t.Errorf("Expected 2 bilans, got %d", len(bilans))
	}
}
