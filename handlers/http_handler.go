// Package handlers provides HTTP request handlers for the diagnostic API.
// This file holds the handler type, its dependencies and response helpers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/giygas/diagnostic-api/aiscorer"
	"github.com/giygas/diagnostic-api/diagnostic"
	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/interfaces"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/giygas/diagnostic-api/store"
)

// DiagnosticEngine scores symptom selections.
type DiagnosticEngine interface {
	Run(selected []string, pctx *diagnostic.PatientContext) *diagnostic.Report
}

// Scorer asks an external model for a diagnosis and falls back locally.
type Scorer interface {
	Enabled() bool
	Diagnose(ctx context.Context, req aiscorer.Request) *aiscorer.Diagnosis
	EnhanceRecommendations(ctx context.Context, pathologyName string, symptoms, current []string) []string
}

// PathologyWriter persists admin edits to the knowledge base document.
type PathologyWriter interface {
	CreatePathology(ctx context.Context, p entities.Pathology) (entities.Pathology, *entities.KnowledgeBase, error)
	UpdatePathology(ctx context.Context, id string, patch func(p *entities.Pathology) error) (entities.Pathology, *entities.KnowledgeBase, error)
	DeletePathology(ctx context.Context, id string) (*entities.KnowledgeBase, error)
}

// Dependencies groups everything the handlers need. Records, Writer and
// Sessions may be nil; the matching routes then answer 503.
type Dependencies struct {
	DataStore interfaces.DataStore
	Validator interfaces.DataValidator
	Engine    DiagnosticEngine
	Scorer    Scorer
	Records   store.Store
	Writer    PathologyWriter
	Sessions  interfaces.SessionManager
	Health    interfaces.HealthChecker

	// OnKnowledgeBaseChange runs after an admin edit has been published.
	OnKnowledgeBaseChange func(version uint64)
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	deps Dependencies
	now  func() time.Time
}

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(deps Dependencies) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{deps: deps, now: time.Now}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// decodeJSON reads the request body into dst. The error message is safe to return to clients.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body too large: maximum %d bytes", maxErr.Limit)
		default:
			return errors.New("invalid JSON body")
		}
	}
	return nil
}

// knowledgeBase returns the current snapshot or writes a 503.
func (h *HTTPHandlerImpl) knowledgeBase(w http.ResponseWriter) (*entities.KnowledgeBase, bool) {
	kb, err := h.deps.DataStore.GetKnowledgeBase()
	if err != nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Knowledge base not loaded")
		return nil, false
	}
	return kb, true
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.deps.Health.HealthCheck()

	response := map[string]any{
		"status": status,
		"data":   data,
	}
	h.RespondWithJSON(w, httpStatus, response)
}
