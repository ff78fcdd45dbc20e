package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/knowledgebase"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/go-chi/chi/v5"
)

// invalidPathologyError marks patch failures caused by the request body.
type invalidPathologyError struct {
	err error
}

func (e *invalidPathologyError) Error() string { return e.err.Error() }
func (e *invalidPathologyError) Unwrap() error { return e.err }

func (h *HTTPHandlerImpl) writerAvailable(w http.ResponseWriter) bool {
	if h.deps.Writer == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Knowledge base is read-only")
		return false
	}
	return true
}

// publish swaps in an edited knowledge base so reads see it immediately.
func (h *HTTPHandlerImpl) publish(kb *entities.KnowledgeBase) {
	version := h.deps.DataStore.UpdateKnowledgeBase(kb)
	if h.deps.OnKnowledgeBaseChange != nil {
		h.deps.OnKnowledgeBaseChange(version)
	}
	logging.Info("Knowledge base edited", "version", version, "pathologies", len(kb.Pathologies))
}

func (h *HTTPHandlerImpl) writeError(w http.ResponseWriter, err error) {
	var invalid *invalidPathologyError
	switch {
	case errors.As(err, &invalid):
		h.RespondWithError(w, http.StatusBadRequest, invalid.Error())
	case errors.Is(err, knowledgebase.ErrPathologyNotFound):
		h.RespondWithError(w, http.StatusNotFound, "Pathology not found")
	case errors.Is(err, knowledgebase.ErrPathologyExists):
		h.RespondWithError(w, http.StatusConflict, "Pathology already exists")
	case errors.Is(err, knowledgebase.ErrReadOnly):
		h.RespondWithError(w, http.StatusServiceUnavailable, "Knowledge base is read-only")
	default:
		logging.Error("Knowledge base write failed", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Could not save knowledge base")
	}
}

// CreatePathology adds a pathology. A missing id is generated.
func (h *HTTPHandlerImpl) CreatePathology(w http.ResponseWriter, r *http.Request) {
	if !h.writerAvailable(w) {
		return
	}

	var p entities.Pathology
	if err := decodeJSON(r, &p); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.deps.Validator.ValidatePathology(&p); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, kb, err := h.deps.Writer.CreatePathology(r.Context(), p)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.publish(kb)
	h.RespondWithJSON(w, http.StatusCreated, created)
}

// UpdatePathology merges the request body onto the stored pathology
func (h *HTTPHandlerImpl) UpdatePathology(w http.ResponseWriter, r *http.Request) {
	if !h.writerAvailable(w) {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	if !json.Valid(body) {
		h.RespondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id := chi.URLParam(r, "id")
	updated, kb, err := h.deps.Writer.UpdatePathology(r.Context(), id, func(p *entities.Pathology) error {
		if err := json.Unmarshal(body, p); err != nil {
			return &invalidPathologyError{err: errors.New("invalid pathology fields")}
		}
		p.ID = id
		if err := h.deps.Validator.ValidatePathology(p); err != nil {
			return &invalidPathologyError{err: err}
		}
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.publish(kb)
	h.RespondWithJSON(w, http.StatusOK, updated)
}

// DeletePathology removes a pathology
func (h *HTTPHandlerImpl) DeletePathology(w http.ResponseWriter, r *http.Request) {
	if !h.writerAvailable(w) {
		return
	}

	kb, err := h.deps.Writer.DeletePathology(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.publish(kb)
	w.WriteHeader(http.StatusNoContent)
}

// DataQuality reports referential problems in the published knowledge base
func (h *HTTPHandlerImpl) DataQuality(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.DataStore.GetSnapshot()
	if err != nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Knowledge base not loaded")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"version":  snap.Version,
		"loadedAt": snap.LoadedAt,
		"report":   h.deps.Validator.ReportDataQuality(snap.KB),
	})
}
