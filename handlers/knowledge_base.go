package handlers

import (
	"net/http"
	"strings"

	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/go-chi/chi/v5"
)

// ListSymptoms returns the symptom catalog, optionally filtered by ?q= (accent
// and case insensitive, on id or name) and ?category=.
func (h *HTTPHandlerImpl) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	kb, ok := h.knowledgeBase(w)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	category := foldAccents(r.URL.Query().Get("category"))

	if query != "" {
		if err := h.deps.Validator.ValidateInput(query); err != nil {
			logging.Warn("Unusual user input", "q", query)
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	needle := foldAccents(query)

	results := []entities.Symptom{}
	for _, s := range kb.Symptoms {
		if category != "" && foldAccents(s.Category) != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(foldAccents(s.Name), needle) &&
			!strings.Contains(foldAccents(s.ID), needle) {
			continue
		}
		results = append(results, s)
	}

	h.RespondWithJSON(w, http.StatusOK, results)
}

// ListPathologies returns every pathology, optionally filtered by ?category=
func (h *HTTPHandlerImpl) ListPathologies(w http.ResponseWriter, r *http.Request) {
	kb, ok := h.knowledgeBase(w)
	if !ok {
		return
	}

	category := foldAccents(r.URL.Query().Get("category"))
	if category == "" {
		h.RespondWithJSON(w, http.StatusOK, kb.Pathologies)
		return
	}

	results := []entities.Pathology{}
	for _, p := range kb.Pathologies {
		if foldAccents(p.Category) == category {
			results = append(results, p)
		}
	}
	h.RespondWithJSON(w, http.StatusOK, results)
}

// GetPathology returns one pathology with its product kit resolved
func (h *HTTPHandlerImpl) GetPathology(w http.ResponseWriter, r *http.Request) {
	kb, ok := h.knowledgeBase(w)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	p, found := kb.PathologyByID(id)
	if !found {
		h.RespondWithError(w, http.StatusNotFound, "Pathology not found")
		return
	}

	response := map[string]any{"pathology": p}
	if kit, ok := kb.ProductKitByID(p.ProductKitID); ok {
		response["productKit"] = kit
	}
	h.RespondWithJSON(w, http.StatusOK, response)
}

// ListProductKits returns every product kit
func (h *HTTPHandlerImpl) ListProductKits(w http.ResponseWriter, r *http.Request) {
	kb, ok := h.knowledgeBase(w)
	if !ok {
		return
	}
	h.RespondWithJSON(w, http.StatusOK, kb.ProductKits)
}

// GetProductKit returns one product kit
func (h *HTTPHandlerImpl) GetProductKit(w http.ResponseWriter, r *http.Request) {
	kb, ok := h.knowledgeBase(w)
	if !ok {
		return
	}

	kit, found := kb.ProductKitByID(chi.URLParam(r, "id"))
	if !found {
		h.RespondWithError(w, http.StatusNotFound, "Product kit not found")
		return
	}
	h.RespondWithJSON(w, http.StatusOK, kit)
}
