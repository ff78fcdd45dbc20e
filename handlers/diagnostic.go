package handlers

import (
	"errors"
	"net/http"

	"github.com/giygas/diagnostic-api/aiscorer"
	"github.com/giygas/diagnostic-api/diagnostic"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/giygas/diagnostic-api/validation"
)

type diagnosticRequest struct {
	Symptoms []string                   `json:"symptoms"`
	Context  *diagnostic.PatientContext `json:"context,omitempty"`
}

type aiDiagnosticRequest struct {
	Symptoms       []string                 `json:"symptoms"`
	PatientContext *aiscorer.PatientContext `json:"patientContext,omitempty"`
	Enhance        bool                     `json:"enhance,omitempty"`
}

// symptomSelection cleans ids and writes a 400 when nothing usable is left.
// Malformed ids are dropped by the validator, never reported to the caller.
func (h *HTTPHandlerImpl) symptomSelection(w http.ResponseWriter, ids []string) ([]string, bool) {
	cleaned, err := h.deps.Validator.ValidateSymptomIDs(ids)
	if err != nil {
		if !errors.Is(err, validation.ErrNoSymptoms) {
			logging.Warn("Unexpected symptom selection error", "error", err)
		}
		h.RespondWithError(w, http.StatusBadRequest, validation.ErrNoSymptoms.Error())
		return nil, false
	}
	return cleaned, true
}

// RunDiagnostic scores a symptom selection against the knowledge base
func (h *HTTPHandlerImpl) RunDiagnostic(w http.ResponseWriter, r *http.Request) {
	var req diagnosticRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids, ok := h.symptomSelection(w, req.Symptoms)
	if !ok {
		return
	}

	report := h.deps.Engine.Run(ids, req.Context)
	h.RespondWithJSON(w, http.StatusOK, report)
}

// RunAIDiagnostic asks the external scorer, which falls back to a local answer on any failure
func (h *HTTPHandlerImpl) RunAIDiagnostic(w http.ResponseWriter, r *http.Request) {
	var req aiDiagnosticRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids, ok := h.symptomSelection(w, req.Symptoms)
	if !ok {
		return
	}

	kb, ok := h.knowledgeBase(w)
	if !ok {
		return
	}

	diagnosis := h.deps.Scorer.Diagnose(r.Context(), aiscorer.NewRequest(kb, ids, req.PatientContext))

	response := map[string]any{
		"diagnosis": diagnosis,
		"results":   diagnosis.ToResults(kb, ids),
		"external":  h.deps.Scorer.Enabled() && diagnosis.Source != aiscorer.SourceLocal,
	}

	if req.Enhance {
		if p, found := kb.PathologyByID(diagnosis.Primary.PathologyID); found {
			names := make([]string, 0, len(ids))
			for _, id := range ids {
				names = append(names, kb.SymptomName(id))
			}
			response["enhancedRecommendations"] = h.deps.Scorer.EnhanceRecommendations(
				r.Context(), p.Name, names, diagnosis.Recommendations)
		}
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

// AnalyzeSymptoms returns the per-symptom analysis and detected patterns without scoring
func (h *HTTPHandlerImpl) AnalyzeSymptoms(w http.ResponseWriter, r *http.Request) {
	var req diagnosticRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids, ok := h.symptomSelection(w, req.Symptoms)
	if !ok {
		return
	}

	// Built-in names are enough when no knowledge base is loaded
	var lookup diagnostic.NameLookup
	if kb, err := h.deps.DataStore.GetKnowledgeBase(); err == nil {
		lookup = diagnostic.KnowledgeBaseNames(kb)
	}

	analyzer := diagnostic.NewAnalyzer(lookup)
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"analysis": analyzer.Analyze(ids, req.Context),
		"patterns": diagnostic.DetectPatterns(ids),
		"urgency":  diagnostic.UrgencyFor(ids),
	})
}
