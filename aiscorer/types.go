// Package aiscorer asks an external text-completion service for a diagnosis and
// always returns a well-formed answer, computed locally when the service fails.
package aiscorer

import (
	"context"

	"github.com/giygas/diagnostic-api/entities"
)

const (
	SourceOpenAI = "openai"
	SourceGemini = "gemini"
	SourceLocal  = "local"
)

// CompletionRequest is one system+user exchange with a completion model.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	JSON        bool // ask for a JSON response when the provider supports it
}

// Completer sends a prompt to a text-completion provider and returns the raw text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

type PatientContext struct {
	Age                *int     `json:"age,omitempty"`
	Gender             string   `json:"gender,omitempty"`
	MedicalHistory     []string `json:"medicalHistory,omitempty"`
	CurrentMedications []string `json:"currentMedications,omitempty"`
}

// PathologySummary is the catalog entry sent to the provider.
type PathologySummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Symptoms    []string `json:"symptoms"`
	Description string   `json:"description,omitempty"`
}

type Request struct {
	Symptoms       []string           `json:"symptoms"`
	PatientContext *PatientContext    `json:"patientContext,omitempty"`
	Pathologies    []PathologySummary `json:"availablePathologies"`
}

type PrimaryDiagnosis struct {
	PathologyID string `json:"pathologyId"`
	Confidence  int    `json:"confidence"`
	Reasoning   string `json:"reasoning"`
	Urgency     string `json:"urgency"`
}

type DifferentialEntry struct {
	PathologyID string `json:"pathologyId"`
	Confidence  int    `json:"confidence"`
	Reasoning   string `json:"reasoning"`
}

// Diagnosis is the normalized provider answer.
type Diagnosis struct {
	Primary         PrimaryDiagnosis    `json:"primaryDiagnosis"`
	Differential    []DifferentialEntry `json:"differentialDiagnosis"`
	Recommendations []string            `json:"recommendations"`
	RiskFactors     []string            `json:"riskFactors"`
	NextSteps       []string            `json:"nextSteps"`
	Insights        []string            `json:"insights"`
	Source          string              `json:"source"`
}

// NewRequest builds a Request carrying the whole pathology catalog of kb.
func NewRequest(kb *entities.KnowledgeBase, symptoms []string, pctx *PatientContext) Request {
	req := Request{
		Symptoms:       symptoms,
		PatientContext: pctx,
		Pathologies:    []PathologySummary{},
	}
	if kb == nil {
		return req
	}
	for _, p := range kb.Pathologies {
		req.Pathologies = append(req.Pathologies, PathologySummary{
			ID:       p.ID,
			Name:     p.Name,
			Symptoms: p.Symptoms,
		})
	}
	return req
}
