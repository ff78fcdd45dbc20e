package entities

import "time"

// Bilan is a saved diagnostic run. Results are stored verbatim.
type Bilan struct {
	ID                  string             `json:"id"`
	UserID              string             `json:"userId"`
	DiagnosticSessionID string             `json:"diagnosticSessionId"`
	PathologyID         string             `json:"pathologyId"`
	ProductKitID        string             `json:"productKitId,omitempty"`
	FollowUpDate        *time.Time         `json:"followUpDate,omitempty"`
	Completed           bool               `json:"completed"`
	Notes               string             `json:"notes,omitempty"`
	Results             []DiagnosticResult `json:"results,omitempty"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}
