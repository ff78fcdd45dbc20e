// Package interfaces defines core abstractions for the diagnostic API
// to improve testability and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/diagnostic-api/entities"
)

// DataQualityReport summarizes knowledge base integrity issues
type DataQualityReport struct {
	DuplicateSymptomIDs        []string `json:"duplicateSymptomIds"`
	DuplicatePathologyIDs      []string `json:"duplicatePathologyIds"`
	PathologiesWithoutSymptoms []string `json:"pathologiesWithoutSymptoms"`
	UnknownSymptomReferences   []string `json:"unknownSymptomReferences"` // "<pathology>:<symptom>"
	DanglingProductKits        []string `json:"danglingProductKits"`      // pathology ids
	UnreferencedSymptoms       int      `json:"unreferencedSymptoms"`
	SymptomsWithoutCategory    int      `json:"symptomsWithoutCategory"`
}

// Snapshot is one published knowledge base together with its version.
type Snapshot struct {
	KB       *entities.KnowledgeBase
	Version  uint64
	LoadedAt time.Time
}

// DataStore provides lock-free access to the current knowledge base snapshot
// with atomic swaps for zero-downtime reloads.
type DataStore interface {
	GetSnapshot() (*Snapshot, error)
	GetKnowledgeBase() (*entities.KnowledgeBase, error)
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateKnowledgeBase(kb *entities.KnowledgeBase) uint64
	BeginUpdate() bool
	EndUpdate()
}

// KnowledgeBaseSource reads and persists the knowledge base document.
type KnowledgeBaseSource interface {
	Load(ctx context.Context) (*entities.KnowledgeBase, error)
	ModTime() (time.Time, error)
	Path() string
}

// Scheduler defines the contract for job scheduling and health monitoring.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status and the HTTP code to answer with
	HealthCheck() (status string, data map[string]any, httpStatus int)

	// CalculateNextReload returns the next scheduled knowledge base reload time
	CalculateNextReload() time.Time
}

// DataValidator defines the contract for input and knowledge base validation.
type DataValidator interface {
	ValidateInput(input string) error
	ValidateSymptomIDs(ids []string) ([]string, error)
	ValidatePathology(p *entities.Pathology) error
	ReportDataQuality(kb *entities.KnowledgeBase) *DataQualityReport
}

// SessionManager issues and resolves bearer tokens for logged-in users.
type SessionManager interface {
	Create(userID string) (token string, expiresAt time.Time, err error)
	Lookup(token string) (userID string, ok bool)
	Revoke(token string)
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	// Knowledge base reads
	ListSymptoms(w http.ResponseWriter, r *http.Request)
	ListPathologies(w http.ResponseWriter, r *http.Request)
	GetPathology(w http.ResponseWriter, r *http.Request)
	ListProductKits(w http.ResponseWriter, r *http.Request)
	GetProductKit(w http.ResponseWriter, r *http.Request)

	// Diagnostics
	RunDiagnostic(w http.ResponseWriter, r *http.Request)
	RunAIDiagnostic(w http.ResponseWriter, r *http.Request)
	AnalyzeSymptoms(w http.ResponseWriter, r *http.Request)

	// Accounts
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)

	// Records, session required
	ListOrders(w http.ResponseWriter, r *http.Request)
	CreateOrder(w http.ResponseWriter, r *http.Request)
	UpdateOrder(w http.ResponseWriter, r *http.Request)
	ListMessages(w http.ResponseWriter, r *http.Request)
	CreateMessage(w http.ResponseWriter, r *http.Request)
	ListBilans(w http.ResponseWriter, r *http.Request)
	CreateBilan(w http.ResponseWriter, r *http.Request)

	// Admin
	CreatePathology(w http.ResponseWriter, r *http.Request)
	UpdatePathology(w http.ResponseWriter, r *http.Request)
	DeletePathology(w http.ResponseWriter, r *http.Request)
	DataQuality(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
}
