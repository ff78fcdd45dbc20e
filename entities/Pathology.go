package entities

import "strings"

// Severity is stored as found in the knowledge base ("faible", "moyenne", "elevee")
// but English values are accepted too.
type Severity string

const (
	SeverityLow    Severity = "faible"
	SeverityMedium Severity = "moyenne"
	SeverityHigh   Severity = "elevee"
)

// Level maps the stored severity to low, medium or high. Unknown values are low.
func (s Severity) Level() string {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "elevee", "élevée", "high":
		return "high"
	case "moyenne", "medium":
		return "medium"
	default:
		return "low"
	}
}

type Advice struct {
	Diet             string `json:"alimentation" yaml:"alimentation"`
	Hygiene          string `json:"hygiene" yaml:"hygiene"`
	Rest             string `json:"repos" yaml:"repos"`
	Hydration        string `json:"hydratation" yaml:"hydratation"`
	PhysicalActivity string `json:"activite_physique" yaml:"activite_physique"`
}

type ProductRecommendation struct {
	ProductID string `json:"product_id" yaml:"product_id"`
	Dosage    string `json:"dosage" yaml:"dosage"`
	Frequency string `json:"frequency" yaml:"frequency"`
	Duration  string `json:"duration" yaml:"duration"`
	Notes     string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

type Pathology struct {
	ID                  string                  `json:"id" yaml:"id"`
	Name                string                  `json:"name" yaml:"name"`
	Category            string                  `json:"category" yaml:"category"`
	Severity            Severity                `json:"severity" yaml:"severity"`
	Symptoms            []string                `json:"symptoms" yaml:"symptoms"`
	ProductKitID        string                  `json:"product_kit_id" yaml:"product_kit_id"`
	Advice              Advice                  `json:"advice" yaml:"advice"`
	RecommendedProducts []ProductRecommendation `json:"recommended_products,omitempty" yaml:"recommended_products,omitempty"`
}
