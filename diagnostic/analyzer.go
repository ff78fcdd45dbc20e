// Package diagnostic scores selected symptoms against the knowledge base.
//
// The pipeline is: Analyzer and pattern detection (informational), Matcher
// (coverage ratio per pathology), then EnsureMinimum which pads short result
// lists with fallback results. Engine wraps the pipeline with the emergency
// fail-safe and a result cache.
package diagnostic

import (
	"slices"

	"github.com/giygas/diagnostic-api/entities"
)

const (
	CategoryDigestive   = "Digestive"
	CategoryRespiratory = "Respiratory"
	CategoryGeneral     = "General"

	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"

	DurationAcute = "acute"

	defaultWeight = 5
)

var symptomWeights = map[string]int{
	"nausees":              8,
	"diarrhee":             7,
	"constipation":         5,
	"douleurs_abdominales": 9,
	"ballonnements":        4,
	"brulures_estomac":     6,
	"perte_appetit":        6,
	"toux_persistante":     8,
	"essoufflement":        9,
	"mal_gorge":            6,
	"congestion_nasale":    5,
	"difficulte_respirer":  10,
	"fatigue_extreme":      7,
	"fievre":               9,
	"maux_tete":            6,
	"perte_poids":          8,
	"frissons":             7,
	"courbatures":          5,
}

var (
	digestiveSymptoms = []string{
		"nausees", "diarrhee", "constipation", "douleurs_abdominales",
		"ballonnements", "brulures_estomac", "perte_appetit",
	}
	respiratorySymptoms = []string{
		"toux_persistante", "essoufflement", "mal_gorge", "congestion_nasale", "difficulte_respirer",
	}
	severeSymptoms   = []string{"essoufflement", "difficulte_respirer"}
	moderateSymptoms = []string{"fievre", "fatigue_extreme", "maux_tete"}
)

// builtinNames covers the weighted symptoms when no knowledge base name is available.
var builtinNames = map[string]string{
	"nausees":              "Nausées",
	"diarrhee":             "Diarrhée",
	"constipation":         "Constipation",
	"douleurs_abdominales": "Douleurs abdominales",
	"ballonnements":        "Ballonnements",
	"brulures_estomac":     "Brûlures d'estomac",
	"perte_appetit":        "Perte d'appétit",
	"toux_persistante":     "Toux persistante",
	"essoufflement":        "Essoufflement",
	"mal_gorge":            "Mal de gorge",
	"congestion_nasale":    "Congestion nasale",
	"difficulte_respirer":  "Difficulté à respirer",
	"fatigue_extreme":      "Fatigue extrême",
	"fievre":               "Fièvre",
	"maux_tete":            "Maux de tête",
	"perte_poids":          "Perte de poids",
	"frissons":             "Frissons",
	"courbatures":          "Courbatures",
}

// PatientContext is accepted and echoed but does not change scoring.
type PatientContext struct {
	Age            *int     `json:"age,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	Duration       string   `json:"duration,omitempty"`
	MedicalHistory []string `json:"medicalHistory,omitempty"`
}

type SymptomAnalysis struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Weight   int      `json:"weight"`
	Category string   `json:"category"`
	Severity string   `json:"severity"`
	Duration string   `json:"duration"`
	Context  []string `json:"context"`
}

// NameLookup resolves a symptom id to a display name.
type NameLookup func(id string) (string, bool)

// KnowledgeBaseNames returns a NameLookup backed by kb. A nil kb yields nil.
func KnowledgeBaseNames(kb *entities.KnowledgeBase) NameLookup {
	if kb == nil {
		return nil
	}
	return func(id string) (string, bool) {
		s, ok := kb.SymptomByID(id)
		if !ok || s.Name == "" {
			return "", false
		}
		return s.Name, true
	}
}

type Analyzer struct {
	lookup NameLookup
}

func NewAnalyzer(lookup NameLookup) *Analyzer {
	return &Analyzer{lookup: lookup}
}

// Analyze returns one record per input id, in input order. Unknown ids get default values.
func (a *Analyzer) Analyze(ids []string, _ *PatientContext) []SymptomAnalysis {
	out := make([]SymptomAnalysis, 0, len(ids))
	for _, id := range ids {
		out = append(out, SymptomAnalysis{
			ID:       id,
			Name:     a.Name(id),
			Weight:   SymptomWeight(id),
			Category: SymptomCategory(id),
			Severity: SymptomSeverity(id),
			Duration: DurationAcute,
			Context:  []string{},
		})
	}
	return out
}

// Name tries the injected lookup, then the built-in table, then the id itself.
func (a *Analyzer) Name(id string) string {
	if a != nil && a.lookup != nil {
		if name, ok := a.lookup(id); ok {
			return name
		}
	}
	if name, ok := builtinNames[id]; ok {
		return name
	}
	return id
}

func SymptomWeight(id string) int {
	if w, ok := symptomWeights[id]; ok {
		return w
	}
	return defaultWeight
}

func SymptomCategory(id string) string {
	switch {
	case slices.Contains(digestiveSymptoms, id):
		return CategoryDigestive
	case slices.Contains(respiratorySymptoms, id):
		return CategoryRespiratory
	default:
		return CategoryGeneral
	}
}

func SymptomSeverity(id string) string {
	switch {
	case slices.Contains(severeSymptoms, id):
		return SeveritySevere
	case slices.Contains(moderateSymptoms, id):
		return SeverityModerate
	default:
		return SeverityMild
	}
}
