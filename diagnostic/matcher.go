package diagnostic

import (
	"fmt"
	"math"
	"sort"

	"github.com/giygas/diagnostic-api/entities"
)

const (
	DefaultMinConfidence = 30
	maxDifferential      = 3
	manySymptomsRisk     = 5
)

var riskCategories = map[string]bool{
	"cardiovasculaire": true,
	"neurologique":     true,
}

// Matcher scores every pathology by the share of its symptoms that were
// selected. Symptom ids are compared by exact equality.
type Matcher struct {
	kb            *entities.KnowledgeBase
	minConfidence int
}

func NewMatcher(kb *entities.KnowledgeBase, minConfidence int) *Matcher {
	return &Matcher{kb: kb, minConfidence: minConfidence}
}

// Match returns the surviving pathologies sorted by confidence, highest first.
// Equal confidences keep knowledge base order.
func (m *Matcher) Match(selected []string) []entities.DiagnosticResult {
	results := []entities.DiagnosticResult{}
	if len(selected) == 0 || m.kb == nil {
		return results
	}

	chosen := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		chosen[id] = struct{}{}
	}

	for i := range m.kb.Pathologies {
		p := &m.kb.Pathologies[i]
		if len(p.Symptoms) == 0 {
			continue
		}

		matching := matchingSymptoms(p.Symptoms, chosen)
		if len(matching) == 0 {
			continue
		}

		confidence := Confidence(len(matching), len(p.Symptoms))
		if confidence < m.minConfidence {
			continue
		}

		results = append(results, m.result(p, matching, confidence, chosen))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Confidence is round(100 * matched / total), clamped to [0,100].
func Confidence(matched, total int) int {
	if total <= 0 || matched <= 0 {
		return 0
	}
	c := int(math.Round(100 * float64(matched) / float64(total)))
	return min(max(c, 0), 100)
}

func matchingSymptoms(symptoms []string, chosen map[string]struct{}) []string {
	var out []string
	seen := make(map[string]struct{}, len(symptoms))
	for _, s := range symptoms {
		if _, ok := chosen[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (m *Matcher) result(p *entities.Pathology, matching []string, confidence int, chosen map[string]struct{}) entities.DiagnosticResult {
	level := p.Severity.Level()

	r := entities.DiagnosticResult{
		PathologyID:   p.ID,
		PathologyName: p.Name,
		Confidence:    confidence,
		Score:         confidence,
		Urgency:       level,
		Symptoms:      matching,
		Recommendations: []string{
			fmt.Sprintf("Consult a specialist in %s", p.Category),
			"Follow the recommended lifestyle advice",
			"Monitor how the symptoms evolve",
		},
		Insights: []string{
			fmt.Sprintf("Identified pathology: %s", p.Name),
			fmt.Sprintf("Category: %s", p.Category),
			fmt.Sprintf("Severity: %s", level),
			fmt.Sprintf("%d matching symptoms detected", len(matching)),
		},
		RiskFactors:                riskFactors(p, len(matching)),
		DifferentialDiagnosis:      m.differential(p, chosen),
		RequiresExpertConsultation: level == entities.UrgencyHigh,
		AnalysisType:               entities.AnalysisSystemPathology,
	}

	if kit, ok := m.kb.ProductKitByID(p.ProductKitID); ok {
		r.ProductKit = &kit
	}
	advice := p.Advice
	r.Advice = &advice
	return r
}

// differential lists other pathologies of the same category sharing at least one selected symptom.
func (m *Matcher) differential(p *entities.Pathology, chosen map[string]struct{}) []string {
	out := []string{}
	for i := range m.kb.Pathologies {
		other := &m.kb.Pathologies[i]
		if other.ID == p.ID || other.Category != p.Category {
			continue
		}
		for _, s := range other.Symptoms {
			if _, ok := chosen[s]; ok {
				out = append(out, other.Name)
				break
			}
		}
		if len(out) == maxDifferential {
			break
		}
	}
	return out
}

func riskFactors(p *entities.Pathology, matches int) []string {
	out := []string{}
	if p.Severity.Level() == entities.UrgencyHigh {
		out = append(out, "High severity pathology")
	}
	if matches >= manySymptomsRisk {
		out = append(out, "High number of matching symptoms")
	}
	if riskCategories[p.Category] {
		out = append(out, "At-risk category")
	}
	return out
}
