package diagnostic

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/giygas/diagnostic-api/entities"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	PatternConfidence   = 70
	FallbackConfidence  = 40
	EmergencyConfidence = 90
	EmergencyID         = "emergency"
	EmergencyName       = "Urgent evaluation required"

	DefaultMinResults = 3
	DefaultMaxResults = 5

	categoryGroupMinimum = 2
	mediumUrgencyGroup   = 3
)

var urgentSymptoms = []string{"essoufflement", "douleur_poitrine", "crises_convulsives", "perte_conscience_temporaire"}

// FallbackGenerator builds the low-confidence results used to pad a short list.
type FallbackGenerator interface {
	Category(id string) string
	PatternResult(match PatternMatch) entities.DiagnosticResult
	CategoryResult(category string, ids []string) entities.DiagnosticResult
	SymptomResult(id string) entities.DiagnosticResult
}

// Generator groups symptoms by their knowledge base category, falling back to
// the analyzer category for symptoms the knowledge base does not know.
type Generator struct {
	kb       *entities.KnowledgeBase
	analyzer *Analyzer
}

var _ FallbackGenerator = (*Generator)(nil)

func NewGenerator(kb *entities.KnowledgeBase, analyzer *Analyzer) *Generator {
	if analyzer == nil {
		analyzer = NewAnalyzer(KnowledgeBaseNames(kb))
	}
	return &Generator{kb: kb, analyzer: analyzer}
}

func (g *Generator) Category(id string) string {
	if g.kb != nil {
		if s, ok := g.kb.SymptomByID(id); ok && strings.TrimSpace(s.Category) != "" {
			return s.Category
		}
	}
	return SymptomCategory(id)
}

// PatternResult turns a detected symptom cluster into a result. Clusters are
// never below medium urgency.
func (g *Generator) PatternResult(match PatternMatch) entities.DiagnosticResult {
	urgency := UrgencyFor(match.Symptoms)
	if urgency == entities.UrgencyLow {
		urgency = entities.UrgencyMedium
	}
	name := cases.Title(language.Und).String(strings.ReplaceAll(match.Name, "_", " "))
	return entities.DiagnosticResult{
		PathologyID:   "pattern_" + match.Name,
		PathologyName: name,
		Confidence:    PatternConfidence,
		Score:         PatternConfidence,
		Urgency:       urgency,
		Symptoms:      slices.Clone(match.Symptoms),
		Recommendations: []string{
			"Symptom pattern detected",
			"Consult a doctor for confirmation",
			"Monitor how the symptoms evolve",
		},
		Insights:                   []string{"Pattern: " + name, "Analysis based on symptom correlation"},
		RiskFactors:                []string{"The pattern needs a medical evaluation"},
		DifferentialDiagnosis:      []string{},
		RequiresExpertConsultation: true,
		AnalysisType:               entities.AnalysisPattern,
	}
}

func (g *Generator) CategoryResult(category string, ids []string) entities.DiagnosticResult {
	return entities.DiagnosticResult{
		PathologyID:   "fallback_" + slug(category),
		PathologyName: cases.Title(language.Und).String(category) + " disorders",
		Confidence:    FallbackConfidence,
		Score:         FallbackConfidence,
		Urgency:       UrgencyFor(ids),
		Symptoms:      slices.Clone(ids),
		Recommendations: []string{
			"Consult a health professional for an accurate diagnosis",
			"Monitor how the symptoms evolve",
			"Avoid self-medication",
		},
		Insights:                   []string{fmt.Sprintf("%s symptoms detected that need a medical evaluation", category)},
		RiskFactors:                []string{"Persistent symptoms", "No precise diagnosis"},
		DifferentialDiagnosis:      []string{"Several possible causes", "Medical evaluation required"},
		RequiresExpertConsultation: true,
		AnalysisType:               entities.AnalysisCategoryFallback,
	}
}

func (g *Generator) SymptomResult(id string) entities.DiagnosticResult {
	name := g.analyzer.Name(id)
	return entities.DiagnosticResult{
		PathologyID:   "fallback_symptom_" + id,
		PathologyName: "Evaluation of " + name,
		Confidence:    FallbackConfidence,
		Score:         FallbackConfidence,
		Urgency:       UrgencyFor([]string{id}),
		Symptoms:      []string{id},
		Recommendations: []string{
			"This symptom needs a medical evaluation",
			"See a doctor for an accurate diagnosis",
		},
		Insights:                   []string{"Isolated symptom: " + name, "Medical evaluation recommended"},
		RiskFactors:                []string{"An isolated symptom needs investigation"},
		DifferentialDiagnosis:      []string{},
		RequiresExpertConsultation: true,
		AnalysisType:               entities.AnalysisSingleSymptomFallback,
	}
}

// UrgencyFor is high when an urgent symptom is present, medium for three or
// more symptoms and low otherwise.
func UrgencyFor(ids []string) string {
	for _, id := range ids {
		if slices.Contains(urgentSymptoms, id) {
			return entities.UrgencyHigh
		}
	}
	if len(ids) >= mediumUrgencyGroup {
		return entities.UrgencyMedium
	}
	return entities.UrgencyLow
}

// EmergencyResult is returned alone whenever the pipeline fails.
func EmergencyResult(selected []string) entities.DiagnosticResult {
	return entities.DiagnosticResult{
		PathologyID:   EmergencyID,
		PathologyName: EmergencyName,
		Confidence:    EmergencyConfidence,
		Score:         EmergencyConfidence,
		Urgency:       entities.UrgencyHigh,
		Symptoms:      slices.Clone(selected),
		Recommendations: []string{
			"Seek immediate medical attention",
			"Go to the emergency department or call 15",
			"Do not take any medication without medical advice",
		},
		Insights:                   []string{"Diagnostic engine running in emergency mode", "Immediate medical consultation required"},
		RiskFactors:                []string{"Symptoms require an urgent evaluation"},
		DifferentialDiagnosis:      []string{},
		RequiresExpertConsultation: true,
		AnalysisType:               entities.AnalysisEmergency,
	}
}

// EnsureMinimum pads results up to minResults with fallback results built from
// the selected symptoms no result covers yet: detected clusters first, then
// category groups, then single symptoms. It caps the list at maxResults and
// sorts it by score. Existing results always come before padding when the
// cap applies.
func EnsureMinimum(results []entities.DiagnosticResult, selected []string, minResults, maxResults int, gen FallbackGenerator) []entities.DiagnosticResult {
	out := slices.Clone(results)
	if out == nil {
		out = []entities.DiagnosticResult{}
	}

	if len(out) < minResults && gen != nil {
		out = append(out, padding(out, selected, minResults, gen)...)
	}

	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func padding(existing []entities.DiagnosticResult, selected []string, minResults int, gen FallbackGenerator) []entities.DiagnosticResult {
	uncovered := uncoveredSymptoms(existing, selected)
	if len(uncovered) == 0 {
		return nil
	}

	var added []entities.DiagnosticResult
	inPattern := make(map[string]bool)
	for _, match := range DetectPatterns(uncovered).Patterns {
		added = append(added, gen.PatternResult(match))
		for _, id := range match.Symptoms {
			inPattern[id] = true
		}
	}

	remaining := make([]string, 0, len(uncovered))
	for _, id := range uncovered {
		if !inPattern[id] {
			remaining = append(remaining, id)
		}
	}

	// Categories in order of first appearance keep the output deterministic
	var order []string
	groups := make(map[string][]string)
	for _, id := range remaining {
		category := gen.Category(id)
		if _, ok := groups[category]; !ok {
			order = append(order, category)
		}
		groups[category] = append(groups[category], id)
	}

	grouped := make(map[string]bool)
	for _, category := range order {
		members := groups[category]
		if len(members) < categoryGroupMinimum {
			continue
		}
		added = append(added, gen.CategoryResult(category, members))
		for _, id := range members {
			grouped[id] = true
		}
	}

	if len(added) == 0 {
		for _, id := range uncovered {
			added = append(added, gen.SymptomResult(id))
		}
		return added
	}

	// Patterns or groups qualified but the list is still short: add single
	// results, symptoms outside any group first and cluster members last.
	candidates := make([]string, 0, len(uncovered))
	for _, id := range remaining {
		if !grouped[id] {
			candidates = append(candidates, id)
		}
	}
	for _, id := range remaining {
		if grouped[id] {
			candidates = append(candidates, id)
		}
	}
	for _, id := range uncovered {
		if inPattern[id] {
			candidates = append(candidates, id)
		}
	}
	for _, id := range candidates {
		if len(existing)+len(added) >= minResults {
			break
		}
		added = append(added, gen.SymptomResult(id))
	}
	return added
}

func uncoveredSymptoms(results []entities.DiagnosticResult, selected []string) []string {
	covered := make(map[string]struct{})
	for _, r := range results {
		for _, s := range r.Symptoms {
			covered[s] = struct{}{}
		}
	}

	var out []string
	for _, id := range selected {
		if _, ok := covered[id]; ok {
			continue
		}
		covered[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func slug(category string) string {
	s := strings.ToLower(strings.TrimSpace(category))
	return strings.Join(strings.Fields(s), "_")
}
