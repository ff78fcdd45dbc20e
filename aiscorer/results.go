package aiscorer

import (
	"slices"
	"sort"

	"github.com/giygas/diagnostic-api/entities"
)

const maxResults = 5

// ToResults converts the diagnosis into ranked DiagnosticResults so the
// external scorer output renders like engine output. Symptoms are limited to
// the input; a pathology sharing none of them reports the whole input.
func (d *Diagnosis) ToResults(kb *entities.KnowledgeBase, input []string) []entities.DiagnosticResult {
	results := []entities.DiagnosticResult{}
	if d == nil || len(input) == 0 {
		return results
	}

	var differentialNames []string
	for _, e := range d.Differential {
		differentialNames = append(differentialNames, pathologyName(kb, e.PathologyID))
	}

	primary := d.result(kb, d.Primary.PathologyID, d.Primary.Confidence, d.Primary.Urgency, input)
	primary.Recommendations = nonNil(d.Recommendations)
	primary.RiskFactors = nonNil(d.RiskFactors)
	primary.Insights = append(nonNil(slices.Clone(d.Insights)), d.Primary.Reasoning)
	primary.DifferentialDiagnosis = nonNil(differentialNames)
	results = append(results, primary)

	seen := map[string]bool{d.Primary.PathologyID: true}
	for _, e := range d.Differential {
		if seen[e.PathologyID] {
			continue
		}
		seen[e.PathologyID] = true

		urgency := entities.UrgencyMedium
		if p, ok := lookup(kb, e.PathologyID); ok {
			urgency = p.Severity.Level()
		}
		r := d.result(kb, e.PathologyID, e.Confidence, urgency, input)
		r.Recommendations = nonNil(d.NextSteps)
		r.Insights = []string{e.Reasoning}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func (d *Diagnosis) result(kb *entities.KnowledgeBase, id string, confidence int, urgency string, input []string) entities.DiagnosticResult {
	r := entities.DiagnosticResult{
		PathologyID:                id,
		PathologyName:              id,
		Confidence:                 confidence,
		Score:                      confidence,
		Urgency:                    urgency,
		Symptoms:                   slices.Clone(input),
		Recommendations:            []string{},
		Insights:                   []string{},
		RiskFactors:                []string{},
		DifferentialDiagnosis:      []string{},
		RequiresExpertConsultation: urgency == entities.UrgencyHigh,
		AnalysisType:               entities.AnalysisAI,
	}

	p, ok := lookup(kb, id)
	if !ok {
		return r
	}

	r.PathologyName = p.Name
	var shared []string
	for _, s := range input {
		if slices.Contains(p.Symptoms, s) {
			shared = append(shared, s)
		}
	}
	if len(shared) > 0 {
		r.Symptoms = shared
	}
	if kit, ok := kb.ProductKitByID(p.ProductKitID); ok {
		r.ProductKit = &kit
	}
	advice := p.Advice
	r.Advice = &advice
	return r
}

func lookup(kb *entities.KnowledgeBase, id string) (entities.Pathology, bool) {
	if kb == nil {
		return entities.Pathology{}, false
	}
	return kb.PathologyByID(id)
}

func pathologyName(kb *entities.KnowledgeBase, id string) string {
	if p, ok := lookup(kb, id); ok {
		return p.Name
	}
	return id
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
