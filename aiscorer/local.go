package aiscorer

import (
	"slices"

	"github.com/giygas/diagnostic-api/entities"
)

const (
	localPrimaryConfidence      = 60
	localDifferentialConfidence = 40
)

// LocalDiagnosis picks the first catalog pathology sharing a symptom with the
// request as primary and the next two as differential.
func LocalDiagnosis(req Request) *Diagnosis {
	var matched []PathologySummary
	for _, p := range req.Pathologies {
		for _, s := range p.Symptoms {
			if slices.Contains(req.Symptoms, s) {
				matched = append(matched, p)
				break
			}
		}
	}

	primaryID := unknownPathology
	switch {
	case len(matched) > 0:
		primaryID = matched[0].ID
	case len(req.Pathologies) > 0:
		primaryID = req.Pathologies[0].ID
	}

	d := &Diagnosis{
		Primary: PrimaryDiagnosis{
			PathologyID: primaryID,
			Confidence:  localPrimaryConfidence,
			Reasoning:   "Diagnosis based on local symptom analysis",
			Urgency:     entities.UrgencyMedium,
		},
		Differential: []DifferentialEntry{},
		Recommendations: []string{
			"Medical consultation recommended",
			"Monitor the symptoms",
			"Follow how the symptoms evolve",
		},
		RiskFactors: []string{"Medical evaluation required"},
		NextSteps: []string{
			"Book a medical appointment",
			"Write down the symptoms",
			"Keep monitoring",
		},
		Insights: []string{
			"Local analysis performed (external scorer unavailable)",
			"Medical consultation recommended",
		},
		Source: SourceLocal,
	}

	if len(matched) > 1 {
		for _, p := range matched[1:min(len(matched), 3)] {
			d.Differential = append(d.Differential, DifferentialEntry{
				PathologyID: p.ID,
				Confidence:  localDifferentialConfidence,
				Reasoning:   "Differential diagnosis based on matching symptoms",
			})
		}
	}
	return d
}
