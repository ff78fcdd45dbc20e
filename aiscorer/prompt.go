package aiscorer

import (
	"fmt"
	"strings"
)

const (
	diagnosticSystemPrompt = "You are an expert physician specialised in medical diagnosis. " +
		"Analyse the patient's symptoms and propose a diagnosis based on the available pathology catalog. " +
		"Be precise, professional and always cautious in your recommendations."

	enhanceSystemPrompt = "You are an expert physician who improves existing medical recommendations."

	diagnosticTemperature = 0.3
	diagnosticMaxTokens   = 1500
	enhanceMaxTokens      = 800
)

// BuildPrompt renders the user prompt for a diagnostic request.
func BuildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("Medical analysis for a patient presenting the following symptoms:\n\n")
	fmt.Fprintf(&b, "SYMPTOMS: %s\n\n", strings.Join(req.Symptoms, ", "))

	if ctx := patientContextText(req.PatientContext); ctx != "" {
		b.WriteString("PATIENT CONTEXT:\n")
		b.WriteString(ctx)
		b.WriteString("\n")
	}

	b.WriteString("PATHOLOGIES AVAILABLE IN THE DATABASE:\n")
	for _, p := range req.Pathologies {
		fmt.Fprintf(&b, "- %s (id: %s): %s\n", p.Name, p.ID, strings.Join(p.Symptoms, ", "))
	}

	b.WriteString(`
Provide:
1. A primary diagnosis with confidence (0-100) and urgency (low, medium, high)
2. Possible differential diagnoses
3. Appropriate medical recommendations
4. Identified risk factors
5. Recommended next steps
6. Relevant medical insights

Answer with a single JSON object of the form:
{"primaryDiagnosis":{"pathologyId":"","confidence":0,"reasoning":"","urgency":"medium"},
 "differentialDiagnosis":[{"pathologyId":"","confidence":0,"reasoning":""}],
 "recommendations":[],"riskFactors":[],"nextSteps":[],"aiInsights":[]}
Use only pathology ids from the list above.`)

	return b.String()
}

func patientContextText(ctx *PatientContext) string {
	if ctx == nil {
		return ""
	}
	var b strings.Builder
	if ctx.Age != nil && *ctx.Age > 0 {
		fmt.Fprintf(&b, "Age: %d years\n", *ctx.Age)
	}
	if ctx.Gender != "" {
		fmt.Fprintf(&b, "Gender: %s\n", ctx.Gender)
	}
	if len(ctx.MedicalHistory) > 0 {
		fmt.Fprintf(&b, "Medical history: %s\n", strings.Join(ctx.MedicalHistory, ", "))
	}
	if len(ctx.CurrentMedications) > 0 {
		fmt.Fprintf(&b, "Current medications: %s\n", strings.Join(ctx.CurrentMedications, ", "))
	}
	return b.String()
}

func buildEnhancePrompt(pathologyName string, symptoms, current []string) string {
	return fmt.Sprintf(`Improve and enrich these medical recommendations for the pathology %q with the symptoms: %s.

Current recommendations:
%s

Provide 5 to 7 improved, detailed and practical recommendations, one per line, each starting with "- ".`,
		pathologyName, strings.Join(symptoms, ", "), strings.Join(current, "\n"))
}
