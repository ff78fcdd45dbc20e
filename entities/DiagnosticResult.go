package entities

type AnalysisType string

const (
	AnalysisSystemPathology       AnalysisType = "system_pathology"
	AnalysisPattern               AnalysisType = "pattern"
	AnalysisCategoryFallback      AnalysisType = "category_fallback"
	AnalysisSingleSymptomFallback AnalysisType = "single_symptom_fallback"
	AnalysisEmergency             AnalysisType = "emergency"
	AnalysisAI                    AnalysisType = "ai_analysis"
)

const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// DiagnosticResult is one ranked candidate. Confidence and Score always hold the same value.
type DiagnosticResult struct {
	PathologyID                string       `json:"pathologyId"`
	PathologyName              string       `json:"pathologyName"`
	Confidence                 int          `json:"confidence"`
	Urgency                    string       `json:"urgency"`
	Score                      int          `json:"score"`
	Symptoms                   []string     `json:"symptoms"`
	Recommendations            []string     `json:"recommendations"`
	Insights                   []string     `json:"insights"`
	RiskFactors                []string     `json:"riskFactors"`
	DifferentialDiagnosis      []string     `json:"differentialDiagnosis"`
	RequiresExpertConsultation bool         `json:"requiresExpertConsultation"`
	AnalysisType               AnalysisType `json:"analysisType"`
	ProductKit                 *ProductKit  `json:"productKit,omitempty"`
	Advice                     *Advice      `json:"advice,omitempty"`
}
