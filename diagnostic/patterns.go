package diagnostic

import "slices"

const (
	patternUrgency        = 0.7
	patternSummaryScore   = 0.8
	patternMinimumMatches = 2
)

// Cluster is a hand-curated group of symptoms that tend to appear together.
type Cluster struct {
	Name    string
	Members []string
}

// DefaultClusters is checked in declaration order.
var DefaultClusters = []Cluster{
	{Name: "flu_like_syndrome", Members: []string{"fievre", "frissons", "courbatures", "fatigue_extreme", "maux_tete"}},
	{Name: "gastroenteritis", Members: []string{"nausees", "diarrhee", "douleurs_abdominales", "perte_appetit"}},
	{Name: "respiratory_infection", Members: []string{"toux_persistante", "mal_gorge", "congestion_nasale", "fatigue_extreme"}},
}

type PatternMatch struct {
	Name       string   `json:"name"`
	Symptoms   []string `json:"symptoms"`
	Confidence float64  `json:"confidence"`
	Urgency    float64  `json:"urgency"`
}

type PatternAnalysis struct {
	Patterns   []PatternMatch `json:"patterns"`
	Confidence float64        `json:"confidence"`
	Urgency    float64        `json:"urgency"`
}

// DetectPatterns checks selected against DefaultClusters.
func DetectPatterns(selected []string) PatternAnalysis {
	return DetectPatternsIn(DefaultClusters, selected)
}

// DetectPatternsIn reports every cluster with at least two selected members.
// Matched symptoms keep the selection order.
func DetectPatternsIn(clusters []Cluster, selected []string) PatternAnalysis {
	analysis := PatternAnalysis{Patterns: []PatternMatch{}}

	for _, c := range clusters {
		if len(c.Members) == 0 {
			continue
		}
		var matches []string
		for _, id := range selected {
			if slices.Contains(c.Members, id) && !slices.Contains(matches, id) {
				matches = append(matches, id)
			}
		}
		if len(matches) < patternMinimumMatches {
			continue
		}
		analysis.Patterns = append(analysis.Patterns, PatternMatch{
			Name:       c.Name,
			Symptoms:   matches,
			Confidence: float64(len(matches)) / float64(len(c.Members)),
			Urgency:    patternUrgency,
		})
	}

	if len(analysis.Patterns) > 0 {
		analysis.Confidence = patternSummaryScore
		analysis.Urgency = patternUrgency
	}
	return analysis
}
