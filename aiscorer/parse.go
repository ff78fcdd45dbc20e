package aiscorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/giygas/diagnostic-api/entities"
)

var ErrEmptyCompletion = errors.New("empty completion")

const (
	defaultPrimaryConfidence      = 50
	defaultDifferentialConfidence = 30

	maxDifferential    = 3
	maxRecommendations = 5
	maxShortLists      = 3
	unknownPathology   = "unknown"
)

type rawPrimary struct {
	PathologyID string   `json:"pathologyId"`
	Confidence  *float64 `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	Urgency     string   `json:"urgency"`
}

type rawDifferential struct {
	PathologyID string   `json:"pathologyId"`
	Confidence  *float64 `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
}

// Lists are kept raw so one malformed field only defaults that field.
type rawDiagnosis struct {
	Primary         *rawPrimary     `json:"primaryDiagnosis"`
	Differential    json.RawMessage `json:"differentialDiagnosis"`
	Recommendations json.RawMessage `json:"recommendations"`
	RiskFactors     json.RawMessage `json:"riskFactors"`
	NextSteps       json.RawMessage `json:"nextSteps"`
	AIInsights      json.RawMessage `json:"aiInsights"`
	Insights        json.RawMessage `json:"insights"`
}

// ParseDiagnosis validates and normalizes a completion. It fails only when the
// content holds no JSON object at all.
func ParseDiagnosis(content string, req Request) (*Diagnosis, error) {
	body := extractJSON(content)
	if body == "" {
		return nil, ErrEmptyCompletion
	}

	var raw rawDiagnosis
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("malformed completion: %w", err)
	}

	d := &Diagnosis{
		Primary:         normalizePrimary(raw.Primary, req),
		Differential:    normalizeDifferential(raw.Differential),
		Recommendations: stringList(raw.Recommendations, maxRecommendations, "Medical consultation recommended"),
		RiskFactors:     stringList(raw.RiskFactors, maxShortLists, "Risk factors to be assessed"),
		NextSteps:       stringList(raw.NextSteps, maxShortLists, "Medical follow-up recommended"),
	}

	insights := raw.AIInsights
	if len(insights) == 0 {
		insights = raw.Insights
	}
	d.Insights = stringList(insights, maxShortLists, "AI analysis in progress")
	return d, nil
}

func normalizePrimary(raw *rawPrimary, req Request) PrimaryDiagnosis {
	p := PrimaryDiagnosis{
		Confidence: defaultPrimaryConfidence,
		Reasoning:  "Analysis based on the presented symptoms",
		Urgency:    entities.UrgencyMedium,
	}
	if raw != nil {
		p.PathologyID = strings.TrimSpace(raw.PathologyID)
		if raw.Confidence != nil {
			p.Confidence = clampConfidence(*raw.Confidence)
		}
		if r := strings.TrimSpace(raw.Reasoning); r != "" {
			p.Reasoning = r
		}
		p.Urgency = normalizeUrgency(raw.Urgency)
	}
	if p.PathologyID == "" {
		p.PathologyID = unknownPathology
		if len(req.Pathologies) > 0 {
			p.PathologyID = req.Pathologies[0].ID
		}
	}
	return p
}

func normalizeDifferential(raw json.RawMessage) []DifferentialEntry {
	out := []DifferentialEntry{}
	var entries []rawDifferential
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return out
	}
	for _, e := range entries {
		if len(out) == maxDifferential {
			break
		}
		entry := DifferentialEntry{
			PathologyID: strings.TrimSpace(e.PathologyID),
			Confidence:  defaultDifferentialConfidence,
			Reasoning:   strings.TrimSpace(e.Reasoning),
		}
		if entry.PathologyID == "" {
			entry.PathologyID = unknownPathology
		}
		if e.Confidence != nil {
			entry.Confidence = clampConfidence(*e.Confidence)
		}
		if entry.Reasoning == "" {
			entry.Reasoning = "Possible differential diagnosis"
		}
		out = append(out, entry)
	}
	return out
}

// stringList decodes a JSON string array capped at limit. A missing or
// non-array value yields []string{fallback}.
func stringList(raw json.RawMessage, limit int, fallback string) []string {
	var items []string
	if len(raw) == 0 || string(raw) == "null" || json.Unmarshal(raw, &items) != nil {
		return []string{fallback}
	}
	out := make([]string, 0, min(len(items), limit))
	for _, item := range items {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}

func clampConfidence(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(min(100, max(0, v))))
}

func normalizeUrgency(u string) string {
	switch strings.ToLower(strings.TrimSpace(u)) {
	case entities.UrgencyLow:
		return entities.UrgencyLow
	case entities.UrgencyHigh:
		return entities.UrgencyHigh
	default:
		return entities.UrgencyMedium
	}
}

// extractJSON strips markdown fences and surrounding prose, returning the outermost object.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
