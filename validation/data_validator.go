// Package validation checks user input and knowledge base content for the diagnostic API.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/interfaces"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/giygas/diagnostic-api/metrics"
)

const (
	MaxSymptomsPerRequest = 40
	maxSymptomIDLength    = 64
	maxNameLength         = 200
	maxCategoryLength     = 100
	maxAdviceLength       = 1000
)

// ErrNoSymptoms is returned when a selection is empty after cleaning.
var ErrNoSymptoms = errors.New("no symptoms selected")

var (
	// Search input: letters (French accents included), digits and safe punctuation
	inputRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'àâäéèêëïîôöùûüÿçœÀÂÄÉÈÊËÏÎÔÖÙÛÜŸÇ]+$`)

	// Knowledge base identifiers such as "fievre", "toux_persistante" or "P001"
	idRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

	// Submitted selections may carry display names ("Mal de gorge", "fièvre");
	// those are kept as unknown ids rather than rejected
	selectionIDRegex = regexp.MustCompile(`^[\p{L}\p{N}_\-\.' ]+$`)

	// strings.Contains is cheaper than regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "url(", "@import",
		// SQL injection
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(",
		// Command injection
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:",
	}

	knownSeverities = map[string]bool{
		"": true, "faible": true, "moyenne": true, "elevee": true, "élevée": true,
		"low": true, "medium": true, "high": true,
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateInput validates free-text search input
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len([]rune(input)) < 2 {
		return fmt.Errorf("input too short: minimum 2 characters")
	}

	if len(input) > 50 {
		return fmt.Errorf("input too long: maximum 50 characters")
	}

	if len(strings.Fields(input)) > 6 {
		return fmt.Errorf("search query too complex: maximum 6 words allowed")
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods, plus sign, and common French accented characters are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateSymptomIDs trims and deduplicates a selection, keeping first-seen order.
// Ids the knowledge base does not know are kept. Blank and malformed ids
// (path separators, markup, injection fragments, overlong) are dropped and the selection is truncated at
// MaxSymptomsPerRequest. ErrNoSymptoms is returned only when nothing usable is left.
func (v *DataValidatorImpl) ValidateSymptomIDs(ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	cleaned := make([]string, 0, min(len(ids), MaxSymptomsPerRequest))
	var invalid []string
	truncated := 0

	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if err := validateSelectionID(id); err != nil {
			invalid = append(invalid, id)
			continue
		}
		if len(cleaned) == MaxSymptomsPerRequest {
			truncated++
			continue
		}
		cleaned = append(cleaned, id)
	}

	if len(invalid) > 0 {
		metrics.SymptomIDsDropped.WithLabelValues("invalid").Add(float64(len(invalid)))
		logging.Warn("Dropped malformed symptom ids", "ids", invalid, "kept", len(cleaned))
	}
	if truncated > 0 {
		metrics.SymptomIDsDropped.WithLabelValues("over_limit").Add(float64(truncated))
		logging.Warn("Symptom selection truncated", "limit", MaxSymptomsPerRequest, "dropped", truncated)
	}

	if len(cleaned) == 0 {
		return cleaned, ErrNoSymptoms
	}
	return cleaned, nil
}

// ValidatePathology checks an admin-submitted pathology before it is written.
func (v *DataValidatorImpl) ValidatePathology(p *entities.Pathology) error {
	if p == nil {
		return fmt.Errorf("pathology is nil")
	}

	if p.ID != "" {
		if err := validateID(p.ID); err != nil {
			return fmt.Errorf("invalid pathology id: %w", err)
		}
	}

	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pathology name cannot be empty")
	}
	if len(p.Name) > maxNameLength {
		return fmt.Errorf("pathology name too long: %d characters", len(p.Name))
	}

	if len(p.Category) > maxCategoryLength {
		return fmt.Errorf("category too long: %d characters", len(p.Category))
	}

	if !knownSeverities[strings.ToLower(strings.TrimSpace(string(p.Severity)))] {
		return fmt.Errorf("unknown severity %q", p.Severity)
	}

	for _, id := range p.Symptoms {
		if err := validateID(id); err != nil {
			return fmt.Errorf("invalid symptom id %q: %w", id, err)
		}
	}

	if p.ProductKitID != "" {
		if err := validateID(p.ProductKitID); err != nil {
			return fmt.Errorf("invalid product kit id: %w", err)
		}
	}

	for _, field := range []string{p.Advice.Diet, p.Advice.Hygiene, p.Advice.Rest, p.Advice.Hydration, p.Advice.PhysicalActivity} {
		if len(field) > maxAdviceLength {
			return fmt.Errorf("advice too long: %d characters", len(field))
		}
	}

	return nil
}

// ReportDataQuality lists referential problems in a knowledge base. Nothing here
// blocks loading; the engine tolerates every issue reported.
func (v *DataValidatorImpl) ReportDataQuality(kb *entities.KnowledgeBase) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateSymptomIDs:        []string{},
		DuplicatePathologyIDs:      []string{},
		PathologiesWithoutSymptoms: []string{},
		UnknownSymptomReferences:   []string{},
		DanglingProductKits:        []string{},
	}
	if kb == nil {
		return report
	}

	// Check 1: duplicate symptom ids, missing categories
	symptomIDs := make(map[string]bool, len(kb.Symptoms))
	for _, s := range kb.Symptoms {
		if symptomIDs[s.ID] {
			report.DuplicateSymptomIDs = append(report.DuplicateSymptomIDs, s.ID)
		}
		symptomIDs[s.ID] = true
		if strings.TrimSpace(s.Category) == "" {
			report.SymptomsWithoutCategory++
		}
	}

	kitIDs := make(map[string]bool, len(kb.ProductKits))
	for _, k := range kb.ProductKits {
		kitIDs[k.ID] = true
	}

	// Check 2: pathologies
	pathologyIDs := make(map[string]bool, len(kb.Pathologies))
	referenced := make(map[string]bool)
	for _, p := range kb.Pathologies {
		if pathologyIDs[p.ID] {
			report.DuplicatePathologyIDs = append(report.DuplicatePathologyIDs, p.ID)
		}
		pathologyIDs[p.ID] = true

		if len(p.Symptoms) == 0 {
			report.PathologiesWithoutSymptoms = append(report.PathologiesWithoutSymptoms, p.ID)
		}
		for _, id := range p.Symptoms {
			referenced[id] = true
			if !symptomIDs[id] {
				report.UnknownSymptomReferences = append(report.UnknownSymptomReferences, p.ID+":"+id)
			}
		}

		if p.ProductKitID != "" && !kitIDs[p.ProductKitID] {
			report.DanglingProductKits = append(report.DanglingProductKits, p.ID)
		}
	}

	// Check 3: symptoms no pathology can match
	for id := range symptomIDs {
		if !referenced[id] {
			report.UnreferencedSymptoms++
		}
	}

	if len(report.DuplicateSymptomIDs) > 0 || len(report.DuplicatePathologyIDs) > 0 {
		logging.Error("Duplicate knowledge base ids detected",
			"symptoms", report.DuplicateSymptomIDs,
			"pathologies", report.DuplicatePathologyIDs,
		)
	}
	if len(report.UnknownSymptomReferences) > 0 || len(report.DanglingProductKits) > 0 {
		logging.Warn("Knowledge base has dangling references",
			"unknown_symptoms", len(report.UnknownSymptomReferences),
			"dangling_kits", len(report.DanglingProductKits),
		)
	}

	return report
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if len(id) > maxSymptomIDLength {
		return fmt.Errorf("id too long: maximum %d characters", maxSymptomIDLength)
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("id contains invalid characters")
	}
	return nil
}

func validateSelectionID(id string) error {
	if len(id) > maxSymptomIDLength {
		return fmt.Errorf("id too long: maximum %d characters", maxSymptomIDLength)
	}
	if !selectionIDRegex.MatchString(id) {
		return fmt.Errorf("id contains invalid characters")
	}
	lower := strings.ToLower(id)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("id contains potentially dangerous content")
		}
	}
	return nil
}

// hasExcessiveRepetition reports the same byte repeated more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}
