package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHelpListsEmittedLabels(t *testing.T) {
	testCases := []struct {
		name   string
		vec    *prometheus.CounterVec
		labels []string
	}{
		{"external_scorer_requests_total", ExternalScorerRequests, []string{"ok", "disabled", "error", "invalid"}},
		{"diagnostic_symptom_ids_dropped_total", SymptomIDsDropped, []string{"invalid", "over_limit"}},
		{"knowledge_base_reloads_total", KnowledgeBaseReloads, []string{"success", "failure", "skipped"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			desc := tc.vec.WithLabelValues(tc.labels[0]).Desc().String()
			for _, label := range tc.labels {
				if !strings.Contains(desc, label) {
					t.Errorf("Expected help to mention %q, got %s", label, desc)
				}
			}
		})
	}
}
