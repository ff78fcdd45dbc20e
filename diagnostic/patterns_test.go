package diagnostic

import (
	"reflect"
	"testing"
)

func TestDetectPatternsFluLike(t *testing.T) {
	got := DetectPatterns([]string{"fievre", "frissons", "fatigue_extreme", "courbatures"})

	if len(got.Patterns) != 1 {
		t.Fatalf("Expected 1 pattern, got %d: %+v", len(got.Patterns), got.Patterns)
	}
	p := got.Patterns[0]
	if p.Name != "flu_like_syndrome" {
		t.Errorf("Expected flu_like_syndrome, got %s", p.Name)
	}
	if p.Confidence != 0.8 {
		t.Errorf("Expected confidence 0.8, got %v", p.Confidence)
	}
	if p.Urgency != 0.7 {
		t.Errorf("Expected urgency 0.7, got %v", p.Urgency)
	}
	if !reflect.DeepEqual(p.Symptoms, []string{"fievre", "frissons", "fatigue_extreme", "courbatures"}) {
		t.Errorf("Expected matches in selection order, got %v", p.Symptoms)
	}
	if got.Confidence != 0.8 || got.Urgency != 0.7 {
		t.Errorf("Expected summary 0.8/0.7, got %v/%v", got.Confidence, got.Urgency)
	}
}

func TestDetectPatternsMultipleInDeclarationOrder(t *testing.T) {
	got := DetectPatterns([]string{"toux_persistante", "mal_gorge", "nausees", "diarrhee", "fievre", "frissons"})

	var names []string
	for _, p := range got.Patterns {
		names = append(names, p.Name)
	}
	expected := []string{"flu_like_syndrome", "gastroenteritis", "respiratory_infection"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Expected %v, got %v", expected, names)
	}
	if got.Patterns[1].Confidence != 0.5 {
		t.Errorf("Expected gastroenteritis confidence 0.5, got %v", got.Patterns[1].Confidence)
	}
}

func TestDetectPatternsNone(t *testing.T) {
	for _, input := range [][]string{nil, {}, {"fievre"}, {"fievre", "nausees"}, {"fievre", "fievre"}} {
		got := DetectPatterns(input)
		if len(got.Patterns) != 0 {
			t.Errorf("Expected no pattern for %v, got %+v", input, got.Patterns)
		}
		if got.Patterns == nil {
			t.Errorf("Expected empty non-nil pattern list for %v", input)
		}
		if got.Confidence != 0 || got.Urgency != 0 {
			t.Errorf("Expected zero summary for %v, got %v/%v", input, got.Confidence, got.Urgency)
		}
	}
}

func TestDetectPatternsInCustomClusters(t *testing.T) {
	clusters := []Cluster{{Name: "empty"}, {Name: "pair", Members: []string{"a", "b"}}}
	got := DetectPatternsIn(clusters, []string{"b", "a"})
	if len(got.Patterns) != 1 || got.Patterns[0].Confidence != 1 {
		t.Errorf("Expected full match on pair cluster, got %+v", got.Patterns)
	}
}
