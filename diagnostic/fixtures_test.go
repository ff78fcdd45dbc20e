package diagnostic

import (
	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/interfaces"
)

func testKnowledgeBase() *entities.KnowledgeBase {
	return &entities.KnowledgeBase{
		Symptoms: []entities.Symptom{
			{ID: "fievre", Name: "Fièvre", Category: "general"},
			{ID: "frissons", Name: "Frissons", Category: "general"},
			{ID: "courbatures", Name: "Courbatures", Category: "general"},
			{ID: "fatigue_extreme", Name: "Fatigue extrême", Category: "general"},
			{ID: "maux_tete", Name: "Maux de tête", Category: "neurologique"},
			{ID: "congestion_nasale", Name: "Nez bouché", Category: "respiratoire"},
			{ID: "mal_gorge", Name: "Mal de gorge", Category: "respiratoire"},
			{ID: "toux_persistante", Name: "Toux persistante", Category: "respiratoire"},
			{ID: "essoufflement", Name: "Essoufflement", Category: "respiratoire"},
			{ID: "nausees", Name: "Nausées", Category: "digestif"},
			{ID: "diarrhee", Name: "Diarrhée", Category: "digestif"},
			{ID: "douleurs_abdominales", Name: "Douleurs abdominales", Category: "digestif"},
			{ID: "perte_appetit", Name: "Perte d'appétit", Category: "digestif"},
			{ID: "eruption", Name: "Éruption cutanée", Category: "dermatologique"},
			{ID: "demangeaisons", Name: "Démangeaisons", Category: "dermatologique"},
		},
		Pathologies: []entities.Pathology{
			{
				ID: "grippe", Name: "Grippe", Category: "respiratoire", Severity: entities.SeverityMedium,
				Symptoms:     []string{"fievre", "frissons", "courbatures", "fatigue_extreme", "maux_tete"},
				ProductKitID: "kit_grippe",
				Advice:       entities.Advice{Rest: "Repos au lit", Hydration: "2L par jour"},
			},
			{
				ID: "rhume", Name: "Rhume", Category: "respiratoire", Severity: entities.SeverityLow,
				Symptoms:     []string{"congestion_nasale", "mal_gorge", "toux_persistante"},
				ProductKitID: "kit_absent",
			},
			{
				ID: "angine", Name: "Angine", Category: "respiratoire", Severity: entities.SeverityMedium,
				Symptoms: []string{"mal_gorge", "fievre"},
			},
			{
				ID: "bronchite", Name: "Bronchite", Category: "respiratoire", Severity: entities.SeverityHigh,
				Symptoms: []string{"toux_persistante", "essoufflement", "fievre"},
			},
			{
				ID: "gastro", Name: "Gastro-entérite", Category: "digestif", Severity: entities.SeverityMedium,
				Symptoms: []string{"nausees", "diarrhee", "douleurs_abdominales", "perte_appetit"},
			},
			{
				ID: "migraine", Name: "Migraine", Category: "neurologique", Severity: entities.SeverityHigh,
				Symptoms: []string{"maux_tete", "nausees"},
			},
			{
				ID: "vide", Name: "Sans symptômes", Category: "general", Severity: entities.SeverityLow,
			},
		},
		ProductKits: []entities.ProductKit{
			{ID: "kit_grippe", Name: "Kit grippe", Description: "Paracétamol et tisane"},
		},
	}
}

type staticSource struct {
	snap *interfaces.Snapshot
	err  error
	hits int
}

func (s *staticSource) GetSnapshot() (*interfaces.Snapshot, error) {
	s.hits++
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

type panicSource struct{}

func (panicSource) GetSnapshot() (*interfaces.Snapshot, error) {
	panic("snapshot exploded")
}

func ids(results []entities.DiagnosticResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.PathologyID
	}
	return out
}
