package entities

// KnowledgeBase is the whole symptom/pathology/kit document. It is treated as
// read-only once published; writers build a new value.
type KnowledgeBase struct {
	Symptoms    []Symptom    `json:"symptoms" yaml:"symptoms"`
	Pathologies []Pathology  `json:"pathologies" yaml:"pathologies"`
	ProductKits []ProductKit `json:"product_kits" yaml:"product_kits"`
	Products    []Product    `json:"products,omitempty" yaml:"products,omitempty"`
}

func (kb *KnowledgeBase) SymptomByID(id string) (Symptom, bool) {
	for _, s := range kb.Symptoms {
		if s.ID == id {
			return s, true
		}
	}
	return Symptom{}, false
}

func (kb *KnowledgeBase) PathologyByID(id string) (Pathology, bool) {
	for _, p := range kb.Pathologies {
		if p.ID == id {
			return p, true
		}
	}
	return Pathology{}, false
}

func (kb *KnowledgeBase) ProductKitByID(id string) (ProductKit, bool) {
	if id == "" {
		return ProductKit{}, false
	}
	for _, k := range kb.ProductKits {
		if k.ID == id {
			return k, true
		}
	}
	return ProductKit{}, false
}

// SymptomName returns the display name of a symptom, or the id itself when unknown.
func (kb *KnowledgeBase) SymptomName(id string) string {
	if s, ok := kb.SymptomByID(id); ok && s.Name != "" {
		return s.Name
	}
	return id
}

// Clone returns a copy deep enough for admin edits: slices are copied so the
// published snapshot is never mutated.
func (kb *KnowledgeBase) Clone() *KnowledgeBase {
	out := &KnowledgeBase{
		Symptoms:    append([]Symptom(nil), kb.Symptoms...),
		Pathologies: make([]Pathology, len(kb.Pathologies)),
		ProductKits: append([]ProductKit(nil), kb.ProductKits...),
		Products:    append([]Product(nil), kb.Products...),
	}
	for i, p := range kb.Pathologies {
		p.Symptoms = append([]string(nil), p.Symptoms...)
		p.RecommendedProducts = append([]ProductRecommendation(nil), p.RecommendedProducts...)
		out.Pathologies[i] = p
	}
	return out
}
