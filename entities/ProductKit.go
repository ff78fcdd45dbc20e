package entities

type ProductKit struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	OrderLink   string   `json:"order_link,omitempty" yaml:"order_link,omitempty"`
	Components  []string `json:"components,omitempty" yaml:"components,omitempty"`
	Price       float64  `json:"price,omitempty" yaml:"price,omitempty"`
	Currency    string   `json:"currency,omitempty" yaml:"currency,omitempty"`
}

type Product struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Price       string  `json:"price,omitempty" yaml:"price,omitempty"`
	Rating      float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	Reviews     int     `json:"reviews,omitempty" yaml:"reviews,omitempty"`
}
