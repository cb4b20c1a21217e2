package clients

import "strconv"

// Profile is immutable reference data for one institutional client.
type Profile struct {
	Name         string  `yaml:"name" json:"name" validate:"required"`
	Type         string  `yaml:"type" json:"type"`
	Status       string  `yaml:"status" json:"status"`
	AUM          float64 `yaml:"aum" json:"aum"`                   // billions
	Satisfaction float64 `yaml:"satisfaction" json:"satisfaction"` // out of 10
	ChurnRisk    float64 `yaml:"churn_risk" json:"churn_risk"`     // percent
}

// Fields returns the placeholder values a prompt template may reference.
func (p Profile) Fields() map[string]string {
	return map[string]string{
		"client_name":  p.Name,
		"aum":          FormatNumber(p.AUM),
		"satisfaction": FormatNumber(p.Satisfaction),
		"churn_risk":   FormatNumber(p.ChurnRisk),
		"client_type":  p.Type,
	}
}

// FormatNumber renders with the shortest exact representation (10, 53.2).
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
