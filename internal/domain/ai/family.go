package ai

import "strings"

// Family groups models that share sampling parameters.
type Family string

const (
	FamilyGemma   Family = "gemma"
	FamilyLlama2  Family = "llama2"
	FamilyMistral Family = "mistral"
	FamilyDefault Family = "default"
)

// matchOrder is the order model names are tested against.
var matchOrder = []Family{FamilyGemma, FamilyLlama2, FamilyMistral}

// ResolveFamily picks the first family whose name appears in the model name.
func ResolveFamily(model string) Family {
	m := strings.ToLower(model)
	for _, f := range matchOrder {
		if strings.Contains(m, string(f)) {
			return f
		}
	}
	return FamilyDefault
}

// SamplingParams is sent as the "options" object of a generate request.
type SamplingParams struct {
	Temperature   float64 `json:"temperature" yaml:"temperature"`
	TopP          float64 `json:"top_p" yaml:"top_p"`
	TopK          int     `json:"top_k" yaml:"top_k"`
	NumPredict    int     `json:"num_predict" yaml:"num_predict"`
	RepeatPenalty float64 `json:"repeat_penalty" yaml:"repeat_penalty"`
}

// ParamsTable maps a family to its parameters.
type ParamsTable map[Family]SamplingParams

func DefaultParams() ParamsTable {
	return ParamsTable{
		FamilyGemma:   {Temperature: 0.8, TopP: 0.95, TopK: 50, NumPredict: 800, RepeatPenalty: 1.1},
		FamilyLlama2:  {Temperature: 0.7, TopP: 0.9, TopK: 40, NumPredict: 800, RepeatPenalty: 1.15},
		FamilyMistral: {Temperature: 0.7, TopP: 0.9, TopK: 40, NumPredict: 800, RepeatPenalty: 1.1},
		FamilyDefault: {Temperature: 0.7, TopP: 0.9, TopK: 40, NumPredict: 800, RepeatPenalty: 1.1},
	}
}

// For resolves the model's family and returns its parameters, falling back to
// the built-in defaults for families missing from the table.
func (t ParamsTable) For(model string) SamplingParams {
	f := ResolveFamily(model)
	if p, ok := t[f]; ok {
		return p
	}
	if p, ok := t[FamilyDefault]; ok {
		return p
	}
	return DefaultParams()[f]
}
