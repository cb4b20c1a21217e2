package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFamily(t *testing.T) {
	cases := map[string]Family{
		"gemma:2b":            FamilyGemma,
		"Gemma2:9b-instruct":  FamilyGemma,
		"llama2:13b":          FamilyLlama2,
		"mistral:latest":      FamilyMistral,
		"llama3:8b":           FamilyDefault,
		"phi3":                FamilyDefault,
		"":                    FamilyDefault,
	}
	for model, want := range cases {
		assert.Equal(t, want, ResolveFamily(model), model)
	}
}

func TestParamsFor(t *testing.T) {
	table := DefaultParams()
	g := table.For("gemma:7b")
	assert.Equal(t, 0.8, g.Temperature)
	assert.Equal(t, 0.95, g.TopP)
	assert.Equal(t, 50, g.TopK)
	assert.Equal(t, 800, g.NumPredict)

	assert.Equal(t, 1.15, table.For("llama2").RepeatPenalty)
	assert.Equal(t, table[FamilyDefault], table.For("qwen"))

	partial := ParamsTable{FamilyDefault: {Temperature: 0.1}}
	assert.Equal(t, 0.1, partial.For("mistral").Temperature)

	var empty ParamsTable
	assert.Equal(t, 0.8, empty.For("gemma").Temperature)
}

func TestResult(t *testing.T) {
	ok := Success("text")
	assert.True(t, ok.OK())
	assert.Equal(t, "text", ok.Text())

	na := Unavailable("offline")
	assert.False(t, na.OK())
	assert.Empty(t, na.Text())
	assert.Equal(t, "offline", na.Reason())
}
