package insights

import (
	"strings"
	"time"
	"unicode"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Insight is one generated analysis. Immutable once created.
type Insight struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Type      string    `json:"type"`
	Priority  Priority  `json:"priority"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Client    string    `json:"client"`
	Model     string    `json:"model"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"timestamp"`
}

// Failure records an analysis kind that produced no insight.
type Failure struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// Batch is the outcome of one assembler run. Insights keep the role's kind
// order. Unavailable is set when the generation service could not be reached
// at all, as opposed to individual kinds failing.
type Batch struct {
	Insights    []Insight `json:"insights"`
	Failures    []Failure `json:"failures"`
	Unavailable bool      `json:"unavailable"`
	GeneratedAt time.Time `json:"generated_at"`
}

// KindTitle turns "risk_analysis" into "Risk Analysis".
func KindTitle(kind string) string {
	words := strings.Fields(strings.ReplaceAll(kind, "_", " "))
	for i, w := range words {
		rs := []rune(strings.ToLower(w))
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}
