package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/documents"
)

const (
	contextHeader  = "RELEVANT KNOWLEDGE BASE DOCUMENTS:\n\n"
	contextDocs    = 3
	previewLength  = 200
	separatorWidth = 50
)

// Compose wraps an analysis request with knowledge base context and the
// required response structure. The role itself is carried by the system
// prompt.
func Compose(base, knowledgeContext, role string) string {
	return knowledgeContext + `

ANALYSIS REQUEST:
` + base + `

RESPONSE STRUCTURE REQUIRED:
1. Executive Summary (2-3 key points)
2. Detailed Analysis (with specific metrics)
3. Recommendations (numbered, with timelines)
4. Risk Considerations
5. Next Steps (specific actions)

Provide a comprehensive response that addresses ALL aspects of the request. Be specific with numbers, percentages, and timelines.`
}

// Builder assembles knowledge base context from a session's documents.
type Builder struct {
	store  documents.Store
	logger *slog.Logger
}

func NewBuilder(store documents.Store, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, logger: logger}
}

// BuildContext lists up to three documents matching query that the role may
// see for the client. It never fails: a failed search yields the header only.
func (b *Builder) BuildContext(ctx context.Context, query, clientName, role string) string {
	var sb strings.Builder
	sb.WriteString(contextHeader)
	if b == nil || b.store == nil {
		return sb.String()
	}

	docs, err := b.store.Search(ctx, documents.Query{Text: query, Role: role, Client: clientName})
	if err != nil {
		b.logger.WarnContext(ctx, "knowledge base search failed", "query", query, "error", err)
		return sb.String()
	}
	if len(docs) > contextDocs {
		docs = docs[:contextDocs]
	}
	for _, d := range docs {
		fmt.Fprintf(&sb, "Document: %s\n", d.FileName)
		fmt.Fprintf(&sb, "Type: %s\n", d.Type)
		fmt.Fprintf(&sb, "Date: %s\n", d.CreatedAt.Format(documents.DateLayout))
		fmt.Fprintf(&sb, "Content Preview: %s...\n", preview(d.Content, previewLength))
		sb.WriteString(strings.Repeat("-", separatorWidth))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func preview(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
