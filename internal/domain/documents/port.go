package documents

import "context"

// Store is a per-session knowledge base.
type Store interface {
	Add(ctx context.Context, doc NewDocument) (string, error)
	// Search returns matches in insertion order.
	Search(ctx context.Context, q Query) ([]Document, error)
}
