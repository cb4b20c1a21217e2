package audit

import "context"

// Repository port for persisting and querying generation records
type Repository interface {
	Save(ctx context.Context, r *Record) error
	// Paginate lists records newest first. An empty client lists all clients.
	Paginate(ctx context.Context, client string, page, pageSize int) ([]*Record, error)
}
