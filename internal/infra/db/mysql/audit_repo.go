package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/swethakommuri/GEN-AI-DEMO/internal/domain/audit"
)

var _ domain.Repository = (*AuditRepository)(nil)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Save inserts a generation record
func (r *AuditRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO generation_audit
  (id, session_id, role_name, client_name, model, outcome, attempts, continued, reason, response, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  outcome=VALUES(outcome), attempts=VALUES(attempts), continued=VALUES(continued),
  reason=VALUES(reason), response=VALUES(response);
`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(a.SessionID), stringOrDash(a.Role), stringOrDash(a.Client), stringOrDash(a.Model),
		a.Outcome, a.Attempts, a.Continued, a.Reason, a.Response, createdAt)
	return err
}

// Paginate returns a page of generation records ordered by created_at desc
func (r *AuditRepository) Paginate(ctx context.Context, client string, page, pageSize int) ([]*domain.Record, error) {
	limit, offset := pageBounds(page, pageSize)

	const q = `
SELECT id, session_id, role_name, client_name, model, outcome, attempts, continued, reason, response, created_at
FROM generation_audit
WHERE (? = '' OR client_name = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, client, client, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var a domain.Record
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Role, &a.Client, &a.Model, &a.Outcome,
			&a.Attempts, &a.Continued, &a.Reason, &a.Response, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
