package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/crucial707/remote-inspect/internal/models"
)

// AuditRepo persists audit log entries.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// AuditFilter narrows List and Count. Zero values match everything.
type AuditFilter struct {
	ResourceType string
	UserID       int
}

func (f AuditFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.ResourceType != "" {
		args = append(args, f.ResourceType)
		conds = append(conds, fmt.Sprintf("a.resource_type = $%d", len(args)))
	}
	if f.UserID > 0 {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("a.user_id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Log records an audit entry. action is create|update|delete.
func (r *AuditRepo) Log(ctx context.Context, userID int, action, resourceType string, resourceID int, details string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, action, resource_type, resource_id, details) VALUES ($1, $2, $3, $4, $5)`,
		userID, action, resourceType, resourceID, details,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns audit entries matching f, newest first, with the actor's username.
func (r *AuditRepo) List(ctx context.Context, f AuditFilter, limit, offset int) ([]models.AuditEntry, error) {
	clause, args := f.where()
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT a.id, a.user_id, COALESCE(u.username, ''), a.action, a.resource_type, a.resource_id,
		       COALESCE(a.details, ''), a.created_at
		FROM audit_log a
		LEFT JOIN users u ON u.id = a.user_id%s
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $%d OFFSET $%d`, clause, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.Action, &e.ResourceType, &e.ResourceID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of entries matching f.
func (r *AuditRepo) Count(ctx context.Context, f AuditFilter) (int, error) {
	clause, args := f.where()
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log a`+clause, args...).Scan(&n)
	return n, err
}
