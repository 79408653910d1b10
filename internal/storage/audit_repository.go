package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tracehub/internal/models"
)

// AuditLogRepository handles audit log database operations. The table is
// append-only: there is no update or delete path here.
type AuditLogRepository struct {
	db *DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Insert writes a single audit log entry. The caller commits the guarded
// mutation first; this is one standalone insert, not part of that
// transaction.
func (r *AuditLogRepository) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO audit_logs (
			id, project_id, user_id, user_project_role,
			resource_type, resource_id, action, before, after
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.db.conn.QueryRowxContext(
		ctx, query,
		entry.ID, entry.ProjectID, entry.UserID, entry.UserProjectRole,
		entry.ResourceType, entry.ResourceID, entry.Action, entry.Before, entry.After,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// AuditLogFilter narrows List results. ProjectID is mandatory; the rest are
// optional.
type AuditLogFilter struct {
	ProjectID    uuid.UUID
	UserID       string
	ResourceType models.ResourceType
	ResourceID   string
	Limit        int
}

// List retrieves audit log entries for a project, newest first. The limit
// defaults to 100 and is capped at 500.
func (r *AuditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]*models.AuditLogEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	query := `
		SELECT id, created_at, project_id, user_id, user_project_role,
		       resource_type, resource_id, action, before, after
		FROM audit_logs
		WHERE project_id = $1
	`
	args := []interface{}{filter.ProjectID}
	argPos := 2

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argPos)
		args = append(args, filter.UserID)
		argPos++
	}

	if filter.ResourceType != "" {
		query += fmt.Sprintf(" AND resource_type = $%d", argPos)
		args = append(args, filter.ResourceType)
		argPos++
	}

	if filter.ResourceID != "" {
		query += fmt.Sprintf(" AND resource_id = $%d", argPos)
		args = append(args, filter.ResourceID)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argPos)
	args = append(args, limit)

	var entries []*models.AuditLogEntry
	if err := r.db.conn.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return entries, nil
}
