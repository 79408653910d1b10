package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracehub/internal/models"
)

// TraceRepository handles trace database operations
type TraceRepository struct {
	db *DB
}

// NewTraceRepository creates a new trace repository
func NewTraceRepository(db *DB) *TraceRepository {
	return &TraceRepository{db: db}
}

// Create inserts a single trace
func (r *TraceRepository) Create(ctx context.Context, trace *models.Trace) error {
	prepareTrace(trace)

	query := `
		INSERT INTO traces (id, project_id, user_id, "timestamp", name, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.conn.ExecContext(
		ctx, query,
		trace.ID, trace.ProjectID, trace.UserID, trace.Timestamp, trace.Name, trace.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to create trace: %w", err)
	}

	return nil
}

// CreateBatch inserts traces in a single transaction
func (r *TraceRepository) CreateBatch(ctx context.Context, traces []*models.Trace) error {
	if len(traces) == 0 {
		return nil
	}

	tx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO traces (id, project_id, user_id, "timestamp", name, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, trace := range traces {
		prepareTrace(trace)
		if _, err := tx.ExecContext(
			ctx, query,
			trace.ID, trace.ProjectID, trace.UserID, trace.Timestamp, trace.Name, trace.Metadata,
		); err != nil {
			return fmt.Errorf("failed to insert trace: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a trace scoped to a project
func (r *TraceRepository) GetByID(ctx context.Context, projectID, id uuid.UUID) (*models.Trace, error) {
	query := `
		SELECT id, project_id, user_id, "timestamp", name, metadata
		FROM traces
		WHERE project_id = $1 AND id = $2
	`

	var trace models.Trace
	err := r.db.conn.GetContext(ctx, &trace, query, projectID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTraceNotFound
		}
		return nil, fmt.Errorf("failed to get trace: %w", err)
	}

	return &trace, nil
}

// Delete removes a trace and its observations and scores. Audit logging of
// the deletion is the caller's responsibility, after the delete commits.
func (r *TraceRepository) Delete(ctx context.Context, projectID, id uuid.UUID) error {
	tx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scores WHERE trace_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete trace scores: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM observations WHERE trace_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete trace observations: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM traces WHERE project_id = $1 AND id = $2`, projectID, id)
	if err != nil {
		return fmt.Errorf("failed to delete trace: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrTraceNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func prepareTrace(trace *models.Trace) {
	if trace.ID == uuid.Nil {
		trace.ID = uuid.New()
	}
	if trace.Timestamp.IsZero() {
		trace.Timestamp = time.Now()
	}
}
