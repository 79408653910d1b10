package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracehub/internal/models"
)

// ObservationRepository handles observation database operations
type ObservationRepository struct {
	db *DB
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(db *DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// Create inserts a single observation
func (r *ObservationRepository) Create(ctx context.Context, obs *models.Observation) error {
	prepareObservation(obs)

	query := `
		INSERT INTO observations (
			id, project_id, trace_id, start_time,
			prompt_tokens, completion_tokens, total_tokens
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.conn.ExecContext(
		ctx, query,
		obs.ID, obs.ProjectID, obs.TraceID, obs.StartTime,
		obs.PromptTokens, obs.CompletionTokens, obs.TotalTokens,
	)
	if err != nil {
		return fmt.Errorf("failed to create observation: %w", err)
	}

	return nil
}

// CreateBatch inserts observations in a single transaction
func (r *ObservationRepository) CreateBatch(ctx context.Context, observations []*models.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO observations (
			id, project_id, trace_id, start_time,
			prompt_tokens, completion_tokens, total_tokens
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, obs := range observations {
		prepareObservation(obs)
		if _, err := tx.ExecContext(
			ctx, query,
			obs.ID, obs.ProjectID, obs.TraceID, obs.StartTime,
			obs.PromptTokens, obs.CompletionTokens, obs.TotalTokens,
		); err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func prepareObservation(obs *models.Observation) {
	if obs.ID == uuid.Nil {
		obs.ID = uuid.New()
	}
	if obs.StartTime.IsZero() {
		obs.StartTime = time.Now()
	}
}
