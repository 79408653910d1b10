package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracehub/internal/models"
)

// ScoreRepository handles score database operations
type ScoreRepository struct {
	db *DB
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db *DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Create inserts a single score
func (r *ScoreRepository) Create(ctx context.Context, score *models.Score) error {
	prepareScore(score)

	query := `
		INSERT INTO scores (id, trace_id, observation_id, "timestamp", name, value, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.conn.ExecContext(
		ctx, query,
		score.ID, score.TraceID, score.ObservationID,
		score.Timestamp, score.Name, score.Value, score.Comment,
	)
	if err != nil {
		return fmt.Errorf("failed to create score: %w", err)
	}

	return nil
}

// CreateBatch inserts scores in a single transaction
func (r *ScoreRepository) CreateBatch(ctx context.Context, scores []*models.Score) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO scores (id, trace_id, observation_id, "timestamp", name, value, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, score := range scores {
		prepareScore(score)
		if _, err := tx.ExecContext(
			ctx, query,
			score.ID, score.TraceID, score.ObservationID,
			score.Timestamp, score.Name, score.Value, score.Comment,
		); err != nil {
			return fmt.Errorf("failed to insert score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func prepareScore(score *models.Score) {
	if score.ID == uuid.Nil {
		score.ID = uuid.New()
	}
	if score.Timestamp.IsZero() {
		score.Timestamp = time.Now()
	}
}
