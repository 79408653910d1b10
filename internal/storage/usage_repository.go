package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tracehub/internal/models"
)

// UsageRepository computes per-user usage rollups across traces,
// observations and scores. It issues read-only queries and holds no state.
type UsageRepository struct {
	db *DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// userUsageRow is a UserUsage plus the window-function group count.
type userUsageRow struct {
	models.UserUsage
	TotalCount int64 `db:"total_count"`
}

// ListUserUsage returns one page of per-user rollups for a project, ordered
// by total tokens descending, plus the total number of user groups matching
// the filter. The total comes from COUNT(*) OVER() over the grouped result,
// so it is the same for every page.
//
// The observation side of the left join is filtered on project_id after the
// join; null-extended rows are kept so a trace with no observations still
// produces a group with zeroed token sums.
func (r *UsageRepository) ListUserUsage(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.UserUsage, int64, error) {
	query := `
		SELECT
			t.user_id,
			MIN(t."timestamp") AS first_trace,
			MAX(t."timestamp") AS last_trace,
			COUNT(DISTINCT t.id) AS total_traces,
			COALESCE(SUM(o.prompt_tokens), 0) AS total_prompt_tokens,
			COALESCE(SUM(o.completion_tokens), 0) AS total_completion_tokens,
			COALESCE(SUM(o.total_tokens), 0) AS total_tokens,
			MIN(o.start_time) AS first_observation,
			MAX(o.start_time) AS last_observation,
			COUNT(DISTINCT o.id) AS total_observations,
			COUNT(*) OVER() AS total_count
		FROM traces t
		LEFT JOIN observations o ON o.trace_id = t.id
		WHERE t.user_id IS NOT NULL
		  AND t.project_id = $1
		  AND (o.project_id = $1 OR o.id IS NULL)
		GROUP BY t.user_id
		ORDER BY total_tokens DESC
		LIMIT $2 OFFSET $3
	`

	var rows []userUsageRow
	if err := r.db.conn.SelectContext(ctx, &rows, query, projectID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list user usage: %w", err)
	}

	var total int64
	usages := make([]*models.UserUsage, 0, len(rows))
	for i := range rows {
		total = rows[i].TotalCount
		usage := rows[i].UserUsage
		usages = append(usages, &usage)
	}

	return usages, total, nil
}

// GetUserUsage returns the rollup for a single user. The query mirrors
// ListUserUsage scoped to one user_id, capped at 50 rows as a defensive
// bound. A user with no qualifying traces yields nil, not an error.
func (r *UsageRepository) GetUserUsage(ctx context.Context, projectID uuid.UUID, userID string) (*models.UserUsage, error) {
	query := `
		SELECT
			t.user_id,
			MIN(t."timestamp") AS first_trace,
			MAX(t."timestamp") AS last_trace,
			COUNT(DISTINCT t.id) AS total_traces,
			COALESCE(SUM(o.prompt_tokens), 0) AS total_prompt_tokens,
			COALESCE(SUM(o.completion_tokens), 0) AS total_completion_tokens,
			COALESCE(SUM(o.total_tokens), 0) AS total_tokens,
			MIN(o.start_time) AS first_observation,
			MAX(o.start_time) AS last_observation,
			COUNT(DISTINCT o.id) AS total_observations
		FROM traces t
		LEFT JOIN observations o ON o.trace_id = t.id
		WHERE t.user_id IS NOT NULL
		  AND t.project_id = $1
		  AND (o.project_id = $1 OR o.id IS NULL)
		  AND t.user_id = $2
		GROUP BY t.user_id
		ORDER BY total_tokens DESC
		LIMIT 50
	`

	var rows []models.UserUsage
	if err := r.db.conn.SelectContext(ctx, &rows, query, projectID, userID); err != nil {
		return nil, fmt.Errorf("failed to get user usage: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	usage := rows[0]
	return &usage, nil
}

// LastScores returns, for each given user, the most recent score (by
// timestamp) attached to any of that user's traces in the project. Users
// with no qualifying score produce no row. Scores without a trace are
// excluded. The user-id list is bound through sqlx.In, never interpolated.
func (r *UsageRepository) LastScores(ctx context.Context, projectID uuid.UUID, userIDs []string) ([]*models.UserScore, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `
		WITH ranked_scores AS (
			SELECT
				t.user_id,
				s.id, s.trace_id, s.observation_id, s."timestamp", s.name, s.value, s.comment,
				ROW_NUMBER() OVER (PARTITION BY t.user_id ORDER BY s."timestamp" DESC) AS rn
			FROM scores s
			JOIN traces t ON t.id = s.trace_id
			WHERE s.trace_id IS NOT NULL
			  AND t.project_id = ?
			  AND t.user_id IN (?)
			  AND t.user_id IS NOT NULL
		)
		SELECT user_id, id, trace_id, observation_id, "timestamp", name, value, comment
		FROM ranked_scores
		WHERE rn = 1
	`

	query, args, err := sqlx.In(query, projectID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build last-scores query: %w", err)
	}
	query = r.db.conn.Rebind(query)

	var scores []*models.UserScore
	if err := r.db.conn.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get last scores: %w", err)
	}

	return scores, nil
}
