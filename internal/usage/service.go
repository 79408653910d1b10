// Package usage computes per-user activity rollups for a project: trace
// counts and timestamp bounds, token sums over observations, and the most
// recent score on any of the user's traces.
package usage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tracehub/internal/models"
)

var (
	// ErrInvalidLimit is returned when limit < 1
	ErrInvalidLimit = errors.New("limit must be at least 1")

	// ErrInvalidPage is returned when page < 0
	ErrInvalidPage = errors.New("page must not be negative")
)

// Store is the read surface the service aggregates over. Implemented by
// storage.UsageRepository.
type Store interface {
	// ListUserUsage returns one page of rollups ordered by total tokens
	// descending, plus the total group count for the filter.
	ListUserUsage(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]*models.UserUsage, int64, error)

	// GetUserUsage returns the rollup for one user, nil when the user has no
	// qualifying traces.
	GetUserUsage(ctx context.Context, projectID uuid.UUID, userID string) (*models.UserUsage, error)

	// LastScores returns the rank-1 score per user for the given user set.
	LastScores(ctx context.Context, projectID uuid.UUID, userIDs []string) ([]*models.UserScore, error)
}

// Service answers usage questions for a project. Stateless between calls;
// consistency between the rollup query and the score query is whatever the
// store provides, which is acceptable within a single request.
type Service struct {
	store Store
}

// NewService creates a new aggregation service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListUserUsage returns a page of per-user rollups with each user's most
// recent score attached, plus the total number of users matching the filter.
//
// When the page is empty the score query is skipped entirely and an empty
// page with total 0 is returned.
func (s *Service) ListUserUsage(ctx context.Context, projectID uuid.UUID, limit, page int) ([]*models.UserUsage, int64, error) {
	if limit < 1 {
		return nil, 0, ErrInvalidLimit
	}
	if page < 0 {
		return nil, 0, ErrInvalidPage
	}

	usages, total, err := s.store.ListUserUsage(ctx, projectID, limit, page*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("usage query failed: %w", err)
	}

	if len(usages) == 0 {
		return []*models.UserUsage{}, 0, nil
	}

	userIDs := make([]string, 0, len(usages))
	for _, usage := range usages {
		userIDs = append(userIDs, usage.UserID)
	}

	scores, err := s.store.LastScores(ctx, projectID, userIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("last-score query failed: %w", err)
	}

	attachLastScores(usages, scores)
	return usages, total, nil
}

// GetUserUsage returns the rollup for a single user. An unknown user yields
// a zero-valued rollup, indistinguishable from a known user with no events.
func (s *Service) GetUserUsage(ctx context.Context, projectID uuid.UUID, userID string) (*models.UserUsage, error) {
	usage, err := s.store.GetUserUsage(ctx, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("usage query failed: %w", err)
	}

	if usage == nil {
		usage = &models.UserUsage{UserID: userID}
	}

	scores, err := s.store.LastScores(ctx, projectID, []string{userID})
	if err != nil {
		return nil, fmt.Errorf("last-score query failed: %w", err)
	}

	attachLastScores([]*models.UserUsage{usage}, scores)
	return usage, nil
}

// attachLastScores left-joins the ranked scores onto the rollups by user id.
// Users without a score row keep LastScore nil.
func attachLastScores(usages []*models.UserUsage, scores []*models.UserScore) {
	byUser := make(map[string]*models.Score, len(scores))
	for _, score := range scores {
		s := score.Score
		byUser[score.UserID] = &s
	}

	for _, usage := range usages {
		if score, ok := byUser[usage.UserID]; ok {
			usage.LastScore = score
		}
	}
}
