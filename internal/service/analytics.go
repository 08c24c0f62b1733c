package service

import (
	"context"

	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

// AnalyticsService recomputes aggregates from the live rows on every call;
// nothing is cached, so the numbers can never go stale.
type AnalyticsService interface {
	Summary(ctx context.Context) (*models.Analytics, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type analyticsService struct {
	store storage.Store
}

func NewAnalyticsService(store storage.Store) AnalyticsService {
	return &analyticsService{store: store}
}

func (s *analyticsService) Summary(ctx context.Context) (*models.Analytics, error) {
	a, err := s.store.Analytics(ctx)
	if err != nil {
		return nil, mapStorageError("analytics", err)
	}
	return a, nil
}

func (s *analyticsService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, mapStorageError("leaderboard", err)
	}
	return entries, nil
}
