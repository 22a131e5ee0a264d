package leaderboard

import (
	"context"

	"github.com/skillquest/skillquest/internal/apperr"
	"github.com/skillquest/skillquest/internal/repository"
)

// UserStats represents comprehensive statistics for a user. The embedded
// entry is ranked by lifetime XP; MetricRank is the rank for Metric.
type UserStats struct {
	Entry
	Period          string `json:"period"`
	Metric          string `json:"metric"`
	MetricRank      int    `json:"metric_rank"`
	LifetimeReviews int64  `json:"lifetime_reviews"`
}

// GetUserStats returns a user's XP leaderboard entry with period counts and
// the user's rank for metric (XP when empty).
func (s *Service) GetUserStats(ctx context.Context, userID uint, period, metric string) (*UserStats, error) {
	if metric == "" {
		metric = MetricXp
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, apperr.Lookup(err, repository.ErrNotFound, "user", userID)
	}

	entries, err := s.GetLeaderboard(ctx, period, MetricXp, 0)
	if err != nil {
		return nil, err
	}

	lifetime, err := s.reviewRepo.CountForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Fatal("failed to count reviews", err)
	}

	for _, entry := range entries {
		if entry.UserID != userID {
			continue
		}
		rank := entry.Rank
		if metric != MetricXp {
			if rank, err = s.GetUserRank(ctx, userID, period, metric); err != nil {
				return nil, err
			}
		}
		return &UserStats{
			Entry:           entry,
			Period:          period,
			Metric:          metric,
			MetricRank:      rank,
			LifetimeReviews: lifetime,
		}, nil
	}

	return nil, apperr.NotFound("user", userID)
}
