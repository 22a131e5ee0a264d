package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/skillquest/skillquest/internal/cache"
	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/pkg/logger"
)

// RewardRepository reads the review XP reference table, caching rows in Redis.
type RewardRepository struct {
	db    *DB
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewRewardRepository creates a new reward repository. c may be nil to disable caching.
func NewRewardRepository(db *DB, c cache.Cache, ttl time.Duration, log *logger.Logger) *RewardRepository {
	return &RewardRepository{db: db, cache: c, ttl: ttl, log: log}
}

func reviewXpKey(activityType models.ActivityType, reviewType models.ReviewType) string {
	return fmt.Sprintf("reward:review_xp:%d:%d", activityType, reviewType)
}

// ReviewXp returns the XP for a review type on an activity type.
func (r *RewardRepository) ReviewXp(ctx context.Context, activityType models.ActivityType, reviewType models.ReviewType) (int, error) {
	key := reviewXpKey(activityType, reviewType)

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, key)
		if err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("Review XP cache read failed")
		} else if cached != "" {
			if xp, convErr := strconv.Atoi(cached); convErr == nil {
				return xp, nil
			}
		}
	}

	var row models.ActivityReviewXp
	err := r.db.WithContext(ctx).
		Where("activity_type_id = ? AND review_type_id = ?", activityType, reviewType).
		First(&row).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get review xp for %s/%s: %w", activityType, reviewType, notFound(err))
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, row.Xp, r.ttl); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("Review XP cache write failed")
		}
	}

	return row.Xp, nil
}
