package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/skillquest/skillquest/internal/models"
)

// ReviewRepository handles peer review queries.
type ReviewRepository struct {
	db *DB
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// FindReview returns the reviewer's review of an activity, or nil if none exists.
func (r *ReviewRepository) FindReview(ctx context.Context, reviewerID, activityID uint) (*models.UserReview, error) {
	var review models.UserReview
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_id = ?", reviewerID, activityID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review of user %d for activity %d: %w", reviewerID, activityID, err)
	}
	return &review, nil
}

// CountForUser counts the reviews a user has given.
func (r *ReviewRepository) CountForUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserReview{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews for user %d: %w", userID, err)
	}
	return count, nil
}

// ListByActivity returns every review of an activity.
func (r *ReviewRepository) ListByActivity(ctx context.Context, activityID uint) ([]models.UserReview, error) {
	var reviews []models.UserReview
	err := r.db.WithContext(ctx).Where("activity_id = ?", activityID).Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for activity %d: %w", activityID, err)
	}
	return reviews, nil
}

// CountGivenSince counts reviews per reviewer created at or after since.
func (r *ReviewRepository) CountGivenSince(ctx context.Context, since time.Time) (map[uint]int64, error) {
	var rows []userCount
	err := r.db.WithContext(ctx).Model(&models.UserReview{}).
		Select("user_id, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews per user: %w", err)
	}
	return countsByUser(rows), nil
}
