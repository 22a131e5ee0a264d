package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/skillquest/skillquest/internal/models"
)

// ActivityRepository handles activity, proposal and creation-counter queries.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// GetByID retrieves an activity with its owner, attendances and happening media.
func (r *ActivityRepository) GetByID(ctx context.Context, id uint) (*models.Activity, error) {
	var activity models.Activity
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Attendances").
		Preload("HappeningMedia").
		First(&activity, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get activity %d: %w", id, notFound(err))
	}
	return &activity, nil
}

// ListByUser retrieves the activities owned by a user, newest first.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID uint) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activities for user %d: %w", userID, err)
	}
	return activities, nil
}

// GetPendingByID retrieves a proposal with its owner.
func (r *ActivityRepository) GetPendingByID(ctx context.Context, id uint) (*models.PendingActivity, error) {
	var pending models.PendingActivity
	if err := r.db.WithContext(ctx).Preload("User").First(&pending, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get pending activity %d: %w", id, notFound(err))
	}
	return &pending, nil
}

// ListPending retrieves all proposals awaiting moderation, oldest first.
func (r *ActivityRepository) ListPending(ctx context.Context) ([]models.PendingActivity, error) {
	var pending []models.PendingActivity
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending activities: %w", err)
	}
	return pending, nil
}

// CountCreations counts proposals of a type a user made since the given time.
func (r *ActivityRepository) CountCreations(ctx context.Context, userID uint, activityType models.ActivityType, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ActivityCreationCounter{}).
		Where("user_id = ? AND activity_type_id = ? AND date_created >= ?", userID, activityType, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count creations for user %d: %w", userID, err)
	}
	return count, nil
}

// DeleteCreationsBefore purges creation counters older than cutoff.
func (r *ActivityRepository) DeleteCreationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("date_created < ?", cutoff).
		Delete(&models.ActivityCreationCounter{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete creation counters: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountOwnedSince counts activities per owner created at or after since.
func (r *ActivityRepository) CountOwnedSince(ctx context.Context, since time.Time) (map[uint]int64, error) {
	var rows []userCount
	err := r.db.WithContext(ctx).Model(&models.Activity{}).
		Select("user_id, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count activities per user: %w", err)
	}
	return countsByUser(rows), nil
}
