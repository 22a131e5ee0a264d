package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/skillquest/skillquest/internal/models"
)

// EngagementRepository handles attendance, puzzle answer and challenge answer queries.
type EngagementRepository struct {
	db *DB
}

// NewEngagementRepository creates a new engagement repository.
func NewEngagementRepository(db *DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// FindAttendance returns the user's attendance for an activity, or nil if none exists.
func (r *EngagementRepository) FindAttendance(ctx context.Context, userID, activityID uint) (*models.UserAttendance, error) {
	var attendance models.UserAttendance
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_id = ?", userID, activityID).
		First(&attendance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance of user %d for activity %d: %w", userID, activityID, err)
	}
	return &attendance, nil
}

// ListAttendances returns every attendance row of an activity.
func (r *EngagementRepository) ListAttendances(ctx context.Context, activityID uint) ([]models.UserAttendance, error) {
	var attendances []models.UserAttendance
	err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("created_at ASC").
		Find(&attendances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances for activity %d: %w", activityID, err)
	}
	return attendances, nil
}

// HasPuzzleAnswer reports whether the user already spent their attempt.
func (r *EngagementRepository) HasPuzzleAnswer(ctx context.Context, userID, activityID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserPuzzleAnswer{}).
		Where("user_id = ? AND activity_id = ?", userID, activityID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check puzzle answer of user %d: %w", userID, err)
	}
	return count > 0, nil
}

// GetChallengeAnswer retrieves an answer with its parent activity and media.
func (r *EngagementRepository) GetChallengeAnswer(ctx context.Context, id uint) (*models.UserChallengeAnswer, error) {
	var answer models.UserChallengeAnswer
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Activity").
		Preload("Activity.User").
		Preload("Media").
		First(&answer, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge answer %d: %w", id, notFound(err))
	}
	return &answer, nil
}

// FindChallengeAnswer returns the user's live answer to a challenge, or nil if none exists.
func (r *EngagementRepository) FindChallengeAnswer(ctx context.Context, userID, activityID uint) (*models.UserChallengeAnswer, error) {
	var answer models.UserChallengeAnswer
	err := r.db.WithContext(ctx).
		Preload("Media").
		Where("user_id = ? AND activity_id = ?", userID, activityID).
		First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge answer of user %d for activity %d: %w", userID, activityID, err)
	}
	return &answer, nil
}

// ListChallengeAnswers returns every answer of a challenge with media.
func (r *EngagementRepository) ListChallengeAnswers(ctx context.Context, activityID uint) ([]models.UserChallengeAnswer, error) {
	var answers []models.UserChallengeAnswer
	err := r.db.WithContext(ctx).
		Preload("Media").
		Where("activity_id = ?", activityID).
		Order("submitted_at ASC").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list challenge answers for activity %d: %w", activityID, err)
	}
	return answers, nil
}

// GetConfirmedAnswers returns the answers of a challenge selected by its owner.
func (r *EngagementRepository) GetConfirmedAnswers(ctx context.Context, activityID uint) ([]models.UserChallengeAnswer, error) {
	var answers []models.UserChallengeAnswer
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND confirmed = ?", activityID, true).
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get confirmed answers for activity %d: %w", activityID, err)
	}
	return answers, nil
}
