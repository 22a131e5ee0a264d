package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/skillquest/skillquest/internal/models"
)

// SkillRepository handles skills and the progression reference tables.
type SkillRepository struct {
	db *DB
}

// NewSkillRepository creates a new skill repository.
func NewSkillRepository(db *DB) *SkillRepository {
	return &SkillRepository{db: db}
}

// ListByUser returns all skills of a user ordered by activity type.
func (r *SkillRepository) ListByUser(ctx context.Context, userID uint) ([]models.Skill, error) {
	var skills []models.Skill
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("activity_type_id ASC").
		Find(&skills).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list skills for user %d: %w", userID, err)
	}
	return skills, nil
}

// FindSkill returns the user's skill for an activity type, or nil if none exists.
func (r *SkillRepository) FindSkill(ctx context.Context, userID uint, activityType models.ActivityType) (*models.Skill, error) {
	var skill models.Skill
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_type_id = ?", userID, activityType).
		First(&skill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s skill for user %d: %w", activityType, userID, err)
	}
	return &skill, nil
}

// SkillActivities returns the skill level ladder ordered by level.
func (r *SkillRepository) SkillActivities(ctx context.Context) ([]models.SkillActivity, error) {
	var ladder []models.SkillActivity
	if err := r.db.WithContext(ctx).Order("level ASC").Find(&ladder).Error; err != nil {
		return nil, fmt.Errorf("failed to get skill activities: %w", err)
	}
	return ladder, nil
}

// SkillSpecials returns every skill special.
func (r *SkillRepository) SkillSpecials(ctx context.Context) ([]models.SkillSpecial, error) {
	var specials []models.SkillSpecial
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&specials).Error; err != nil {
		return nil, fmt.Errorf("failed to get skill specials: %w", err)
	}
	return specials, nil
}

// XpLevels returns the XP ladder ordered by level.
func (r *SkillRepository) XpLevels(ctx context.Context) ([]models.XpLevel, error) {
	var levels []models.XpLevel
	if err := r.db.WithContext(ctx).Order("level ASC").Find(&levels).Error; err != nil {
		return nil, fmt.Errorf("failed to get xp levels: %w", err)
	}
	return levels, nil
}
