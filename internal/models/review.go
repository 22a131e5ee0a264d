package models

import (
	"time"
)

// ReviewType is the rating a reviewer gives an activity.
type ReviewType int

// ReviewType values. The numeric ids are persisted.
const (
	ReviewTypeNone ReviewType = iota + 1
	ReviewTypePoor
	ReviewTypeGood
	ReviewTypeAwesome
)

// Valid reports whether r is a known review type.
func (r ReviewType) Valid() bool {
	return r >= ReviewTypeNone && r <= ReviewTypeAwesome
}

func (r ReviewType) String() string {
	switch r {
	case ReviewTypeNone:
		return "none"
	case ReviewTypePoor:
		return "poor"
	case ReviewTypeGood:
		return "good"
	case ReviewTypeAwesome:
		return "awesome"
	default:
		return "unknown"
	}
}

// UserReview is a reviewer's rating of an activity.
type UserReview struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_review_user_activity" json:"user_id"`
	ActivityID uint       `gorm:"not null;uniqueIndex:idx_review_user_activity;index" json:"activity_id"`
	ReviewType ReviewType `gorm:"column:review_type_id;not null" json:"review_type_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for UserReview model.
func (UserReview) TableName() string {
	return "user_reviews"
}

// ActivityReviewXp is the XP awarded for a review of a given type on a given activity type.
type ActivityReviewXp struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	ActivityType ActivityType `gorm:"column:activity_type_id;not null;uniqueIndex:idx_review_xp_type" json:"activity_type_id"`
	ReviewType   ReviewType   `gorm:"column:review_type_id;not null;uniqueIndex:idx_review_xp_type" json:"review_type_id"`
	Xp           int          `gorm:"not null" json:"xp"`
}

// TableName specifies the table name for ActivityReviewXp model.
func (ActivityReviewXp) TableName() string {
	return "activity_review_xps"
}
