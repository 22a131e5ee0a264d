// Package models defines domain models for the activity engagement system.
package models

import (
	"fmt"
	"time"
)

// ActivityType identifies the workflow an activity follows.
type ActivityType int

// ActivityType values. The numeric ids are persisted.
const (
	ActivityTypeGoodDeed ActivityType = iota + 1
	ActivityTypeJoke
	ActivityTypeQuote
	ActivityTypePuzzle
	ActivityTypeHappening
	ActivityTypeChallenge
)

var activityTypeNames = map[ActivityType]string{
	ActivityTypeGoodDeed:  "good_deed",
	ActivityTypeJoke:      "joke",
	ActivityTypeQuote:     "quote",
	ActivityTypePuzzle:    "puzzle",
	ActivityTypeHappening: "happening",
	ActivityTypeChallenge: "challenge",
}

// AllActivityTypes returns every activity type in id order.
func AllActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityTypeGoodDeed,
		ActivityTypeJoke,
		ActivityTypeQuote,
		ActivityTypePuzzle,
		ActivityTypeHappening,
		ActivityTypeChallenge,
	}
}

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	_, ok := activityTypeNames[t]
	return ok
}

func (t ActivityType) String() string {
	if name, ok := activityTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("activity_type(%d)", int(t))
}

// Resolution marks whether the reward of a Puzzle, Happening or Challenge has been settled.
type Resolution string

// Resolution values.
const (
	ResolutionUnresolved Resolution = "unresolved"
	ResolutionResolved   Resolution = "resolved"
)

// Activity is an approved activity. Its Type never changes after creation.
type Activity struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      uint         `gorm:"not null;index" json:"user_id"`
	User        User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type        ActivityType `gorm:"column:activity_type_id;not null;index" json:"activity_type_id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Answer      string       `gorm:"size:255" json:"-"`
	StartDate   *time.Time   `json:"start_date,omitempty"`
	EndDate     *time.Time   `json:"end_date,omitempty"`
	XpReward    *int         `json:"xp_reward,omitempty"`
	Resolution  Resolution   `gorm:"size:20;not null;default:unresolved" json:"resolution"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	Attendances    []UserAttendance `gorm:"foreignKey:ActivityID" json:"attendances,omitempty"`
	HappeningMedia []HappeningMedia `gorm:"foreignKey:ActivityID" json:"happening_media,omitempty"`
}

// TableName specifies the table name for Activity model.
func (Activity) TableName() string {
	return "activities"
}

// IsResolved reports whether the activity's reward has been settled.
func (a *Activity) IsResolved() bool {
	return a.Resolution == ResolutionResolved
}

// Resolve fixes the reward and marks the activity resolved.
func (a *Activity) Resolve(xp int) {
	a.XpReward = &xp
	a.Resolution = ResolutionResolved
}

// PendingActivity is a proposed activity awaiting moderation.
type PendingActivity struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      uint         `gorm:"not null;index" json:"user_id"`
	User        User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type        ActivityType `gorm:"column:activity_type_id;not null" json:"activity_type_id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Answer      string       `gorm:"size:255" json:"-"`
	StartDate   *time.Time   `json:"start_date,omitempty"`
	EndDate     *time.Time   `json:"end_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TableName specifies the table name for PendingActivity model.
func (PendingActivity) TableName() string {
	return "pending_activities"
}

// ToActivity converts an approved proposal into a live activity.
func (p *PendingActivity) ToActivity() *Activity {
	return &Activity{
		UserID:      p.UserID,
		Type:        p.Type,
		Title:       p.Title,
		Description: p.Description,
		Answer:      p.Answer,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Resolution:  ResolutionUnresolved,
	}
}

// ActivityCreationCounter records one proposal of a type by a user.
type ActivityCreationCounter struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      uint         `gorm:"not null;index:idx_creation_counter_user_type" json:"user_id"`
	Type        ActivityType `gorm:"column:activity_type_id;not null;index:idx_creation_counter_user_type" json:"activity_type_id"`
	DateCreated time.Time    `gorm:"not null;index" json:"date_created"`
}

// TableName specifies the table name for ActivityCreationCounter model.
func (ActivityCreationCounter) TableName() string {
	return "activity_creation_counters"
}
