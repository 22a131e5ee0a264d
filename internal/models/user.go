package models

import (
	"time"
)

// User is a participant. Xp drives the potential level; CurrentLevel is the
// number of skill points the user has allocated.
type User struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Username       string        `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Email          string        `gorm:"size:255" json:"-"`
	Xp             int           `gorm:"not null;default:0" json:"xp"`
	CurrentLevel   int           `gorm:"not null;default:0" json:"current_level"`
	SkillSpecialID *uint         `json:"skill_special_id"`
	SkillSpecial   *SkillSpecial `gorm:"foreignKey:SkillSpecialID" json:"skill_special,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}
