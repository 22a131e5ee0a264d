package models

// Skill is a user's level and qualifying-action counter for one activity type.
type Skill struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"not null;uniqueIndex:idx_skill_user_type" json:"user_id"`
	ActivityType ActivityType `gorm:"column:activity_type_id;not null;uniqueIndex:idx_skill_user_type" json:"activity_type_id"`
	Level        int          `gorm:"not null;default:0" json:"level"`
	Counter      int          `gorm:"not null;default:0" json:"counter"`
}

// TableName specifies the table name for Skill model.
func (Skill) TableName() string {
	return "skills"
}

// SkillActivity is the number of qualifying actions needed to unlock a skill level.
type SkillActivity struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	Level   int  `gorm:"uniqueIndex;not null" json:"level"`
	Counter int  `gorm:"not null" json:"counter"`
}

// TableName specifies the table name for SkillActivity model.
func (SkillActivity) TableName() string {
	return "skill_activities"
}

// SkillSpecial is a bonus unlocked by holding RequiredLevel in one or two activity types.
type SkillSpecial struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Name            string        `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description     string        `gorm:"type:text" json:"description"`
	ActivityTypeOne ActivityType  `gorm:"column:activity_type_one_id;not null" json:"activity_type_one_id"`
	ActivityTypeTwo *ActivityType `gorm:"column:activity_type_two_id" json:"activity_type_two_id,omitempty"`
	RequiredLevel   int           `gorm:"not null" json:"required_level"`
}

// TableName specifies the table name for SkillSpecial model.
func (SkillSpecial) TableName() string {
	return "skill_specials"
}

// IsCombination reports whether the special needs two activity types.
func (s *SkillSpecial) IsCombination() bool {
	return s.ActivityTypeTwo != nil
}

// Satisfied reports whether the given levels unlock the special.
func (s *SkillSpecial) Satisfied(levels map[ActivityType]int) bool {
	if levels[s.ActivityTypeOne] < s.RequiredLevel {
		return false
	}
	if s.ActivityTypeTwo != nil && levels[*s.ActivityTypeTwo] < s.RequiredLevel {
		return false
	}
	return true
}

// XpLevel is one rung of the global XP to level ladder.
type XpLevel struct {
	ID    uint `gorm:"primaryKey" json:"id"`
	Level int  `gorm:"uniqueIndex;not null" json:"level"`
	Xp    int  `gorm:"not null" json:"xp"`
}

// TableName specifies the table name for XpLevel model.
func (XpLevel) TableName() string {
	return "xp_levels"
}
