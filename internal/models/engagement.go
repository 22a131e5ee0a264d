package models

import (
	"time"
)

// UserAttendance records a user's intent to take part in a Happening.
type UserAttendance struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_attendance_user_activity" json:"user_id"`
	ActivityID uint      `gorm:"not null;uniqueIndex:idx_attendance_user_activity;index" json:"activity_id"`
	Confirmed  bool      `gorm:"not null;default:false" json:"confirmed"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for UserAttendance model.
func (UserAttendance) TableName() string {
	return "user_attendances"
}

// UserPuzzleAnswer marks that a user has spent their single attempt at a Puzzle.
type UserPuzzleAnswer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_puzzle_answer_user_activity" json:"user_id"`
	ActivityID uint      `gorm:"not null;uniqueIndex:idx_puzzle_answer_user_activity" json:"activity_id"`
	Correct    bool      `gorm:"not null;default:false" json:"correct"`
	AnsweredAt time.Time `gorm:"not null" json:"answered_at"`
}

// TableName specifies the table name for UserPuzzleAnswer model.
func (UserPuzzleAnswer) TableName() string {
	return "user_puzzle_answers"
}

// UserChallengeAnswer is a submission to a Challenge. Confirmed marks the
// answer the owner selected as the winner.
type UserChallengeAnswer struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;uniqueIndex:idx_challenge_answer_user_activity" json:"user_id"`
	User        User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ActivityID  uint             `gorm:"not null;uniqueIndex:idx_challenge_answer_user_activity;index" json:"activity_id"`
	Activity    Activity         `gorm:"foreignKey:ActivityID" json:"-"`
	Description string           `gorm:"type:text" json:"description"`
	Confirmed   bool             `gorm:"not null;default:false" json:"confirmed"`
	SubmittedAt time.Time        `gorm:"not null" json:"submitted_at"`
	Media       []ChallengeMedia `gorm:"foreignKey:UserChallengeAnswerID" json:"media,omitempty"`
}

// TableName specifies the table name for UserChallengeAnswer model.
func (UserChallengeAnswer) TableName() string {
	return "user_challenge_answers"
}

// ChallengeMedia is a stored photo attached to a challenge answer.
type ChallengeMedia struct {
	ID                    uint   `gorm:"primaryKey" json:"id"`
	UserChallengeAnswerID uint   `gorm:"not null;index" json:"user_challenge_answer_id"`
	PublicID              string `gorm:"size:255;not null" json:"public_id"`
	URL                   string `gorm:"type:text;not null" json:"url"`
}

// TableName specifies the table name for ChallengeMedia model.
func (ChallengeMedia) TableName() string {
	return "challenge_media"
}

// HappeningMedia is completion evidence uploaded by a Happening owner.
type HappeningMedia struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ActivityID uint   `gorm:"not null;index" json:"activity_id"`
	PublicID   string `gorm:"size:255;not null" json:"public_id"`
	URL        string `gorm:"type:text;not null" json:"url"`
}

// TableName specifies the table name for HappeningMedia model.
func (HappeningMedia) TableName() string {
	return "happening_media"
}
