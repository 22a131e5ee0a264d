package models

import (
	"fmt"
	"time"
)

// Variant is the workflow-specific view of an Activity. Exactly one of
// SimpleVariant, PuzzleVariant, HappeningVariant or ChallengeVariant.
type Variant interface {
	variant()
}

// SimpleVariant covers activities that are only peer reviewed.
type SimpleVariant struct {
	Type ActivityType
}

// PuzzleVariant carries the stored answer.
type PuzzleVariant struct {
	Answer string
}

// HappeningVariant carries the happening window.
type HappeningVariant struct {
	StartDate time.Time
	EndDate   time.Time
}

// ChallengeVariant has no extra fields.
type ChallengeVariant struct{}

func (SimpleVariant) variant()    {}
func (PuzzleVariant) variant()    {}
func (HappeningVariant) variant() {}
func (ChallengeVariant) variant() {}

// Variant returns the workflow view of the activity.
func (a *Activity) Variant() (Variant, error) {
	switch a.Type {
	case ActivityTypeGoodDeed, ActivityTypeJoke, ActivityTypeQuote:
		return SimpleVariant{Type: a.Type}, nil
	case ActivityTypePuzzle:
		return PuzzleVariant{Answer: a.Answer}, nil
	case ActivityTypeHappening:
		if a.StartDate == nil || a.EndDate == nil {
			return nil, fmt.Errorf("happening %d has no start or end date", a.ID)
		}
		return HappeningVariant{StartDate: *a.StartDate, EndDate: *a.EndDate}, nil
	case ActivityTypeChallenge:
		return ChallengeVariant{}, nil
	default:
		return nil, fmt.Errorf("activity %d has unknown type %d", a.ID, int(a.Type))
	}
}

// Ended reports whether the happening is over at now.
func (h HappeningVariant) Ended(now time.Time) bool {
	return now.After(h.EndDate)
}

// InProgress reports whether now lies within [StartDate, EndDate].
func (h HappeningVariant) InProgress(now time.Time) bool {
	return !now.Before(h.StartDate) && !now.After(h.EndDate)
}

// CompletionOpen reports whether now lies within [EndDate, EndDate+window].
func (h HappeningVariant) CompletionOpen(now time.Time, window time.Duration) bool {
	return !now.Before(h.EndDate) && !now.After(h.EndDate.Add(window))
}
