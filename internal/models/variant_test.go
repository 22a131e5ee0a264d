package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityVariant(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	tests := []struct {
		name     string
		activity Activity
		want     Variant
		wantErr  bool
	}{
		{"good deed", Activity{Type: ActivityTypeGoodDeed}, SimpleVariant{Type: ActivityTypeGoodDeed}, false},
		{"quote", Activity{Type: ActivityTypeQuote}, SimpleVariant{Type: ActivityTypeQuote}, false},
		{"puzzle", Activity{Type: ActivityTypePuzzle, Answer: "42"}, PuzzleVariant{Answer: "42"}, false},
		{"happening", Activity{Type: ActivityTypeHappening, StartDate: &start, EndDate: &end}, HappeningVariant{StartDate: start, EndDate: end}, false},
		{"happening without dates", Activity{Type: ActivityTypeHappening}, nil, true},
		{"challenge", Activity{Type: ActivityTypeChallenge}, ChallengeVariant{}, false},
		{"unknown", Activity{Type: ActivityType(99)}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.activity.Variant()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHappeningWindows(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	h := HappeningVariant{StartDate: start, EndDate: end}
	tick := time.Nanosecond

	assert.False(t, h.InProgress(start.Add(-tick)))
	assert.True(t, h.InProgress(start))
	assert.True(t, h.InProgress(end))
	assert.False(t, h.InProgress(end.Add(tick)))

	assert.False(t, h.Ended(end))
	assert.True(t, h.Ended(end.Add(tick)))

	window := 10 * 24 * time.Hour
	assert.False(t, h.CompletionOpen(end.Add(-tick), window))
	assert.True(t, h.CompletionOpen(end, window))
	assert.True(t, h.CompletionOpen(end.Add(window), window))
	assert.False(t, h.CompletionOpen(end.Add(window+tick), window))
}

func TestSkillSpecialSatisfied(t *testing.T) {
	challenge := ActivityTypeChallenge
	single := SkillSpecial{ActivityTypeOne: ActivityTypePuzzle, RequiredLevel: 3}
	combo := SkillSpecial{ActivityTypeOne: ActivityTypePuzzle, ActivityTypeTwo: &challenge, RequiredLevel: 2}

	levels := map[ActivityType]int{ActivityTypePuzzle: 3, ActivityTypeChallenge: 1}
	assert.True(t, single.Satisfied(levels))
	assert.False(t, combo.Satisfied(levels))

	levels[ActivityTypeChallenge] = 2
	assert.True(t, combo.Satisfied(levels))
	assert.True(t, combo.IsCombination())
	assert.False(t, single.IsCombination())
}

func TestActivityTypeAndResolution(t *testing.T) {
	assert.Equal(t, "happening", ActivityTypeHappening.String())
	assert.False(t, ActivityType(0).Valid())
	assert.Len(t, AllActivityTypes(), 6)

	a := Activity{Resolution: ResolutionUnresolved}
	assert.False(t, a.IsResolved())
	a.Resolve(0)
	assert.True(t, a.IsResolved())
	require.NotNil(t, a.XpReward)
	assert.Equal(t, 0, *a.XpReward)
}
