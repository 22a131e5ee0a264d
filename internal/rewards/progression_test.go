package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillquest/skillquest/internal/models"
)

func TestPotentialLevel(t *testing.T) {
	levels := Default().XpLevelRows()

	assert.Equal(t, 0, PotentialLevel(levels, 0))
	assert.Equal(t, 0, PotentialLevel(levels, 99))
	assert.Equal(t, 1, PotentialLevel(levels, 100))
	assert.Equal(t, 3, PotentialLevel(levels, 999))
	assert.Equal(t, 10, PotentialLevel(levels, 1_000_000))
}

func TestMaxSkillLevel(t *testing.T) {
	ladder := Default().SkillActivityRows()

	assert.Equal(t, 0, MaxSkillLevel(ladder, 0))
	assert.Equal(t, 1, MaxSkillLevel(ladder, 2))
	assert.Equal(t, 2, MaxSkillLevel(ladder, 3))
	assert.Equal(t, 5, MaxSkillLevel(ladder, 40))
}

func TestBestSpecial(t *testing.T) {
	specials := Default().SkillSpecialRows()

	none := BestSpecial(specials, map[models.ActivityType]int{models.ActivityTypePuzzle: 2})
	assert.Nil(t, none)

	single := BestSpecial(specials, map[models.ActivityType]int{models.ActivityTypeHappening: 3})
	require.NotNil(t, single)
	assert.Equal(t, "Organizer", single.Name)

	combo := BestSpecial(specials, map[models.ActivityType]int{
		models.ActivityTypeHappening: 3,
		models.ActivityTypeChallenge: 3,
	})
	require.NotNil(t, combo)
	assert.Equal(t, "Adventurer", combo.Name)
}
