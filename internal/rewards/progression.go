package rewards

import (
	"github.com/skillquest/skillquest/internal/models"
)

// PotentialLevel returns the highest level whose XP threshold xp reaches.
func PotentialLevel(levels []models.XpLevel, xp int) int {
	potential := 0
	for _, l := range levels {
		if xp >= l.Xp && l.Level > potential {
			potential = l.Level
		}
	}
	return potential
}

// MaxSkillLevel returns the highest skill level unlocked by counter.
func MaxSkillLevel(ladder []models.SkillActivity, counter int) int {
	maxLevel := 0
	for _, step := range ladder {
		if counter >= step.Counter && step.Level > maxLevel {
			maxLevel = step.Level
		}
	}
	return maxLevel
}

// BestSpecial picks the special unlocked by levels with the highest required
// level, preferring two-type combinations on ties. Returns nil when none applies.
func BestSpecial(specials []models.SkillSpecial, levels map[models.ActivityType]int) *models.SkillSpecial {
	var best *models.SkillSpecial
	for i := range specials {
		s := &specials[i]
		if !s.Satisfied(levels) {
			continue
		}
		switch {
		case best == nil:
			best = s
		case s.RequiredLevel > best.RequiredLevel:
			best = s
		case s.RequiredLevel == best.RequiredLevel && s.IsCombination() && !best.IsCombination():
			best = s
		}
	}
	return best
}
