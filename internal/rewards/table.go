// Package rewards holds the static reward table: base XP per workflow, the
// skill-level bonus, review XP rows and the skill progression ladders.
package rewards

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/skillquest/skillquest/internal/models"
)

// ReviewXpEntry is one (activity type, review type) -> XP row.
type ReviewXpEntry struct {
	ActivityType models.ActivityType `yaml:"activity_type"`
	ReviewType   models.ReviewType   `yaml:"review_type"`
	Xp           int                 `yaml:"xp"`
}

// SpecialEntry describes a skill special.
type SpecialEntry struct {
	Name            string               `yaml:"name"`
	Description     string               `yaml:"description"`
	ActivityTypeOne models.ActivityType  `yaml:"activity_type_one"`
	ActivityTypeTwo *models.ActivityType `yaml:"activity_type_two,omitempty"`
	RequiredLevel   int                  `yaml:"required_level"`
}

// Table is the reward configuration.
type Table struct {
	BaseXp            map[models.ActivityType]int `yaml:"base_xp"`
	LevelBonusPercent int                         `yaml:"level_bonus_percent"`
	ReviewXp          []ReviewXpEntry             `yaml:"review_xp"`
	// XpLevels[i] is the XP needed to reach level i+1.
	XpLevels []int `yaml:"xp_levels"`
	// SkillCounters[i] is the counter needed to unlock skill level i+1.
	SkillCounters []int          `yaml:"skill_counters"`
	Specials      []SpecialEntry `yaml:"specials"`
}

// Default returns the built-in reward table.
func Default() *Table {
	reviewXp := make([]ReviewXpEntry, 0, len(models.AllActivityTypes())*4)
	for _, t := range models.AllActivityTypes() {
		reviewXp = append(reviewXp,
			ReviewXpEntry{ActivityType: t, ReviewType: models.ReviewTypeNone, Xp: 0},
			ReviewXpEntry{ActivityType: t, ReviewType: models.ReviewTypePoor, Xp: 10},
			ReviewXpEntry{ActivityType: t, ReviewType: models.ReviewTypeGood, Xp: 50},
			ReviewXpEntry{ActivityType: t, ReviewType: models.ReviewTypeAwesome, Xp: 200},
		)
	}

	happening := models.ActivityTypeHappening
	challenge := models.ActivityTypeChallenge

	return &Table{
		BaseXp: map[models.ActivityType]int{
			models.ActivityTypePuzzle:    100,
			models.ActivityTypeHappening: 150,
			models.ActivityTypeChallenge: 200,
		},
		LevelBonusPercent: 10,
		ReviewXp:          reviewXp,
		XpLevels:          []int{100, 250, 500, 1000, 2000, 3500, 5500, 8000, 11000, 15000},
		SkillCounters:     []int{1, 3, 6, 10, 15},
		Specials: []SpecialEntry{
			{Name: "Good Samaritan", Description: "Helps out wherever needed", ActivityTypeOne: models.ActivityTypeGoodDeed, RequiredLevel: 3},
			{Name: "Entertainer", Description: "Always good for a laugh", ActivityTypeOne: models.ActivityTypeJoke, RequiredLevel: 3},
			{Name: "Sage", Description: "Words worth remembering", ActivityTypeOne: models.ActivityTypeQuote, RequiredLevel: 3},
			{Name: "Riddler", Description: "Loves a brain teaser", ActivityTypeOne: models.ActivityTypePuzzle, RequiredLevel: 3, ActivityTypeTwo: &challenge},
			{Name: "Organizer", Description: "Brings people together", ActivityTypeOne: models.ActivityTypeHappening, RequiredLevel: 3},
			{Name: "Adventurer", Description: "Shows up and takes the dare", ActivityTypeOne: models.ActivityTypeChallenge, RequiredLevel: 3, ActivityTypeTwo: &happening},
		},
	}
}

// LoadTable reads a YAML reward table. An empty path yields the defaults;
// sections missing from the file keep their default values.
func LoadTable(path string) (*Table, error) {
	table := Default()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reward table: %w", err)
	}
	if err := yaml.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("failed to parse reward table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reward table: %w", err)
	}
	return table, nil
}

// Validate checks the ladders are ascending and references are known.
func (t *Table) Validate() error {
	if t.LevelBonusPercent < 0 {
		return fmt.Errorf("level_bonus_percent must not be negative")
	}
	if !sort.IntsAreSorted(t.XpLevels) {
		return fmt.Errorf("xp_levels must be ascending")
	}
	if !sort.IntsAreSorted(t.SkillCounters) {
		return fmt.Errorf("skill_counters must be ascending")
	}
	for activityType := range t.BaseXp {
		if !activityType.Valid() {
			return fmt.Errorf("base_xp references unknown activity type %d", int(activityType))
		}
	}
	for _, row := range t.ReviewXp {
		if !row.ActivityType.Valid() || !row.ReviewType.Valid() {
			return fmt.Errorf("review_xp row %v/%v is not valid", row.ActivityType, row.ReviewType)
		}
	}
	names := make(map[string]bool, len(t.Specials))
	for _, s := range t.Specials {
		if names[s.Name] {
			return fmt.Errorf("special %q is listed twice", s.Name)
		}
		names[s.Name] = true
		if !s.ActivityTypeOne.Valid() || (s.ActivityTypeTwo != nil && !s.ActivityTypeTwo.Valid()) {
			return fmt.Errorf("special %q references an unknown activity type", s.Name)
		}
	}
	return nil
}

// Scale applies the skill-level bonus to a base XP amount.
func (t *Table) Scale(base, level int) int {
	return base * (100 + level*t.LevelBonusPercent) / 100
}

// RewardFor returns the scaled reward for an engagement workflow.
func (t *Table) RewardFor(activityType models.ActivityType, level int) int {
	return t.Scale(t.BaseXp[activityType], level)
}

// ReviewXpRows converts the review table into persisted rows.
func (t *Table) ReviewXpRows() []models.ActivityReviewXp {
	rows := make([]models.ActivityReviewXp, 0, len(t.ReviewXp))
	for _, r := range t.ReviewXp {
		rows = append(rows, models.ActivityReviewXp{ActivityType: r.ActivityType, ReviewType: r.ReviewType, Xp: r.Xp})
	}
	return rows
}

// XpLevelRows converts the XP ladder into persisted rows.
func (t *Table) XpLevelRows() []models.XpLevel {
	rows := make([]models.XpLevel, 0, len(t.XpLevels))
	for i, xp := range t.XpLevels {
		rows = append(rows, models.XpLevel{Level: i + 1, Xp: xp})
	}
	return rows
}

// SkillActivityRows converts the skill ladder into persisted rows.
func (t *Table) SkillActivityRows() []models.SkillActivity {
	rows := make([]models.SkillActivity, 0, len(t.SkillCounters))
	for i, counter := range t.SkillCounters {
		rows = append(rows, models.SkillActivity{Level: i + 1, Counter: counter})
	}
	return rows
}

// SkillSpecialRows converts the specials into persisted rows.
func (t *Table) SkillSpecialRows() []models.SkillSpecial {
	rows := make([]models.SkillSpecial, 0, len(t.Specials))
	for _, s := range t.Specials {
		rows = append(rows, models.SkillSpecial{
			Name:            s.Name,
			Description:     s.Description,
			ActivityTypeOne: s.ActivityTypeOne,
			ActivityTypeTwo: s.ActivityTypeTwo,
			RequiredLevel:   s.RequiredLevel,
		})
	}
	return rows
}
