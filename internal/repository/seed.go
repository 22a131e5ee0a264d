package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/rewards"
	"github.com/skillquest/skillquest/pkg/logger"
)

type referenceSeed struct {
	name     string
	rows     interface{}
	count    int
	conflict clause.OnConflict
	// prune removes rows the reward table no longer lists.
	prune func(tx *gorm.DB) *gorm.DB
}

func onConflict(update []string, keys ...string) clause.OnConflict {
	columns := make([]clause.Column, 0, len(keys))
	for _, k := range keys {
		columns = append(columns, clause.Column{Name: k})
	}
	return clause.OnConflict{Columns: columns, DoUpdates: clause.AssignmentColumns(update)}
}

// SeedReferenceData upserts the reference tables from the reward table, so
// edits to the reward table file take effect on the next start.
func SeedReferenceData(ctx context.Context, db *DB, table *rewards.Table, log *logger.Logger) error {
	reviewXp := table.ReviewXpRows()
	xpLevels := table.XpLevelRows()
	ladder := table.SkillActivityRows()
	specials := table.SkillSpecialRows()

	names := make([]string, 0, len(specials))
	for _, s := range specials {
		names = append(names, s.Name)
	}

	seeds := []referenceSeed{
		{
			name:     "activity_review_xps",
			rows:     &reviewXp,
			count:    len(reviewXp),
			conflict: onConflict([]string{"xp"}, "activity_type_id", "review_type_id"),
		},
		{
			name:     "xp_levels",
			rows:     &xpLevels,
			count:    len(xpLevels),
			conflict: onConflict([]string{"xp"}, "level"),
			prune: func(tx *gorm.DB) *gorm.DB {
				return tx.Where("level > ?", len(xpLevels)).Delete(&models.XpLevel{})
			},
		},
		{
			name:     "skill_activities",
			rows:     &ladder,
			count:    len(ladder),
			conflict: onConflict([]string{"counter"}, "level"),
			prune: func(tx *gorm.DB) *gorm.DB {
				return tx.Where("level > ?", len(ladder)).Delete(&models.SkillActivity{})
			},
		},
		{
			name:  "skill_specials",
			rows:  &specials,
			count: len(specials),
			conflict: onConflict(
				[]string{"description", "activity_type_one_id", "activity_type_two_id", "required_level"},
				"name",
			),
			prune: func(tx *gorm.DB) *gorm.DB {
				return tx.Where("name NOT IN ?", names).Delete(&models.SkillSpecial{})
			},
		},
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, seed := range seeds {
			if seed.count == 0 {
				continue
			}
			if err := tx.Clauses(seed.conflict).Create(seed.rows).Error; err != nil {
				return fmt.Errorf("failed to seed %s: %w", seed.name, err)
			}
			if seed.prune != nil {
				if err := seed.prune(tx).Error; err != nil {
					return fmt.Errorf("failed to prune %s: %w", seed.name, err)
				}
			}
			log.Info().Str("table", seed.name).Int("rows", seed.count).Msg("Seeded reference data")
		}
		return nil
	})
}
