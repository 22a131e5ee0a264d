// Package skills implements skill progression: XP credit, per-type counters,
// skill point allocation and skill specials.
package skills

import (
	"context"

	"github.com/skillquest/skillquest/internal/apperr"
	prommetrics "github.com/skillquest/skillquest/internal/metrics"
	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/internal/rewards"
	"github.com/skillquest/skillquest/pkg/logger"
)

// SkillRepository interface for skill operations.
type SkillRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Skill, error)
	FindSkill(ctx context.Context, userID uint, activityType models.ActivityType) (*models.Skill, error)
	SkillActivities(ctx context.Context) ([]models.SkillActivity, error)
	SkillSpecials(ctx context.Context) ([]models.SkillSpecial, error)
	XpLevels(ctx context.Context) ([]models.XpLevel, error)
}

// UserRepository interface for user operations.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// SkillEntry is one activity type's progress.
type SkillEntry struct {
	Type     models.ActivityType `json:"activity_type_id"`
	Name     string              `json:"name"`
	Level    int                 `json:"level"`
	Counter  int                 `json:"counter"`
	MaxLevel int                 `json:"max_level"`
}

// SkillData is the skill overview of a user.
type SkillData struct {
	UserID         uint                 `json:"user_id"`
	Xp             int                  `json:"xp"`
	CurrentLevel   int                  `json:"current_level"`
	PotentialLevel int                  `json:"potential_level"`
	Skills         []SkillEntry         `json:"skills"`
	SkillSpecial   *models.SkillSpecial `json:"skill_special,omitempty"`
}

// Service handles skill progression.
type Service struct {
	skillRepo SkillRepository
	userRepo  UserRepository
	uow       repository.UnitOfWork
	log       *logger.Logger
}

// NewService creates a new skills service.
func NewService(
	skillRepo *repository.SkillRepository,
	userRepo *repository.UserRepository,
	uow *repository.GormUnitOfWork,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(skillRepo, userRepo, uow, log)
}

// NewServiceWithInterfaces creates a new skills service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	skillRepo SkillRepository,
	userRepo UserRepository,
	uow repository.UnitOfWork,
	log *logger.Logger,
) *Service {
	return &Service{
		skillRepo: skillRepo,
		userRepo:  userRepo,
		uow:       uow,
		log:       log.Component("skills"),
	}
}

// SkillLevel returns the user's level in one activity type, 0 when untrained.
func (s *Service) SkillLevel(ctx context.Context, userID uint, activityType models.ActivityType) (int, error) {
	skill, err := s.skillRepo.FindSkill(ctx, userID, activityType)
	if err != nil {
		return 0, apperr.Fatal("failed to load skill", err)
	}
	if skill == nil {
		return 0, nil
	}
	return skill.Level, nil
}

// Award stages xp for user and one more qualifying action in activityType.
// The caller owns the batch and the commit.
func (s *Service) Award(ctx context.Context, batch *repository.Batch, user *models.User, activityType models.ActivityType, xp int) error {
	skill, err := s.skillRepo.FindSkill(ctx, user.ID, activityType)
	if err != nil {
		return apperr.Fatal("failed to load skill", err)
	}
	if skill == nil {
		batch.Create(&models.Skill{UserID: user.ID, ActivityType: activityType, Counter: 1})
	} else {
		skill.Counter++
		batch.Save(skill)
	}

	s.AdjustXp(batch, user, xp)
	prommetrics.RecordXpAwarded(activityType.String(), xp)

	s.log.Debug().
		Uint("user_id", user.ID).
		Str("activity_type", activityType.String()).
		Int("xp", xp).
		Msg("Staged skill award")
	return nil
}

// AdjustXp stages an XP change for user. A zero delta stages nothing.
func (s *Service) AdjustXp(batch *repository.Batch, user *models.User, delta int) {
	if delta == 0 {
		return
	}
	user.Xp += delta
	batch.Save(user)
}

// GetSkillsData returns the skill overview of a user.
func (s *Service) GetSkillsData(ctx context.Context, userID uint) (*SkillData, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	skills, err := s.skillRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Fatal("failed to list skills", err)
	}
	return s.buildSkillData(ctx, user, skills)
}

// UpdateSkillsData allocates skill points. levels maps activity types to their
// new level; types not present keep their current level.
func (s *Service) UpdateSkillsData(ctx context.Context, userID uint, levels map[models.ActivityType]int) (*SkillData, error) {
	for t, level := range levels {
		if !t.Valid() {
			return nil, apperr.BadRequest("unknown activity type %d", int(t))
		}
		if level < 0 {
			return nil, apperr.BadRequest("skill level for %s must not be negative", t)
		}
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	skills, err := s.skillRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Fatal("failed to list skills", err)
	}
	ladder, err := s.skillRepo.SkillActivities(ctx)
	if err != nil {
		return nil, apperr.Fatal("failed to load skill ladder", err)
	}
	xpLevels, err := s.skillRepo.XpLevels(ctx)
	if err != nil {
		return nil, apperr.Fatal("failed to load xp levels", err)
	}
	specials, err := s.skillRepo.SkillSpecials(ctx)
	if err != nil {
		return nil, apperr.Fatal("failed to load skill specials", err)
	}

	byType := make(map[models.ActivityType]*models.Skill, len(skills))
	for i := range skills {
		byType[skills[i].ActivityType] = &skills[i]
	}

	final := make(map[models.ActivityType]int, len(models.AllActivityTypes()))
	for _, skill := range skills {
		final[skill.ActivityType] = skill.Level
	}
	for t, level := range levels {
		counter := 0
		if skill := byType[t]; skill != nil {
			counter = skill.Counter
		}
		if maxLevel := rewards.MaxSkillLevel(ladder, counter); level > maxLevel {
			return nil, apperr.BadRequest("%s level %d exceeds the unlocked maximum of %d", t, level, maxLevel)
		}
		final[t] = level
	}

	total := 0
	for _, level := range final {
		total += level
	}
	potential := rewards.PotentialLevel(xpLevels, user.Xp)
	if total > potential {
		return nil, apperr.BadRequest("allocated %d skill points but only %d are available", total, potential)
	}

	batch := repository.NewBatch()
	for t, level := range levels {
		skill := byType[t]
		if skill == nil {
			// Untrained types can only be allocated level 0, which needs no row.
			continue
		}
		if skill.Level != level {
			skill.Level = level
			batch.Save(skill)
		}
	}

	user.CurrentLevel = total
	s.applySpecial(user, rewards.BestSpecial(specials, final))
	batch.Save(user)

	if err := s.uow.Complete(ctx, batch); err != nil {
		return nil, apperr.Fatal("failed to save skills", err)
	}
	prommetrics.RecordSkillUpdate("update")

	s.log.Info().
		Uint("user_id", userID).
		Int("current_level", total).
		Int("potential_level", potential).
		Msg("Updated skill allocation")

	return s.buildSkillData(ctx, user, skills)
}

// ResetSkillsData clears every skill level of a user. Counters are kept.
func (s *Service) ResetSkillsData(ctx context.Context, userID uint) (*SkillData, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	skills, err := s.skillRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Fatal("failed to list skills", err)
	}
	if len(skills) == 0 {
		return nil, apperr.NotFoundf("user %d has no skills to reset", userID)
	}

	batch := repository.NewBatch()
	for i := range skills {
		skills[i].Level = 0
		batch.Save(&skills[i])
	}
	user.CurrentLevel = 0
	s.applySpecial(user, nil)
	batch.Save(user)

	if err := s.uow.Complete(ctx, batch); err != nil {
		return nil, apperr.Fatal("failed to reset skills", err)
	}
	prommetrics.RecordSkillUpdate("reset")

	s.log.Info().Uint("user_id", userID).Int("skills", len(skills)).Msg("Reset skills")

	return s.buildSkillData(ctx, user, skills)
}

func (s *Service) applySpecial(user *models.User, special *models.SkillSpecial) {
	if special == nil {
		user.SkillSpecialID = nil
		user.SkillSpecial = nil
		return
	}
	id := special.ID
	user.SkillSpecialID = &id
	user.SkillSpecial = special
}

func (s *Service) loadUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Lookup(err, repository.ErrNotFound, "user", userID)
	}
	return user, nil
}

func (s *Service) buildSkillData(ctx context.Context, user *models.User, skills []models.Skill) (*SkillData, error) {
	ladder, err := s.skillRepo.SkillActivities(ctx)
	if err != nil {
		return nil, apperr.Fatal("failed to load skill ladder", err)
	}
	xpLevels, err := s.skillRepo.XpLevels(ctx)
	if err != nil {
		return nil, apperr.Fatal("failed to load xp levels", err)
	}

	byType := make(map[models.ActivityType]models.Skill, len(skills))
	for _, skill := range skills {
		byType[skill.ActivityType] = skill
	}

	data := &SkillData{
		UserID:         user.ID,
		Xp:             user.Xp,
		CurrentLevel:   user.CurrentLevel,
		PotentialLevel: rewards.PotentialLevel(xpLevels, user.Xp),
		SkillSpecial:   user.SkillSpecial,
	}
	for _, t := range models.AllActivityTypes() {
		skill := byType[t]
		data.Skills = append(data.Skills, SkillEntry{
			Type:     t,
			Name:     t.String(),
			Level:    skill.Level,
			Counter:  skill.Counter,
			MaxLevel: rewards.MaxSkillLevel(ladder, skill.Counter),
		})
	}
	return data, nil
}
