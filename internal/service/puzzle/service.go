// Package puzzle implements the single-attempt puzzle answer workflow.
package puzzle

import (
	"context"
	"strings"

	"github.com/skillquest/skillquest/internal/apperr"
	"github.com/skillquest/skillquest/internal/clock"
	prommetrics "github.com/skillquest/skillquest/internal/metrics"
	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/notify"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/internal/rewards"
	"github.com/skillquest/skillquest/pkg/logger"
)

// ActivityRepository interface for activity operations.
type ActivityRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Activity, error)
}

// EngagementRepository interface for puzzle answer lookups.
type EngagementRepository interface {
	HasPuzzleAnswer(ctx context.Context, userID, activityID uint) (bool, error)
}

// UserRepository interface for user operations.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Rewarder credits XP and skill progress.
type Rewarder interface {
	SkillLevel(ctx context.Context, userID uint, activityType models.ActivityType) (int, error)
	Award(ctx context.Context, batch *repository.Batch, user *models.User, activityType models.ActivityType, xp int) error
}

// Service handles puzzle answers.
type Service struct {
	activityRepo   ActivityRepository
	engagementRepo EngagementRepository
	userRepo       UserRepository
	rewarder       Rewarder
	table          *rewards.Table
	uow            repository.UnitOfWork
	notifier       notify.Sender
	clock          clock.Clock
	log            *logger.Logger
}

// NewService creates a new puzzle service.
func NewService(
	activityRepo ActivityRepository,
	engagementRepo EngagementRepository,
	userRepo UserRepository,
	rewarder Rewarder,
	table *rewards.Table,
	uow repository.UnitOfWork,
	notifier notify.Sender,
	clk clock.Clock,
	log *logger.Logger,
) *Service {
	return &Service{
		activityRepo:   activityRepo,
		engagementRepo: engagementRepo,
		userRepo:       userRepo,
		rewarder:       rewarder,
		table:          table,
		uow:            uow,
		notifier:       notifier,
		clock:          clk,
		log:            log.Component("puzzle"),
	}
}

// answersMatch compares answers ignoring surrounding whitespace and case.
func answersMatch(expected, given string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(given))
}

// AnswerToPuzzle spends the user's single attempt at a puzzle. A correct
// answer returns the puzzle's XP reward, which is fixed by the first solver.
func (s *Service) AnswerToPuzzle(ctx context.Context, activityID, userID uint, answer string) (int, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return 0, apperr.Lookup(err, repository.ErrNotFound, "activity", activityID)
	}

	variant, err := activity.Variant()
	if err != nil {
		return 0, apperr.Fatal("invalid activity", err)
	}
	puzzle, ok := variant.(models.PuzzleVariant)
	if !ok {
		return 0, apperr.BadRequest("activity %d is not a puzzle", activityID)
	}

	if activity.UserID == userID {
		return 0, apperr.BadRequest("user %d owns puzzle %d", userID, activityID)
	}

	answered, err := s.engagementRepo.HasPuzzleAnswer(ctx, userID, activityID)
	if err != nil {
		return 0, apperr.Fatal("failed to check puzzle answers", err)
	}
	if answered {
		return 0, apperr.BadRequest("user %d already answered puzzle %d", userID, activityID)
	}

	correct := answersMatch(puzzle.Answer, answer)
	batch := repository.NewBatch()
	batch.Create(&models.UserPuzzleAnswer{
		UserID:     userID,
		ActivityID: activityID,
		Correct:    correct,
		AnsweredAt: s.clock.Now(),
	})

	if !correct {
		if err := s.uow.Complete(ctx, batch); err != nil {
			return 0, apperr.Fatal("failed to record puzzle answer", err)
		}
		prommetrics.RecordPuzzleAnswer("incorrect")
		s.log.Debug().Uint("activity_id", activityID).Uint("user_id", userID).Msg("Incorrect puzzle answer")
		return 0, apperr.BadRequest("incorrect answer to puzzle %d", activityID)
	}

	solver, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, apperr.Lookup(err, repository.ErrNotFound, "user", userID)
	}

	xp, err := s.reward(ctx, activity)
	if err != nil {
		return 0, err
	}
	if !activity.IsResolved() {
		activity.Resolve(xp)
		batch.Save(activity)
	}

	if err := s.rewarder.Award(ctx, batch, solver, models.ActivityTypePuzzle, xp); err != nil {
		return 0, err
	}

	if err := s.uow.Complete(ctx, batch); err != nil {
		return 0, apperr.Fatal("failed to record puzzle answer", err)
	}
	prommetrics.RecordPuzzleAnswer("correct")

	s.log.Info().
		Uint("activity_id", activityID).
		Uint("user_id", userID).
		Int("xp", xp).
		Msg("Puzzle solved")

	if err := s.notifier.SendPuzzleAnswered(ctx, activity.Title, activity.User.Email, solver.Username); err != nil {
		s.log.Warn().Err(err).Uint("activity_id", activityID).Msg("Failed to notify puzzle owner")
	}

	return xp, nil
}

// reward returns the fixed reward of a resolved puzzle, or computes it from
// the owner's puzzle skill.
func (s *Service) reward(ctx context.Context, activity *models.Activity) (int, error) {
	if activity.IsResolved() && activity.XpReward != nil {
		return *activity.XpReward, nil
	}
	level, err := s.rewarder.SkillLevel(ctx, activity.UserID, models.ActivityTypePuzzle)
	if err != nil {
		return 0, err
	}
	return s.table.RewardFor(models.ActivityTypePuzzle, level), nil
}
