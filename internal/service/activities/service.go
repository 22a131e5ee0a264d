// Package activities implements activity proposals and their moderation.
package activities

import (
	"context"
	"strings"
	"time"

	"github.com/skillquest/skillquest/internal/apperr"
	"github.com/skillquest/skillquest/internal/clock"
	prommetrics "github.com/skillquest/skillquest/internal/metrics"
	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/notify"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/pkg/logger"
)

// ActivityRepository interface for activity and proposal operations.
type ActivityRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Activity, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Activity, error)
	GetPendingByID(ctx context.Context, id uint) (*models.PendingActivity, error)
	ListPending(ctx context.Context) ([]models.PendingActivity, error)
	CountCreations(ctx context.Context, userID uint, activityType models.ActivityType, since time.Time) (int64, error)
}

// UserRepository interface for user operations.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Rewarder credits skill progress.
type Rewarder interface {
	SkillLevel(ctx context.Context, userID uint, activityType models.ActivityType) (int, error)
	Award(ctx context.Context, batch *repository.Batch, user *models.User, activityType models.ActivityType, xp int) error
}

// Draft is a proposed activity.
type Draft struct {
	Type        models.ActivityType `json:"activity_type_id" binding:"required"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Answer      string              `json:"answer"`
	StartDate   *time.Time          `json:"start_date"`
	EndDate     *time.Time          `json:"end_date"`
}

// Limits bounds how many proposals a user may make.
type Limits struct {
	CreationWindow   time.Duration
	BasePendingLimit int
}

// Service handles activity proposals and moderation.
type Service struct {
	activityRepo ActivityRepository
	userRepo     UserRepository
	rewarder     Rewarder
	uow          repository.UnitOfWork
	notifier     notify.Sender
	clock        clock.Clock
	limits       Limits
	log          *logger.Logger
}

// NewService creates a new activities service.
func NewService(
	activityRepo ActivityRepository,
	userRepo UserRepository,
	rewarder Rewarder,
	uow repository.UnitOfWork,
	notifier notify.Sender,
	clk clock.Clock,
	limits Limits,
	log *logger.Logger,
) *Service {
	return &Service{
		activityRepo: activityRepo,
		userRepo:     userRepo,
		rewarder:     rewarder,
		uow:          uow,
		notifier:     notifier,
		clock:        clk,
		limits:       limits,
		log:          log.Component("activities"),
	}
}

func (s *Service) validateDraft(draft *Draft, now time.Time) error {
	if !draft.Type.Valid() {
		return apperr.BadRequest("unknown activity type %d", int(draft.Type))
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return apperr.BadRequest("title is required")
	}

	switch draft.Type {
	case models.ActivityTypePuzzle:
		if strings.TrimSpace(draft.Answer) == "" {
			return apperr.BadRequest("a puzzle needs an answer")
		}
	case models.ActivityTypeHappening:
		if draft.StartDate == nil || draft.EndDate == nil {
			return apperr.BadRequest("a happening needs a start and end date")
		}
		if !draft.StartDate.Before(*draft.EndDate) {
			return apperr.BadRequest("a happening must start before it ends")
		}
		if !draft.StartDate.After(now) {
			return apperr.BadRequest("a happening must start in the future")
		}
	}

	if draft.Type != models.ActivityTypePuzzle {
		draft.Answer = ""
	}
	if draft.Type != models.ActivityTypeHappening {
		draft.StartDate, draft.EndDate = nil, nil
	}
	return nil
}

// CreatePendingActivity submits a proposal for moderation. A user may make
// BasePendingLimit plus their skill level proposals of a type per window.
func (s *Service) CreatePendingActivity(ctx context.Context, userID uint, draft Draft) (*models.PendingActivity, error) {
	now := s.clock.Now()
	if err := s.validateDraft(&draft, now); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, apperr.Lookup(err, repository.ErrNotFound, "user", userID)
	}

	level, err := s.rewarder.SkillLevel(ctx, userID, draft.Type)
	if err != nil {
		return nil, err
	}
	created, err := s.activityRepo.CountCreations(ctx, userID, draft.Type, now.Add(-s.limits.CreationWindow))
	if err != nil {
		return nil, apperr.Fatal("failed to count proposals", err)
	}
	limit := s.limits.BasePendingLimit + level
	if created >= int64(limit) {
		return nil, apperr.BadRequest("user %d reached the limit of %d %s proposals", userID, limit, draft.Type)
	}

	pending := &models.PendingActivity{
		UserID:      userID,
		Type:        draft.Type,
		Title:       draft.Title,
		Description: draft.Description,
		Answer:      strings.TrimSpace(draft.Answer),
		StartDate:   draft.StartDate,
		EndDate:     draft.EndDate,
	}
	batch := repository.NewBatch()
	batch.Create(pending)
	batch.Create(&models.ActivityCreationCounter{UserID: userID, Type: draft.Type, DateCreated: now})

	if err := s.uow.Complete(ctx, batch); err != nil {
		return nil, apperr.Fatal("failed to save proposal", err)
	}
	prommetrics.RecordPendingDecision("proposed")

	s.log.Info().
		Uint("pending_id", pending.ID).
		Uint("user_id", userID).
		Str("activity_type", draft.Type.String()).
		Msg("Activity proposed")
	return pending, nil
}

// ApprovePendingActivity turns a proposal into a live activity and counts it
// toward the proposer's skill in that type.
func (s *Service) ApprovePendingActivity(ctx context.Context, pendingID, moderatorID uint) (*models.Activity, error) {
	pending, err := s.activityRepo.GetPendingByID(ctx, pendingID)
	if err != nil {
		return nil, apperr.Lookup(err, repository.ErrNotFound, "pending activity", pendingID)
	}
	if pending.UserID == moderatorID {
		return nil, apperr.BadRequest("user %d cannot approve their own proposal %d", moderatorID, pendingID)
	}

	activity := pending.ToActivity()
	batch := repository.NewBatch()
	batch.Create(activity)
	batch.Delete(pending)
	if err := s.rewarder.Award(ctx, batch, &pending.User, pending.Type, 0); err != nil {
		return nil, err
	}

	if err := s.uow.Complete(ctx, batch); err != nil {
		return nil, apperr.Fatal("failed to approve proposal", err)
	}
	prommetrics.RecordPendingDecision("approved")

	s.log.Info().
		Uint("pending_id", pendingID).
		Uint("activity_id", activity.ID).
		Uint("user_id", pending.UserID).
		Msg("Proposal approved")

	if err := s.notifier.SendActivityApprovalEmail(ctx, pending.Title, pending.User.Email, true); err != nil {
		s.log.Warn().Err(err).Uint("pending_id", pendingID).Msg("Failed to notify proposer")
	}
	return activity, nil
}

// DisapprovePendingActivity discards a proposal.
func (s *Service) DisapprovePendingActivity(ctx context.Context, pendingID, moderatorID uint) error {
	pending, err := s.activityRepo.GetPendingByID(ctx, pendingID)
	if err != nil {
		return apperr.Lookup(err, repository.ErrNotFound, "pending activity", pendingID)
	}
	if pending.UserID == moderatorID {
		return apperr.BadRequest("user %d cannot review their own proposal %d", moderatorID, pendingID)
	}

	batch := repository.NewBatch()
	batch.Delete(pending)
	if err := s.uow.Complete(ctx, batch); err != nil {
		return apperr.Fatal("failed to discard proposal", err)
	}
	prommetrics.RecordPendingDecision("disapproved")

	s.log.Info().
		Uint("pending_id", pendingID).
		Uint("user_id", pending.UserID).
		Msg("Proposal disapproved")

	if err := s.notifier.SendActivityApprovalEmail(ctx, pending.Title, pending.User.Email, false); err != nil {
		s.log.Warn().Err(err).Uint("pending_id", pendingID).Msg("Failed to notify proposer")
	}
	return nil
}

// GetActivity returns an activity by id.
func (s *Service) GetActivity(ctx context.Context, id uint) (*models.Activity, error) {
	activity, err := s.activityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Lookup(err, repository.ErrNotFound, "activity", id)
	}
	return activity, nil
}

// ListUserActivities returns the activities owned by a user.
func (s *Service) ListUserActivities(ctx context.Context, userID uint) ([]models.Activity, error) {
	activities, err := s.activityRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Fatal("failed to list activities", err)
	}
	return activities, nil
}

// ListPending returns every proposal awaiting moderation.
func (s *Service) ListPending(ctx context.Context) ([]models.PendingActivity, error) {
	pending, err := s.activityRepo.ListPending(ctx)
	if err != nil {
		return nil, apperr.Fatal("failed to list proposals", err)
	}
	return pending, nil
}
