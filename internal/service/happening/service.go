// Package happening implements the attendance and completion workflow of
// time-boxed happenings.
package happening

import (
	"context"
	"time"

	"github.com/skillquest/skillquest/internal/apperr"
	"github.com/skillquest/skillquest/internal/clock"
	prommetrics "github.com/skillquest/skillquest/internal/metrics"
	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/notify"
	"github.com/skillquest/skillquest/internal/photos"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/internal/rewards"
	"github.com/skillquest/skillquest/pkg/logger"
)

// ActivityRepository interface for activity operations.
type ActivityRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Activity, error)
}

// EngagementRepository interface for attendance lookups.
type EngagementRepository interface {
	FindAttendance(ctx context.Context, userID, activityID uint) (*models.UserAttendance, error)
	ListAttendances(ctx context.Context, activityID uint) ([]models.UserAttendance, error)
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

// Service handles happening attendance and completion.
type Service struct {
	activityRepo     ActivityRepository
	engagementRepo   EngagementRepository
	userRepo         UserRepository
	rewarder         Rewarder
	table            *rewards.Table
	uow              repository.UnitOfWork
	photos           photos.Storage
	notifier         notify.Sender
	clock            clock.Clock
	completionWindow time.Duration
	log              *logger.Logger
}

// NewService creates a new happening service.
func NewService(
	activityRepo ActivityRepository,
	engagementRepo EngagementRepository,
	userRepo UserRepository,
	rewarder Rewarder,
	table *rewards.Table,
	uow repository.UnitOfWork,
	storage photos.Storage,
	notifier notify.Sender,
	clk clock.Clock,
	completionWindow time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		activityRepo:     activityRepo,
		engagementRepo:   engagementRepo,
		userRepo:         userRepo,
		rewarder:         rewarder,
		table:            table,
		uow:              uow,
		photos:           storage,
		notifier:         notifier,
		clock:            clk,
		completionWindow: completionWindow,
		log:              log.Component("happening"),
	}
}

// loadHappening fetches an activity and its happening view.
func (s *Service) loadHappening(ctx context.Context, activityID uint) (*models.Activity, models.HappeningVariant, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, models.HappeningVariant{}, apperr.Lookup(err, repository.ErrNotFound, "activity", activityID)
	}
	variant, err := activity.Variant()
	if err != nil {
		return nil, models.HappeningVariant{}, apperr.Fatal("invalid happening", err)
	}
	happening, ok := variant.(models.HappeningVariant)
	if !ok {
		return nil, models.HappeningVariant{}, apperr.BadRequest("activity %d is not a happening", activityID)
	}
	return activity, happening, nil
}

func (s *Service) findAttendance(ctx context.Context, userID, activityID uint) (*models.UserAttendance, error) {
	attendance, err := s.engagementRepo.FindAttendance(ctx, userID, activityID)
	if err != nil {
		return nil, apperr.Fatal("failed to load attendance", err)
	}
	return attendance, nil
}

// Attend registers (attend=true) or withdraws (attend=false) a user's
// intent to take part in a happening.
func (s *Service) Attend(ctx context.Context, activityID, userID uint, attend bool) error {
	activity, happening, err := s.loadHappening(ctx, activityID)
	if err != nil {
		return err
	}

	if attend && happening.Ended(s.clock.Now()) {
		return apperr.BadRequest("happening %d has already ended", activityID)
	}
	if activity.UserID == userID {
		return apperr.BadRequest("user %d owns happening %d", userID, activityID)
	}

	attendance, err := s.findAttendance(ctx, userID, activityID)
	if err != nil {
		return err
	}

	batch := repository.NewBatch()
	transition := "attend"
	if attend {
		if attendance != nil {
			return apperr.BadRequest("user %d already attends happening %d", userID, activityID)
		}
		batch.Create(&models.UserAttendance{UserID: userID, ActivityID: activityID})
	} else {
		if attendance == nil {
			return apperr.BadRequest("user %d does not attend happening %d", userID, activityID)
		}
		batch.Delete(attendance)
		transition = "cancel"
	}

	if err := s.uow.Complete(ctx, batch); err != nil {
		return apperr.Fatal("failed to save attendance", err)
	}
	prommetrics.RecordHappeningTransition(transition)

	s.log.Info().
		Uint("activity_id", activityID).
		Uint("user_id", userID).
		Bool("attend", attend).
		Msg("Updated attendance")
	return nil
}

// ConfirmAttendance marks the user as present. It is only possible while the
// happening is in progress; users who never registered are added confirmed.
func (s *Service) ConfirmAttendance(ctx context.Context, activityID, userID uint) error {
	activity, happening, err := s.loadHappening(ctx, activityID)
	if err != nil {
		return err
	}

	if !happening.InProgress(s.clock.Now()) {
		return apperr.BadRequest("happening %d is not in progress", activityID)
	}
	if activity.UserID == userID {
		return apperr.BadRequest("user %d owns happening %d", userID, activityID)
	}

	attendance, err := s.findAttendance(ctx, userID, activityID)
	if err != nil {
		return err
	}

	batch := repository.NewBatch()
	switch {
	case attendance == nil:
		batch.Create(&models.UserAttendance{UserID: userID, ActivityID: activityID, Confirmed: true})
	case attendance.Confirmed:
		return apperr.BadRequest("attendance of user %d at happening %d is already confirmed", userID, activityID)
	default:
		attendance.Confirmed = true
		batch.Save(attendance)
	}

	if err := s.uow.Complete(ctx, batch); err != nil {
		return apperr.Fatal("failed to confirm attendance", err)
	}
	prommetrics.RecordHappeningTransition("confirm")

	s.log.Info().
		Uint("activity_id", activityID).
		Uint("user_id", userID).
		Msg("Confirmed attendance")
	return nil
}

// CompleteHappening stores the owner's completion evidence. It is accepted
// once, between EndDate and the end of the completion window.
func (s *Service) CompleteHappening(ctx context.Context, activityID, userID uint, files []photos.File) ([]models.HappeningMedia, error) {
	activity, happening, err := s.loadHappening(ctx, activityID)
	if err != nil {
		return nil, err
	}

	if activity.UserID != userID {
		return nil, apperr.BadRequest("only the owner can complete happening %d", activityID)
	}
	if !happening.CompletionOpen(s.clock.Now(), s.completionWindow) {
		return nil, apperr.BadRequest("happening %d is outside its completion window", activityID)
	}
	if activity.IsResolved() || len(activity.HappeningMedia) > 0 {
		return nil, apperr.BadRequest("happening %d is already completed", activityID)
	}
	if len(files) == 0 {
		return nil, apperr.BadRequest("completing happening %d requires media", activityID)
	}

	uploaded := make([]string, 0, len(files))
	media := make([]models.HappeningMedia, 0, len(files))
	for _, f := range files {
		result, err := s.photos.AddPhoto(ctx, f.Name, f.Body)
		if err != nil {
			s.deletePhotos(ctx, uploaded)
			return nil, apperr.Fatal("failed to store completion media", err)
		}
		uploaded = append(uploaded, result.PublicID)
		media = append(media, models.HappeningMedia{ActivityID: activityID, PublicID: result.PublicID, URL: result.URL})
	}

	batch := repository.NewBatch()
	for i := range media {
		batch.Create(&media[i])
	}
	if err := s.uow.Complete(ctx, batch); err != nil {
		s.deletePhotos(ctx, uploaded)
		return nil, apperr.Fatal("failed to save completion media", err)
	}
	prommetrics.RecordHappeningTransition("complete")

	s.log.Info().
		Uint("activity_id", activityID).
		Int("media", len(media)).
		Msg("Happening completed")
	return media, nil
}

// ApproveCompletion closes a happening's completion review. Accepting
// rewards every confirmed attendee and the owner and purges no-shows;
// both outcomes discard the completion media and notify the owner.
func (s *Service) ApproveCompletion(ctx context.Context, activityID, moderatorID uint, accept bool) error {
	activity, happening, err := s.loadHappening(ctx, activityID)
	if err != nil {
		return err
	}

	if activity.UserID == moderatorID {
		return apperr.BadRequest("user %d cannot approve their own happening %d", moderatorID, activityID)
	}
	if !happening.Ended(s.clock.Now()) {
		return apperr.BadRequest("happening %d has not ended yet", activityID)
	}
	if activity.IsResolved() {
		return apperr.BadRequest("happening %d is already resolved", activityID)
	}
	if accept && len(activity.HappeningMedia) == 0 {
		return apperr.BadRequest("happening %d has no completion media", activityID)
	}

	batch := repository.NewBatch()
	rewarded := 0
	if accept {
		for i := range activity.Attendances {
			attendance := &activity.Attendances[i]
			if !attendance.Confirmed {
				batch.Delete(attendance)
				continue
			}
			if err := s.awardParticipant(ctx, batch, attendance.UserID); err != nil {
				return err
			}
			rewarded++
		}

		ownerXp, err := s.rewardFor(ctx, activity.UserID)
		if err != nil {
			return err
		}
		if err := s.rewarder.Award(ctx, batch, &activity.User, models.ActivityTypeHappening, ownerXp); err != nil {
			return err
		}
		activity.Resolve(ownerXp)
		batch.Save(activity)
	}

	blobs := make([]string, 0, len(activity.HappeningMedia))
	for i := range activity.HappeningMedia {
		batch.Delete(&activity.HappeningMedia[i])
		blobs = append(blobs, activity.HappeningMedia[i].PublicID)
	}

	if err := s.uow.Complete(ctx, batch); err != nil {
		return apperr.Fatal("failed to close happening", err)
	}
	s.deletePhotos(ctx, blobs)

	transition := "approve"
	if !accept {
		transition = "reject"
	}
	prommetrics.RecordHappeningTransition(transition)

	s.log.Info().
		Uint("activity_id", activityID).
		Bool("accepted", accept).
		Int("rewarded_attendees", rewarded).
		Int("media_purged", len(blobs)).
		Msg("Happening completion reviewed")

	if err := s.notifier.SendHappeningApproval(ctx, activity.Title, activity.User.Email, accept); err != nil {
		s.log.Warn().Err(err).Uint("activity_id", activityID).Msg("Failed to notify happening owner")
	}
	return nil
}

// GetAttendees lists the attendance rows of a happening.
func (s *Service) GetAttendees(ctx context.Context, activityID uint) ([]models.UserAttendance, error) {
	if _, _, err := s.loadHappening(ctx, activityID); err != nil {
		return nil, err
	}
	attendances, err := s.engagementRepo.ListAttendances(ctx, activityID)
	if err != nil {
		return nil, apperr.Fatal("failed to list attendances", err)
	}
	return attendances, nil
}

func (s *Service) awardParticipant(ctx context.Context, batch *repository.Batch, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperr.Lookup(err, repository.ErrNotFound, "user", userID)
	}
	xp, err := s.rewardFor(ctx, userID)
	if err != nil {
		return err
	}
	return s.rewarder.Award(ctx, batch, user, models.ActivityTypeHappening, xp)
}

// rewardFor scales the happening reward by the user's own happening skill.
func (s *Service) rewardFor(ctx context.Context, userID uint) (int, error) {
	level, err := s.rewarder.SkillLevel(ctx, userID, models.ActivityTypeHappening)
	if err != nil {
		return 0, err
	}
	return s.table.RewardFor(models.ActivityTypeHappening, level), nil
}

func (s *Service) deletePhotos(ctx context.Context, publicIDs []string) {
	for _, id := range publicIDs {
		if err := s.photos.DeletePhoto(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("public_id", id).Msg("Failed to delete photo")
		}
	}
}
