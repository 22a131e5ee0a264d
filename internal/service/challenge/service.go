// Package challenge implements challenge submissions and the owner's
// selection and moderation of a winning answer.
package challenge

import (
	"context"
	"strings"

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

// EngagementRepository interface for challenge answer operations.
type EngagementRepository interface {
	GetChallengeAnswer(ctx context.Context, id uint) (*models.UserChallengeAnswer, error)
	FindChallengeAnswer(ctx context.Context, userID, activityID uint) (*models.UserChallengeAnswer, error)
	ListChallengeAnswers(ctx context.Context, activityID uint) ([]models.UserChallengeAnswer, error)
	GetConfirmedAnswers(ctx context.Context, activityID uint) ([]models.UserChallengeAnswer, error)
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

// Service handles challenge answers.
type Service struct {
	activityRepo   ActivityRepository
	engagementRepo EngagementRepository
	userRepo       UserRepository
	rewarder       Rewarder
	table          *rewards.Table
	uow            repository.UnitOfWork
	photos         photos.Storage
	notifier       notify.Sender
	clock          clock.Clock
	log            *logger.Logger
}

// NewService creates a new challenge service.
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
	log *logger.Logger,
) *Service {
	return &Service{
		activityRepo:   activityRepo,
		engagementRepo: engagementRepo,
		userRepo:       userRepo,
		rewarder:       rewarder,
		table:          table,
		uow:            uow,
		photos:         storage,
		notifier:       notifier,
		clock:          clk,
		log:            log.Component("challenge"),
	}
}

// AnswerToChallenge submits the user's answer, or replaces it in place when
// the user has answered before.
func (s *Service) AnswerToChallenge(ctx context.Context, activityID, userID uint, description string, files []photos.File) (*models.UserChallengeAnswer, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, apperr.Lookup(err, repository.ErrNotFound, "activity", activityID)
	}
	variant, err := activity.Variant()
	if err != nil {
		return nil, apperr.Fatal("invalid activity", err)
	}
	if _, ok := variant.(models.ChallengeVariant); !ok {
		return nil, apperr.BadRequest("activity %d is not a challenge", activityID)
	}
	if activity.UserID == userID {
		return nil, apperr.BadRequest("user %d owns challenge %d", userID, activityID)
	}
	if activity.IsResolved() {
		return nil, apperr.BadRequest("challenge %d is already resolved", activityID)
	}
	if strings.TrimSpace(description) == "" && len(files) == 0 {
		return nil, apperr.BadRequest("an answer needs a description or media")
	}

	existing, err := s.engagementRepo.FindChallengeAnswer(ctx, userID, activityID)
	if err != nil {
		return nil, apperr.Fatal("failed to load challenge answer", err)
	}
	if existing != nil && existing.Confirmed {
		return nil, apperr.BadRequest("answer %d was selected and can no longer be changed", existing.ID)
	}

	var respondent *models.User
	if existing == nil {
		respondent, err = s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, apperr.Lookup(err, repository.ErrNotFound, "user", userID)
		}
	}

	media, uploaded, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}

	batch := repository.NewBatch()
	var answer *models.UserChallengeAnswer
	var stale []string
	if existing == nil {
		answer = &models.UserChallengeAnswer{
			UserID:      userID,
			ActivityID:  activityID,
			Description: description,
			SubmittedAt: s.clock.Now(),
			Media:       media,
		}
		batch.Create(answer)
	} else {
		answer = existing
		for i := range answer.Media {
			batch.Delete(&answer.Media[i])
			stale = append(stale, answer.Media[i].PublicID)
		}
		answer.Description = description
		answer.SubmittedAt = s.clock.Now()
		answer.Media = media
		batch.Save(answer)
		for i := range answer.Media {
			answer.Media[i].UserChallengeAnswerID = answer.ID
			batch.Create(&answer.Media[i])
		}
	}

	if err := s.uow.Complete(ctx, batch); err != nil {
		s.deletePhotos(ctx, uploaded)
		return nil, apperr.Fatal("failed to save challenge answer", err)
	}
	s.deletePhotos(ctx, stale)

	if existing != nil {
		prommetrics.RecordChallengeAnswer("replaced")
		s.log.Info().
			Uint("activity_id", activityID).
			Uint("user_id", userID).
			Int("media_replaced", len(stale)).
			Msg("Replaced challenge answer")
		return answer, nil
	}

	prommetrics.RecordChallengeAnswer("submitted")
	s.log.Info().
		Uint("activity_id", activityID).
		Uint("user_id", userID).
		Uint("answer_id", answer.ID).
		Msg("Submitted challenge answer")

	if err := s.notifier.SendChallengeAnswered(ctx, activity.Title, activity.User.Email, respondent.Username); err != nil {
		s.log.Warn().Err(err).Uint("activity_id", activityID).Msg("Failed to notify challenge owner")
	}
	return answer, nil
}

// ListAnswers returns the answers submitted to a challenge.
func (s *Service) ListAnswers(ctx context.Context, activityID uint) ([]models.UserChallengeAnswer, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, apperr.Lookup(err, repository.ErrNotFound, "activity", activityID)
	}
	if activity.Type != models.ActivityTypeChallenge {
		return nil, apperr.BadRequest("activity %d is not a challenge", activityID)
	}
	answers, err := s.engagementRepo.ListChallengeAnswers(ctx, activityID)
	if err != nil {
		return nil, apperr.Fatal("failed to list challenge answers", err)
	}
	return answers, nil
}

// ConfirmChallengeAnswer selects an answer as the challenge winner. Only the
// owner may select, and only one answer per challenge can be selected.
func (s *Service) ConfirmChallengeAnswer(ctx context.Context, answerID, requesterID uint) error {
	answer, err := s.loadAnswer(ctx, answerID)
	if err != nil {
		return err
	}

	if answer.Activity.UserID != requesterID {
		return apperr.BadRequest("only the owner of challenge %d can select an answer", answer.ActivityID)
	}
	if answer.Confirmed {
		return apperr.BadRequest("answer %d is already confirmed", answerID)
	}
	if answer.Activity.IsResolved() {
		return apperr.BadRequest("challenge %d is already resolved", answer.ActivityID)
	}

	confirmed, err := s.engagementRepo.GetConfirmedAnswers(ctx, answer.ActivityID)
	if err != nil {
		return apperr.Fatal("failed to load confirmed answers", err)
	}
	if len(confirmed) > 0 {
		return apperr.BadRequest("challenge %d already has a confirmed answer", answer.ActivityID)
	}

	answer.Confirmed = true
	batch := repository.NewBatch()
	batch.Save(answer)
	if err := s.uow.Complete(ctx, batch); err != nil {
		return apperr.Fatal("failed to confirm challenge answer", err)
	}
	prommetrics.RecordChallengeAnswer("confirmed")

	s.log.Info().
		Uint("activity_id", answer.ActivityID).
		Uint("answer_id", answerID).
		Msg("Confirmed challenge answer")
	return nil
}

// ApproveChallengeAnswer resolves a challenge with its confirmed answer:
// the author is rewarded once and every other unconfirmed answer is purged.
func (s *Service) ApproveChallengeAnswer(ctx context.Context, answerID, moderatorID uint) (int, error) {
	answer, err := s.loadAnswer(ctx, answerID)
	if err != nil {
		return 0, err
	}
	activity := &answer.Activity

	if activity.UserID == moderatorID {
		return 0, apperr.BadRequest("user %d cannot approve answers to their own challenge %d", moderatorID, activity.ID)
	}
	if !answer.Confirmed {
		return 0, apperr.BadRequest("answer %d is not confirmed", answerID)
	}
	if activity.IsResolved() {
		return 0, apperr.BadRequest("challenge %d is already resolved", activity.ID)
	}

	level, err := s.rewarder.SkillLevel(ctx, activity.UserID, models.ActivityTypeChallenge)
	if err != nil {
		return 0, err
	}
	xp := s.table.RewardFor(models.ActivityTypeChallenge, level)

	siblings, err := s.engagementRepo.ListChallengeAnswers(ctx, activity.ID)
	if err != nil {
		return 0, apperr.Fatal("failed to list challenge answers", err)
	}

	batch := repository.NewBatch()
	if err := s.rewarder.Award(ctx, batch, &answer.User, models.ActivityTypeChallenge, xp); err != nil {
		return 0, err
	}
	activity.Resolve(xp)
	batch.Save(activity)

	var blobs []string
	purged := 0
	for i := range siblings {
		other := &siblings[i]
		if other.ID == answer.ID || other.Confirmed {
			continue
		}
		for j := range other.Media {
			batch.Delete(&other.Media[j])
			blobs = append(blobs, other.Media[j].PublicID)
		}
		batch.Delete(other)
		purged++
	}

	if err := s.uow.Complete(ctx, batch); err != nil {
		return 0, apperr.Fatal("failed to approve challenge answer", err)
	}
	s.deletePhotos(ctx, blobs)
	prommetrics.RecordChallengeAnswer("approved")

	s.log.Info().
		Uint("activity_id", activity.ID).
		Uint("answer_id", answerID).
		Uint("winner_id", answer.UserID).
		Int("xp", xp).
		Int("answers_purged", purged).
		Msg("Approved challenge answer")

	if err := s.notifier.SendChallengeAnswerAccepted(ctx, activity.Title, activity.User.Email, true); err != nil {
		s.log.Warn().Err(err).Uint("activity_id", activity.ID).Msg("Failed to notify challenge owner")
	}
	if err := s.notifier.SendChallengeAnswerAccepted(ctx, activity.Title, answer.User.Email, true); err != nil {
		s.log.Warn().Err(err).Uint("answer_id", answerID).Msg("Failed to notify challenge winner")
	}
	return xp, nil
}

// DisapproveChallengeAnswer rejects a confirmed answer so the owner can pick
// another one. Nothing is rewarded and no media is removed.
func (s *Service) DisapproveChallengeAnswer(ctx context.Context, answerID, moderatorID uint) error {
	answer, err := s.loadAnswer(ctx, answerID)
	if err != nil {
		return err
	}
	activity := &answer.Activity

	if activity.UserID == moderatorID {
		return apperr.BadRequest("user %d cannot review answers to their own challenge %d", moderatorID, activity.ID)
	}
	if !answer.Confirmed {
		return apperr.BadRequest("answer %d is not confirmed", answerID)
	}
	if activity.IsResolved() {
		return apperr.BadRequest("challenge %d is already resolved", activity.ID)
	}

	answer.Confirmed = false
	batch := repository.NewBatch()
	batch.Save(answer)
	if err := s.uow.Complete(ctx, batch); err != nil {
		return apperr.Fatal("failed to disapprove challenge answer", err)
	}
	prommetrics.RecordChallengeAnswer("disapproved")

	s.log.Info().
		Uint("activity_id", activity.ID).
		Uint("answer_id", answerID).
		Msg("Disapproved challenge answer")

	if err := s.notifier.SendChallengeAnswerAccepted(ctx, activity.Title, activity.User.Email, false); err != nil {
		s.log.Warn().Err(err).Uint("activity_id", activity.ID).Msg("Failed to notify challenge owner")
	}
	return nil
}

func (s *Service) loadAnswer(ctx context.Context, answerID uint) (*models.UserChallengeAnswer, error) {
	answer, err := s.engagementRepo.GetChallengeAnswer(ctx, answerID)
	if err != nil {
		return nil, apperr.Lookup(err, repository.ErrNotFound, "challenge answer", answerID)
	}
	return answer, nil
}

func (s *Service) upload(ctx context.Context, files []photos.File) ([]models.ChallengeMedia, []string, error) {
	media := make([]models.ChallengeMedia, 0, len(files))
	uploaded := make([]string, 0, len(files))
	for _, f := range files {
		result, err := s.photos.AddPhoto(ctx, f.Name, f.Body)
		if err != nil {
			s.deletePhotos(ctx, uploaded)
			return nil, nil, apperr.Fatal("failed to store answer media", err)
		}
		uploaded = append(uploaded, result.PublicID)
		media = append(media, models.ChallengeMedia{PublicID: result.PublicID, URL: result.URL})
	}
	return media, uploaded, nil
}

func (s *Service) deletePhotos(ctx context.Context, publicIDs []string) {
	for _, id := range publicIDs {
		if err := s.photos.DeletePhoto(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("public_id", id).Msg("Failed to delete photo")
		}
	}
}
