// Package review implements peer review of activities and the XP it credits
// to activity owners.
package review

import (
	"context"

	"github.com/skillquest/skillquest/internal/apperr"
	prommetrics "github.com/skillquest/skillquest/internal/metrics"
	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/pkg/logger"
)

// ActivityRepository interface for activity operations.
type ActivityRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Activity, error)
}

// ReviewRepository interface for review operations.
type ReviewRepository interface {
	FindReview(ctx context.Context, reviewerID, activityID uint) (*models.UserReview, error)
	ListByActivity(ctx context.Context, activityID uint) ([]models.UserReview, error)
}

// RewardRepository interface for review XP lookups.
type RewardRepository interface {
	ReviewXp(ctx context.Context, activityType models.ActivityType, reviewType models.ReviewType) (int, error)
}

// XpAdjuster stages XP changes.
type XpAdjuster interface {
	AdjustXp(batch *repository.Batch, user *models.User, delta int)
}

// Result is the outcome of a review.
type Result struct {
	Review  *models.UserReview `json:"review"`
	XpDelta int                `json:"xp_delta"`
}

// Service handles activity reviews.
type Service struct {
	activityRepo ActivityRepository
	reviewRepo   ReviewRepository
	rewardRepo   RewardRepository
	xp           XpAdjuster
	uow          repository.UnitOfWork
	log          *logger.Logger
}

// NewService creates a new review service.
func NewService(
	activityRepo ActivityRepository,
	reviewRepo ReviewRepository,
	rewardRepo RewardRepository,
	xp XpAdjuster,
	uow repository.UnitOfWork,
	log *logger.Logger,
) *Service {
	return &Service{
		activityRepo: activityRepo,
		reviewRepo:   reviewRepo,
		rewardRepo:   rewardRepo,
		xp:           xp,
		uow:          uow,
		log:          log.Component("review"),
	}
}

// ReviewActivity records reviewerID's rating of an activity and credits the
// owner. Changing a rating only applies the XP difference to the previous one.
func (s *Service) ReviewActivity(ctx context.Context, reviewerID, activityID uint, reviewType models.ReviewType) (*Result, error) {
	if !reviewType.Valid() {
		return nil, apperr.BadRequest("unknown review type %d", int(reviewType))
	}

	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, apperr.Lookup(err, repository.ErrNotFound, "activity", activityID)
	}
	if activity.UserID == reviewerID {
		return nil, apperr.BadRequest("user %d cannot review their own activity %d", reviewerID, activityID)
	}

	newXp, err := s.rewardRepo.ReviewXp(ctx, activity.Type, reviewType)
	if err != nil {
		return nil, apperr.Fatal("failed to look up review xp", err)
	}

	existing, err := s.reviewRepo.FindReview(ctx, reviewerID, activityID)
	if err != nil {
		return nil, apperr.Fatal("failed to load review", err)
	}

	batch := repository.NewBatch()
	review := existing
	delta := newXp
	outcome := "created"
	if existing == nil {
		review = &models.UserReview{UserID: reviewerID, ActivityID: activityID, ReviewType: reviewType}
		batch.Create(review)
	} else {
		oldXp, err := s.rewardRepo.ReviewXp(ctx, activity.Type, existing.ReviewType)
		if err != nil {
			return nil, apperr.Fatal("failed to look up review xp", err)
		}
		delta = newXp - oldXp
		if delta == 0 {
			prommetrics.RecordReviewSubmitted("unchanged")
			s.log.Debug().
				Uint("activity_id", activityID).
				Uint("reviewer_id", reviewerID).
				Msg("Review leaves XP unchanged, nothing to save")
			return &Result{Review: existing, XpDelta: 0}, nil
		}
		existing.ReviewType = reviewType
		batch.Save(existing)
		outcome = "changed"
	}

	s.xp.AdjustXp(batch, &activity.User, delta)

	if err := s.uow.Complete(ctx, batch); err != nil {
		return nil, apperr.Fatal("failed to save review", err)
	}
	prommetrics.RecordReviewSubmitted(outcome)
	prommetrics.RecordXpAwarded("review", delta)

	s.log.Info().
		Uint("activity_id", activityID).
		Uint("reviewer_id", reviewerID).
		Uint("owner_id", activity.UserID).
		Str("review_type", reviewType.String()).
		Int("xp_delta", delta).
		Msg("Activity reviewed")

	return &Result{Review: review, XpDelta: delta}, nil
}

// ListReviews returns the reviews of an activity.
func (s *Service) ListReviews(ctx context.Context, activityID uint) ([]models.UserReview, error) {
	if _, err := s.activityRepo.GetByID(ctx, activityID); err != nil {
		return nil, apperr.Lookup(err, repository.ErrNotFound, "activity", activityID)
	}
	reviews, err := s.reviewRepo.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, apperr.Fatal("failed to list reviews", err)
	}
	return reviews, nil
}
