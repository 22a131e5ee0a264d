// Package leaderboard provides leaderboard and ranking services.
package leaderboard

import (
	"context"
	"sort"
	"time"

	"github.com/skillquest/skillquest/internal/apperr"
	"github.com/skillquest/skillquest/internal/clock"
	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/internal/rewards"
	"github.com/skillquest/skillquest/pkg/logger"
)

// Metric names accepted by the leaderboard.
const (
	MetricXp         = "xp"
	MetricActivities = "activities"
	MetricReviews    = "reviews"
)

// ActivityRepository interface for activity counts.
type ActivityRepository interface {
	CountOwnedSince(ctx context.Context, since time.Time) (map[uint]int64, error)
}

// ReviewRepository interface for review counts.
type ReviewRepository interface {
	CountGivenSince(ctx context.Context, since time.Time) (map[uint]int64, error)
	CountForUser(ctx context.Context, userID uint) (int64, error)
}

// UserRepository interface for user operations.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// LevelRepository interface for the XP ladder.
type LevelRepository interface {
	XpLevels(ctx context.Context) ([]models.XpLevel, error)
}

// Entry represents a single entry in a leaderboard.
type Entry struct {
	UserID         uint   `json:"user_id"`
	Username       string `json:"username"`
	Xp             int    `json:"xp"`
	PotentialLevel int    `json:"potential_level"`
	CurrentLevel   int    `json:"current_level"`
	SkillSpecial   string `json:"skill_special,omitempty"`
	Activities     int64  `json:"activities"`
	ReviewsGiven   int64  `json:"reviews_given"`
	Rank           int    `json:"rank"`
}

// Service handles leaderboard generation and user statistics.
type Service struct {
	activityRepo ActivityRepository
	reviewRepo   ReviewRepository
	userRepo     UserRepository
	levelRepo    LevelRepository
	clock        clock.Clock
	log          *logger.Logger
}

// NewService creates a new leaderboard service with concrete repository types.
func NewService(
	activityRepo *repository.ActivityRepository,
	reviewRepo *repository.ReviewRepository,
	userRepo *repository.UserRepository,
	levelRepo *repository.SkillRepository,
	clk clock.Clock,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(activityRepo, reviewRepo, userRepo, levelRepo, clk, log)
}

// NewServiceWithInterfaces creates a new leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	activityRepo ActivityRepository,
	reviewRepo ReviewRepository,
	userRepo UserRepository,
	levelRepo LevelRepository,
	clk clock.Clock,
	log *logger.Logger,
) *Service {
	return &Service{
		activityRepo: activityRepo,
		reviewRepo:   reviewRepo,
		userRepo:     userRepo,
		levelRepo:    levelRepo,
		clock:        clk,
		log:          log.Component("leaderboard"),
	}
}

// ValidPeriod reports whether period is accepted by the leaderboard.
func ValidPeriod(period string) bool {
	switch period {
	case "day", "week", "month", "year", "all_time":
		return true
	}
	return false
}

// ValidMetric reports whether metric is accepted by the leaderboard.
func ValidMetric(metric string) bool {
	switch metric {
	case MetricXp, MetricActivities, MetricReviews:
		return true
	}
	return false
}

// GetLeaderboard ranks users by metric. Activity and review counts only
// include rows created inside period; XP is always the lifetime total.
func (s *Service) GetLeaderboard(ctx context.Context, period, metric string, limit int) ([]Entry, error) {
	if !ValidPeriod(period) {
		return nil, apperr.BadRequest("invalid period: %s", period)
	}
	if !ValidMetric(metric) {
		return nil, apperr.BadRequest("invalid metric: %s", metric)
	}

	entries, err := s.buildEntries(ctx, period)
	if err != nil {
		return nil, err
	}

	sortLeaderboard(entries, metric)

	for i := range entries {
		entries[i].Rank = i + 1
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	s.log.Debug().
		Str("period", period).
		Str("metric", metric).
		Int("entries", len(entries)).
		Msg("Built leaderboard")

	return entries, nil
}

func (s *Service) buildEntries(ctx context.Context, period string) ([]Entry, error) {
	since := calculatePeriodStart(s.clock.Now(), period)

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, apperr.Fatal("failed to list users", err)
	}
	levels, err := s.levelRepo.XpLevels(ctx)
	if err != nil {
		return nil, apperr.Fatal("failed to load xp levels", err)
	}
	activities, err := s.activityRepo.CountOwnedSince(ctx, since)
	if err != nil {
		return nil, apperr.Fatal("failed to count activities", err)
	}
	reviews, err := s.reviewRepo.CountGivenSince(ctx, since)
	if err != nil {
		return nil, apperr.Fatal("failed to count reviews", err)
	}

	entries := make([]Entry, 0, len(users))
	for i := range users {
		user := &users[i]
		entry := Entry{
			UserID:         user.ID,
			Username:       user.Username,
			Xp:             user.Xp,
			PotentialLevel: rewards.PotentialLevel(levels, user.Xp),
			CurrentLevel:   user.CurrentLevel,
			Activities:     activities[user.ID],
			ReviewsGiven:   reviews[user.ID],
		}
		if user.SkillSpecial != nil {
			entry.SkillSpecial = user.SkillSpecial.Name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// sortLeaderboard sorts entries by metric, breaking ties by XP then user id.
func sortLeaderboard(entries []Entry, metric string) {
	key := func(e Entry) int64 {
		switch metric {
		case MetricActivities:
			return e.Activities
		case MetricReviews:
			return e.ReviewsGiven
		default:
			return int64(e.Xp)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if ki, kj := key(entries[i]), key(entries[j]); ki != kj {
			return ki > kj
		}
		if entries[i].Xp != entries[j].Xp {
			return entries[i].Xp > entries[j].Xp
		}
		return entries[i].UserID < entries[j].UserID
	})
}

// GetUserRank returns the rank of a user for a specific metric in a period.
func (s *Service) GetUserRank(ctx context.Context, userID uint, period, metric string) (int, error) {
	leaderboard, err := s.GetLeaderboard(ctx, period, metric, 0)
	if err != nil {
		return 0, err
	}

	for _, entry := range leaderboard {
		if entry.UserID == userID {
			return entry.Rank, nil
		}
	}

	return 0, apperr.NotFound("user", userID)
}

// calculatePeriodStart returns the oldest creation time counted for period.
func calculatePeriodStart(now time.Time, period string) time.Time {
	switch period {
	case "day":
		return now.Add(-24 * time.Hour)
	case "week":
		return now.Add(-7 * 24 * time.Hour)
	case "month":
		return now.Add(-30 * 24 * time.Hour)
	case "year":
		return now.Add(-365 * 24 * time.Hour)
	default:
		return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
}
