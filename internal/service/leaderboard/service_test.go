package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/skillquest/skillquest/internal/apperr"
	"github.com/skillquest/skillquest/internal/clock"
	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/pkg/logger"
	"github.com/skillquest/skillquest/test/testdb"
)

var now = time.Date(2025, 4, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	db    *repository.DB
	alice *models.User
	bob   *models.User
	carol *models.User
}

func setupTestService(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)

	f := &fixture{
		db:    db,
		alice: testdb.CreateUser(t, db, "alice", 600),
		bob:   testdb.CreateUser(t, db, "bob", 120),
		carol: testdb.CreateUser(t, db, "carol", 120),
	}
	f.svc = NewService(
		repository.NewActivityRepository(db),
		repository.NewReviewRepository(db),
		repository.NewUserRepository(db),
		repository.NewSkillRepository(db),
		clock.Fixed(now),
		logger.Nop(),
	)

	// bob: two recent activities, carol: one old activity.
	testdb.CreateActivity(t, db, &models.Activity{UserID: f.bob.ID, Type: models.ActivityTypeJoke, CreatedAt: now.Add(-time.Hour)})
	testdb.CreateActivity(t, db, &models.Activity{UserID: f.bob.ID, Type: models.ActivityTypeQuote, CreatedAt: now.Add(-3 * 24 * time.Hour)})
	old := testdb.CreateActivity(t, db, &models.Activity{UserID: f.carol.ID, Type: models.ActivityTypeJoke, CreatedAt: now.Add(-60 * 24 * time.Hour)})

	review := &models.UserReview{UserID: f.alice.ID, ActivityID: old.ID, ReviewType: models.ReviewTypeGood, CreatedAt: now.Add(-40 * 24 * time.Hour)}
	if err := db.Create(review).Error; err != nil {
		t.Fatalf("Failed to create review: %v", err)
	}

	return f
}

func TestGetLeaderboard_ByXp(t *testing.T) {
	f := setupTestService(t)

	entries, err := f.svc.GetLeaderboard(context.Background(), "all_time", MetricXp, 10)
	if err != nil {
		t.Fatalf("GetLeaderboard() error = %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	// bob and carol tie on XP; the lower id ranks first.
	want := []string{"alice", "bob", "carol"}
	for i, entry := range entries {
		if entry.Username != want[i] {
			t.Errorf("entries[%d].Username = %s, want %s", i, entry.Username, want[i])
		}
		if entry.Rank != i+1 {
			t.Errorf("entries[%d].Rank = %d, want %d", i, entry.Rank, i+1)
		}
	}

	if entries[0].PotentialLevel != 3 {
		t.Errorf("alice PotentialLevel = %d, want 3", entries[0].PotentialLevel)
	}
	if entries[1].PotentialLevel != 1 {
		t.Errorf("bob PotentialLevel = %d, want 1", entries[1].PotentialLevel)
	}
}

func TestGetLeaderboard_ActivitiesByPeriod(t *testing.T) {
	f := setupTestService(t)

	tests := []struct {
		period    string
		wantFirst string
		wantBob   int64
		wantCarol int64
	}{
		{period: "day", wantFirst: "bob", wantBob: 1, wantCarol: 0},
		{period: "week", wantFirst: "bob", wantBob: 2, wantCarol: 0},
		{period: "year", wantFirst: "bob", wantBob: 2, wantCarol: 1},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			entries, err := f.svc.GetLeaderboard(context.Background(), tt.period, MetricActivities, 0)
			if err != nil {
				t.Fatalf("GetLeaderboard() error = %v", err)
			}
			if entries[0].Username != tt.wantFirst {
				t.Errorf("first entry = %s, want %s", entries[0].Username, tt.wantFirst)
			}

			counts := map[string]int64{}
			for _, e := range entries {
				counts[e.Username] = e.Activities
			}
			if counts["bob"] != tt.wantBob {
				t.Errorf("bob activities = %d, want %d", counts["bob"], tt.wantBob)
			}
			if counts["carol"] != tt.wantCarol {
				t.Errorf("carol activities = %d, want %d", counts["carol"], tt.wantCarol)
			}
		})
	}
}

func TestGetLeaderboard_Limit(t *testing.T) {
	f := setupTestService(t)

	entries, err := f.svc.GetLeaderboard(context.Background(), "all_time", MetricReviews, 1)
	if err != nil {
		t.Fatalf("GetLeaderboard() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Username != "alice" || entries[0].ReviewsGiven != 1 {
		t.Errorf("Expected alice with 1 review, got %s with %d", entries[0].Username, entries[0].ReviewsGiven)
	}
}

func TestGetLeaderboard_InvalidParameters(t *testing.T) {
	f := setupTestService(t)

	if _, err := f.svc.GetLeaderboard(context.Background(), "decade", MetricXp, 10); !apperr.IsBadRequest(err) {
		t.Errorf("Expected BadRequest for invalid period, got %v", err)
	}
	if _, err := f.svc.GetLeaderboard(context.Background(), "week", "karma", 10); !apperr.IsBadRequest(err) {
		t.Errorf("Expected BadRequest for invalid metric, got %v", err)
	}
}

func TestGetUserRank(t *testing.T) {
	f := setupTestService(t)

	rank, err := f.svc.GetUserRank(context.Background(), f.bob.ID, "week", MetricActivities)
	if err != nil {
		t.Fatalf("GetUserRank() error = %v", err)
	}
	if rank != 1 {
		t.Errorf("GetUserRank() = %d, want 1", rank)
	}

	if _, err := f.svc.GetUserRank(context.Background(), 999, "week", MetricXp); !apperr.IsNotFound(err) {
		t.Errorf("Expected NotFound for unknown user, got %v", err)
	}
}

func TestGetUserStats(t *testing.T) {
	f := setupTestService(t)

	stats, err := f.svc.GetUserStats(context.Background(), f.alice.ID, "week", "")
	if err != nil {
		t.Fatalf("GetUserStats() error = %v", err)
	}

	if stats.Rank != 1 {
		t.Errorf("Rank = %d, want 1", stats.Rank)
	}
	if stats.ReviewsGiven != 0 {
		t.Errorf("ReviewsGiven in week = %d, want 0", stats.ReviewsGiven)
	}
	if stats.LifetimeReviews != 1 {
		t.Errorf("LifetimeReviews = %d, want 1", stats.LifetimeReviews)
	}
	if stats.Metric != MetricXp || stats.MetricRank != 1 {
		t.Errorf("Metric rank = %s/%d, want xp/1", stats.Metric, stats.MetricRank)
	}

	if _, err := f.svc.GetUserStats(context.Background(), 999, "week", ""); !apperr.IsNotFound(err) {
		t.Errorf("Expected NotFound for unknown user, got %v", err)
	}
}

func TestGetUserStats_MetricRank(t *testing.T) {
	f := setupTestService(t)

	stats, err := f.svc.GetUserStats(context.Background(), f.alice.ID, "week", MetricActivities)
	if err != nil {
		t.Fatalf("GetUserStats() error = %v", err)
	}
	if stats.Rank != 1 {
		t.Errorf("XP rank = %d, want 1", stats.Rank)
	}
	if stats.MetricRank != 2 {
		t.Errorf("Activities rank = %d, want 2 (behind bob)", stats.MetricRank)
	}

	if _, err := f.svc.GetUserStats(context.Background(), f.alice.ID, "week", "karma"); !apperr.IsBadRequest(err) {
		t.Errorf("Expected BadRequest for invalid metric, got %v", err)
	}
}

func TestCalculatePeriodStart(t *testing.T) {
	tests := []struct {
		period string
		want   time.Time
	}{
		{"day", now.Add(-24 * time.Hour)},
		{"week", now.Add(-7 * 24 * time.Hour)},
		{"month", now.Add(-30 * 24 * time.Hour)},
		{"year", now.Add(-365 * 24 * time.Hour)},
		{"all_time", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			if got := calculatePeriodStart(now, tt.period); !got.Equal(tt.want) {
				t.Errorf("calculatePeriodStart(%s) = %v, want %v", tt.period, got, tt.want)
			}
		})
	}
}
