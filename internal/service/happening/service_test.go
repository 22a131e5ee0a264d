package happening

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillquest/skillquest/internal/apperr"
	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/photos"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/internal/rewards"
	"github.com/skillquest/skillquest/internal/service/skills"
	"github.com/skillquest/skillquest/pkg/logger"
	"github.com/skillquest/skillquest/test/mocks"
	"github.com/skillquest/skillquest/test/testdb"
)

var (
	start = time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC)
	end   = start.Add(3 * time.Hour)
	tick  = time.Nanosecond
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type fixture struct {
	svc       *Service
	db        *repository.DB
	uow       *mocks.CountingUnitOfWork
	storage   *mocks.MockPhotoStorage
	notifier  *mocks.MockNotifier
	clock     *testClock
	owner     *models.User
	moderator *models.User
	happening *models.Activity
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	uow := mocks.NewCountingUnitOfWork(repository.NewUnitOfWork(db))
	storage := mocks.NewMockPhotoStorage()
	notifier := mocks.NewMockNotifier()
	clk := &testClock{now: start.Add(-24 * time.Hour)}
	userRepo := repository.NewUserRepository(db)
	rewarder := skills.NewServiceWithInterfaces(repository.NewSkillRepository(db), userRepo, uow, logger.Nop())

	svc := NewService(
		repository.NewActivityRepository(db),
		repository.NewEngagementRepository(db),
		userRepo,
		rewarder,
		rewards.Default(),
		uow,
		storage,
		notifier,
		clk,
		10*24*time.Hour,
		logger.Nop(),
	)

	owner := testdb.CreateUser(t, db, "owner", 0)
	moderator := testdb.CreateUser(t, db, "moderator", 0)
	s, e := start, end
	happening := testdb.CreateActivity(t, db, &models.Activity{
		UserID:    owner.ID,
		Type:      models.ActivityTypeHappening,
		Title:     "Park cleanup",
		StartDate: &s,
		EndDate:   &e,
	})

	return &fixture{
		svc: svc, db: db, uow: uow, storage: storage, notifier: notifier, clock: clk,
		owner: owner, moderator: moderator, happening: happening,
	}
}

func (f *fixture) attendances(t *testing.T, userID uint) []models.UserAttendance {
	t.Helper()
	var rows []models.UserAttendance
	require.NoError(t, f.db.Where("user_id = ? AND activity_id = ?", userID, f.happening.ID).Find(&rows).Error)
	return rows
}

func (f *fixture) xp(t *testing.T, userID uint) int {
	t.Helper()
	var user models.User
	require.NoError(t, f.db.First(&user, userID).Error)
	return user.Xp
}

func evidence(names ...string) []photos.File {
	files := make([]photos.File, 0, len(names))
	for _, n := range names {
		files = append(files, photos.File{Name: n, Body: strings.NewReader("img")})
	}
	return files
}

func TestAttendRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bob := testdb.CreateUser(t, f.db, "bob", 0)

	require.NoError(t, f.svc.Attend(ctx, f.happening.ID, bob.ID, true))
	rows := f.attendances(t, bob.ID)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Confirmed)

	err := f.svc.Attend(ctx, f.happening.ID, bob.ID, true)
	assert.True(t, apperr.IsBadRequest(err), "second attend must be rejected")

	require.NoError(t, f.svc.Attend(ctx, f.happening.ID, bob.ID, false))
	assert.Empty(t, f.attendances(t, bob.ID))

	err = f.svc.Attend(ctx, f.happening.ID, bob.ID, false)
	assert.True(t, apperr.IsBadRequest(err), "cancel without attendance must be rejected")
	assert.Equal(t, 2, f.uow.Completes)
}

func TestAttendGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bob := testdb.CreateUser(t, f.db, "bob", 0)
	quote := testdb.CreateActivity(t, f.db, &models.Activity{UserID: f.owner.ID, Type: models.ActivityTypeQuote})

	assert.True(t, apperr.IsNotFound(f.svc.Attend(ctx, 999, bob.ID, true)))
	assert.True(t, apperr.IsBadRequest(f.svc.Attend(ctx, quote.ID, bob.ID, true)))
	assert.True(t, apperr.IsBadRequest(f.svc.Attend(ctx, f.happening.ID, f.owner.ID, true)))

	f.clock.now = end
	require.NoError(t, f.svc.Attend(ctx, f.happening.ID, bob.ID, true), "attending is open until the end")

	carol := testdb.CreateUser(t, f.db, "carol", 0)
	f.clock.now = end.Add(tick)
	assert.True(t, apperr.IsBadRequest(f.svc.Attend(ctx, f.happening.ID, carol.ID, true)))

	// Withdrawing is not time guarded.
	require.NoError(t, f.svc.Attend(ctx, f.happening.ID, bob.ID, false))
}

func TestConfirmAttendanceWindow(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantErr bool
	}{
		{"one tick before start", start.Add(-tick), true},
		{"at start", start, false},
		{"during", start.Add(time.Hour), false},
		{"at end", end, false},
		{"one tick after end", end.Add(tick), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			bob := testdb.CreateUser(t, f.db, "bob", 0)
			require.NoError(t, f.svc.Attend(context.Background(), f.happening.ID, bob.ID, true))

			f.clock.now = tt.now
			err := f.svc.ConfirmAttendance(context.Background(), f.happening.ID, bob.ID)
			rows := f.attendances(t, bob.ID)
			require.Len(t, rows, 1)
			if tt.wantErr {
				assert.True(t, apperr.IsBadRequest(err))
				assert.False(t, rows[0].Confirmed)
			} else {
				require.NoError(t, err)
				assert.True(t, rows[0].Confirmed)
			}
		})
	}
}

func TestConfirmAttendanceLateJoin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bob := testdb.CreateUser(t, f.db, "bob", 0)
	f.clock.now = start.Add(time.Hour)

	require.NoError(t, f.svc.ConfirmAttendance(ctx, f.happening.ID, bob.ID))
	rows := f.attendances(t, bob.ID)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Confirmed)

	assert.True(t, apperr.IsBadRequest(f.svc.ConfirmAttendance(ctx, f.happening.ID, bob.ID)))
	assert.True(t, apperr.IsBadRequest(f.svc.ConfirmAttendance(ctx, f.happening.ID, f.owner.ID)))
}

func TestCompleteHappening(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.clock.now = end.Add(time.Hour)

	media, err := f.svc.CompleteHappening(ctx, f.happening.ID, f.owner.ID, evidence("a.jpg", "b.png"))
	require.NoError(t, err)
	require.Len(t, media, 2)
	assert.Equal(t, []string{"photo-1", "photo-2"}, f.storage.Added)
	assert.Equal(t, int64(2), testdb.Count(t, f.db, &models.HappeningMedia{}, "activity_id = ?", f.happening.ID))

	_, err = f.svc.CompleteHappening(ctx, f.happening.ID, f.owner.ID, evidence("c.jpg"))
	assert.True(t, apperr.IsBadRequest(err), "already completed")
	assert.Len(t, f.storage.Added, 2)
}

func TestCompleteHappeningGuards(t *testing.T) {
	window := 10 * 24 * time.Hour
	tests := []struct {
		name  string
		now   time.Time
		owner bool
		files []photos.File
	}{
		{"before end", end.Add(-tick), true, evidence("a.jpg")},
		{"after window", end.Add(window + tick), true, evidence("a.jpg")},
		{"not owner", end.Add(time.Hour), false, evidence("a.jpg")},
		{"no media", end.Add(time.Hour), true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.clock.now = tt.now
			requester := f.moderator.ID
			if tt.owner {
				requester = f.owner.ID
			}

			_, err := f.svc.CompleteHappening(context.Background(), f.happening.ID, requester, tt.files)
			assert.True(t, apperr.IsBadRequest(err))
			assert.Empty(t, f.storage.Added)
			assert.Zero(t, f.uow.Completes)
		})
	}
}

func TestCompleteHappeningWindowEdges(t *testing.T) {
	for _, now := range []time.Time{end, end.Add(10 * 24 * time.Hour)} {
		f := setup(t)
		f.clock.now = now
		_, err := f.svc.CompleteHappening(context.Background(), f.happening.ID, f.owner.ID, evidence("a.jpg"))
		assert.NoError(t, err, "completion at %s", now)
	}
}

func TestCompleteHappeningCleansUpOnFailedCommit(t *testing.T) {
	f := setup(t)
	f.clock.now = end.Add(time.Hour)
	f.uow.Err = errors.New("deadlock detected")

	_, err := f.svc.CompleteHappening(context.Background(), f.happening.ID, f.owner.ID, evidence("a.jpg", "b.jpg"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindFatal, apperr.KindOf(err))
	assert.ElementsMatch(t, f.storage.Added, f.storage.Deleted)
}

func TestApproveCompletionRewardsConfirmedAttendees(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	confirmed := testdb.CreateUser(t, f.db, "confirmed", 0)
	noShow := testdb.CreateUser(t, f.db, "noshow", 0)
	testdb.CreateSkill(t, f.db, confirmed.ID, models.ActivityTypeHappening, 1, 1)
	testdb.CreateSkill(t, f.db, f.owner.ID, models.ActivityTypeHappening, 3, 6)

	require.NoError(t, f.svc.Attend(ctx, f.happening.ID, confirmed.ID, true))
	require.NoError(t, f.svc.Attend(ctx, f.happening.ID, noShow.ID, true))
	f.clock.now = start.Add(time.Hour)
	require.NoError(t, f.svc.ConfirmAttendance(ctx, f.happening.ID, confirmed.ID))
	f.clock.now = end.Add(time.Hour)
	_, err := f.svc.CompleteHappening(ctx, f.happening.ID, f.owner.ID, evidence("a.jpg", "b.jpg"))
	require.NoError(t, err)
	completesBefore := f.uow.Completes

	require.NoError(t, f.svc.ApproveCompletion(ctx, f.happening.ID, f.moderator.ID, true))
	assert.Equal(t, completesBefore+1, f.uow.Completes, "approval commits once")

	assert.Equal(t, 165, f.xp(t, confirmed.ID)) // 150 at level 1
	assert.Equal(t, 195, f.xp(t, f.owner.ID))   // 150 at level 3
	assert.Zero(t, f.xp(t, noShow.ID))
	assert.Empty(t, f.attendances(t, noShow.ID))
	assert.Len(t, f.attendances(t, confirmed.ID), 1)

	assert.Zero(t, testdb.Count(t, f.db, &models.HappeningMedia{}, ""))
	assert.ElementsMatch(t, []string{"photo-1", "photo-2"}, f.storage.Deleted)

	approvals := f.notifier.OfKind("happening_approval")
	require.Len(t, approvals, 1)
	assert.True(t, approvals[0].Accepted)
	assert.Equal(t, "owner@example.com", approvals[0].Recipient)

	var counter models.Skill
	require.NoError(t, f.db.Where("user_id = ? AND activity_type_id = ?", confirmed.ID, models.ActivityTypeHappening).First(&counter).Error)
	assert.Equal(t, 2, counter.Counter)

	err = f.svc.ApproveCompletion(ctx, f.happening.ID, f.moderator.ID, true)
	assert.True(t, apperr.IsBadRequest(err), "already resolved")
}

func TestApproveCompletionReject(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bob := testdb.CreateUser(t, f.db, "bob", 0)
	f.clock.now = start.Add(time.Hour)
	require.NoError(t, f.svc.ConfirmAttendance(ctx, f.happening.ID, bob.ID))
	f.clock.now = end.Add(time.Hour)
	_, err := f.svc.CompleteHappening(ctx, f.happening.ID, f.owner.ID, evidence("a.jpg"))
	require.NoError(t, err)

	require.NoError(t, f.svc.ApproveCompletion(ctx, f.happening.ID, f.moderator.ID, false))

	assert.Zero(t, f.xp(t, bob.ID))
	assert.Zero(t, f.xp(t, f.owner.ID))
	assert.Len(t, f.attendances(t, bob.ID), 1)
	assert.Zero(t, testdb.Count(t, f.db, &models.HappeningMedia{}, ""))
	assert.Equal(t, []string{"photo-1"}, f.storage.Deleted)
	assert.Zero(t, testdb.Count(t, f.db, &models.Skill{}, ""))

	approvals := f.notifier.OfKind("happening_approval")
	require.Len(t, approvals, 1)
	assert.False(t, approvals[0].Accepted)

	// A rejected completion can be resubmitted inside the window.
	_, err = f.svc.CompleteHappening(ctx, f.happening.ID, f.owner.ID, evidence("b.jpg"))
	assert.NoError(t, err)
}

func TestApproveCompletionGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.clock.now = end
	assert.True(t, apperr.IsBadRequest(f.svc.ApproveCompletion(ctx, f.happening.ID, f.moderator.ID, true)), "not ended")

	f.clock.now = end.Add(time.Hour)
	assert.True(t, apperr.IsBadRequest(f.svc.ApproveCompletion(ctx, f.happening.ID, f.moderator.ID, true)), "no media")
	assert.True(t, apperr.IsBadRequest(f.svc.ApproveCompletion(ctx, f.happening.ID, f.owner.ID, false)), "owner")
	assert.True(t, apperr.IsNotFound(f.svc.ApproveCompletion(ctx, 999, f.moderator.ID, true)))
	assert.Zero(t, f.uow.Completes)
	assert.Empty(t, f.notifier.Sent)
}

func TestGetAttendees(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bob := testdb.CreateUser(t, f.db, "bob", 0)
	carol := testdb.CreateUser(t, f.db, "carol", 0)
	require.NoError(t, f.svc.Attend(ctx, f.happening.ID, bob.ID, true))
	require.NoError(t, f.svc.Attend(ctx, f.happening.ID, carol.ID, true))

	attendees, err := f.svc.GetAttendees(ctx, f.happening.ID)
	require.NoError(t, err)
	assert.Len(t, attendees, 2)

	_, err = f.svc.GetAttendees(ctx, 999)
	assert.True(t, apperr.IsNotFound(err))
}
