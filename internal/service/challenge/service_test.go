package challenge

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillquest/skillquest/internal/apperr"
	"github.com/skillquest/skillquest/internal/clock"
	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/photos"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/internal/rewards"
	"github.com/skillquest/skillquest/internal/service/skills"
	"github.com/skillquest/skillquest/pkg/logger"
	"github.com/skillquest/skillquest/test/mocks"
	"github.com/skillquest/skillquest/test/testdb"
)

type fixture struct {
	svc       *Service
	db        *repository.DB
	uow       *mocks.CountingUnitOfWork
	storage   *mocks.MockPhotoStorage
	notifier  *mocks.MockNotifier
	owner     *models.User
	moderator *models.User
	challenge *models.Activity
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	uow := mocks.NewCountingUnitOfWork(repository.NewUnitOfWork(db))
	storage := mocks.NewMockPhotoStorage()
	notifier := mocks.NewMockNotifier()
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
		clock.Fixed(time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)),
		logger.Nop(),
	)

	owner := testdb.CreateUser(t, db, "owner", 0)
	moderator := testdb.CreateUser(t, db, "moderator", 0)
	challenge := testdb.CreateActivity(t, db, &models.Activity{
		UserID: owner.ID,
		Type:   models.ActivityTypeChallenge,
		Title:  "Cold shower week",
	})

	return &fixture{
		svc: svc, db: db, uow: uow, storage: storage, notifier: notifier,
		owner: owner, moderator: moderator, challenge: challenge,
	}
}

func files(names ...string) []photos.File {
	out := make([]photos.File, 0, len(names))
	for _, n := range names {
		out = append(out, photos.File{Name: n, Body: strings.NewReader(n)})
	}
	return out
}

func (f *fixture) answer(t *testing.T, username string, media ...string) (*models.User, *models.UserChallengeAnswer) {
	t.Helper()
	user := testdb.CreateUser(t, f.db, username, 0)
	answer, err := f.svc.AnswerToChallenge(context.Background(), f.challenge.ID, user.ID, "done by "+username, files(media...))
	require.NoError(t, err)
	return user, answer
}

func (f *fixture) xp(t *testing.T, userID uint) int {
	t.Helper()
	var user models.User
	require.NoError(t, f.db.First(&user, userID).Error)
	return user.Xp
}

func TestAnswerToChallenge_NewAnswerNotifiesOwner(t *testing.T) {
	f := setup(t)

	bob, answer := f.answer(t, "bob", "a.jpg", "b.jpg")

	assert.NotZero(t, answer.ID)
	assert.Equal(t, int64(2), testdb.Count(t, f.db, &models.ChallengeMedia{}, "user_challenge_answer_id = ?", answer.ID))
	answered := f.notifier.OfKind("challenge_answered")
	require.Len(t, answered, 1)
	assert.Equal(t, "owner@example.com", answered[0].Recipient)
	assert.Equal(t, bob.Username, answered[0].Actor)
}

func TestAnswerToChallenge_ResubmissionReplacesInPlace(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bob, first := f.answer(t, "bob", "a.jpg", "b.jpg")

	second, err := f.svc.AnswerToChallenge(ctx, f.challenge.ID, bob.ID, "better proof", files("c.jpg"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1), testdb.Count(t, f.db, &models.UserChallengeAnswer{}, ""))

	var stored models.UserChallengeAnswer
	require.NoError(t, f.db.Preload("Media").First(&stored, first.ID).Error)
	assert.Equal(t, "better proof", stored.Description)
	require.Len(t, stored.Media, 1)
	assert.Equal(t, "photo-3", stored.Media[0].PublicID)
	assert.ElementsMatch(t, []string{"photo-1", "photo-2"}, f.storage.Deleted)

	assert.Len(t, f.notifier.OfKind("challenge_answered"), 1, "replacement sends no notification")
}

func TestAnswerToChallenge_Guards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bob := testdb.CreateUser(t, f.db, "bob", 0)
	puzzle := testdb.CreateActivity(t, f.db, &models.Activity{UserID: f.owner.ID, Type: models.ActivityTypePuzzle, Answer: "x"})

	_, err := f.svc.AnswerToChallenge(ctx, 999, bob.ID, "x", nil)
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.svc.AnswerToChallenge(ctx, puzzle.ID, bob.ID, "x", nil)
	assert.True(t, apperr.IsBadRequest(err))

	_, err = f.svc.AnswerToChallenge(ctx, f.challenge.ID, f.owner.ID, "x", nil)
	assert.True(t, apperr.IsBadRequest(err))

	_, err = f.svc.AnswerToChallenge(ctx, f.challenge.ID, bob.ID, "  ", nil)
	assert.True(t, apperr.IsBadRequest(err))

	assert.Zero(t, f.uow.Completes)
	assert.Empty(t, f.storage.Added)
}

func TestConfirmChallengeAnswer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, bobs := f.answer(t, "bob")
	_, carols := f.answer(t, "carol")

	assert.True(t, apperr.IsBadRequest(f.svc.ConfirmChallengeAnswer(ctx, bobs.ID, f.moderator.ID)), "not the owner")
	assert.True(t, apperr.IsNotFound(f.svc.ConfirmChallengeAnswer(ctx, 999, f.owner.ID)))

	require.NoError(t, f.svc.ConfirmChallengeAnswer(ctx, bobs.ID, f.owner.ID))
	assert.True(t, apperr.IsBadRequest(f.svc.ConfirmChallengeAnswer(ctx, bobs.ID, f.owner.ID)), "already confirmed")
	assert.True(t, apperr.IsBadRequest(f.svc.ConfirmChallengeAnswer(ctx, carols.ID, f.owner.ID)), "another answer confirmed")

	assert.Equal(t, int64(1), testdb.Count(t, f.db, &models.UserChallengeAnswer{}, "confirmed = ?", true))
}

func TestApproveChallengeAnswer_ResolvesOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testdb.CreateSkill(t, f.db, f.owner.ID, models.ActivityTypeChallenge, 2, 3)
	bob, winner := f.answer(t, "bob", "w.jpg")
	_, loser := f.answer(t, "carol", "l1.jpg", "l2.jpg")
	require.NoError(t, f.svc.ConfirmChallengeAnswer(ctx, winner.ID, f.owner.ID))
	completes := f.uow.Completes

	xp, err := f.svc.ApproveChallengeAnswer(ctx, winner.ID, f.moderator.ID)
	require.NoError(t, err)
	assert.Equal(t, 240, xp) // 200 at owner level 2
	assert.Equal(t, completes+1, f.uow.Completes)
	assert.Equal(t, 240, f.xp(t, bob.ID))

	var activity models.Activity
	require.NoError(t, f.db.First(&activity, f.challenge.ID).Error)
	assert.True(t, activity.IsResolved())
	require.NotNil(t, activity.XpReward)
	assert.Equal(t, 240, *activity.XpReward)

	assert.Zero(t, testdb.Count(t, f.db, &models.UserChallengeAnswer{}, "id = ?", loser.ID))
	assert.Zero(t, testdb.Count(t, f.db, &models.ChallengeMedia{}, "user_challenge_answer_id = ?", loser.ID))
	assert.Equal(t, int64(1), testdb.Count(t, f.db, &models.ChallengeMedia{}, "user_challenge_answer_id = ?", winner.ID))
	assert.ElementsMatch(t, []string{"photo-2", "photo-3"}, f.storage.Deleted)

	accepted := f.notifier.OfKind("challenge_answer_accepted")
	require.Len(t, accepted, 2)
	assert.ElementsMatch(t, []string{"owner@example.com", "bob@example.com"}, []string{accepted[0].Recipient, accepted[1].Recipient})

	_, err = f.svc.ApproveChallengeAnswer(ctx, winner.ID, f.moderator.ID)
	assert.True(t, apperr.IsBadRequest(err), "already resolved")
	assert.Equal(t, 240, f.xp(t, bob.ID), "author rewarded once")

	_, err = f.svc.AnswerToChallenge(ctx, f.challenge.ID, testdb.CreateUser(t, f.db, "dave", 0).ID, "late", nil)
	assert.True(t, apperr.IsBadRequest(err), "resolved challenges take no answers")
}

func TestApproveChallengeAnswer_Guards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, answer := f.answer(t, "bob")

	_, err := f.svc.ApproveChallengeAnswer(ctx, 999, f.moderator.ID)
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.svc.ApproveChallengeAnswer(ctx, answer.ID, f.moderator.ID)
	assert.True(t, apperr.IsBadRequest(err), "not confirmed")

	require.NoError(t, f.svc.ConfirmChallengeAnswer(ctx, answer.ID, f.owner.ID))
	_, err = f.svc.ApproveChallengeAnswer(ctx, answer.ID, f.owner.ID)
	assert.True(t, apperr.IsBadRequest(err), "owner cannot approve")
}

func TestDisapproveChallengeAnswer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, bobs := f.answer(t, "bob", "b.jpg")
	_, carols := f.answer(t, "carol", "c.jpg")
	require.NoError(t, f.svc.ConfirmChallengeAnswer(ctx, bobs.ID, f.owner.ID))

	require.NoError(t, f.svc.DisapproveChallengeAnswer(ctx, bobs.ID, f.moderator.ID))

	rejected := f.notifier.OfKind("challenge_answer_accepted")
	require.Len(t, rejected, 1)
	assert.False(t, rejected[0].Accepted)
	assert.Equal(t, "owner@example.com", rejected[0].Recipient)
	assert.Empty(t, f.storage.Deleted, "disapproval keeps media")
	assert.Equal(t, int64(2), testdb.Count(t, f.db, &models.ChallengeMedia{}, ""))

	// The owner may now pick another answer.
	require.NoError(t, f.svc.ConfirmChallengeAnswer(ctx, carols.ID, f.owner.ID))

	assert.True(t, apperr.IsNotFound(f.svc.DisapproveChallengeAnswer(ctx, 999, f.moderator.ID)))
	assert.True(t, apperr.IsBadRequest(f.svc.DisapproveChallengeAnswer(ctx, bobs.ID, f.moderator.ID)), "not confirmed")
}

func TestListAnswers(t *testing.T) {
	f := setup(t)
	bob, _ := f.answer(t, "bob", "a.jpg")
	f.answer(t, "carol")

	answers, err := f.svc.ListAnswers(context.Background(), f.challenge.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	for _, a := range answers {
		if a.UserID == bob.ID {
			assert.Len(t, a.Media, 1)
		} else {
			assert.Empty(t, a.Media)
		}
	}
}
