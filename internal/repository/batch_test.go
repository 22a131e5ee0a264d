package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/test/testdb"
)

func TestUnitOfWork_CompleteAppliesAllWrites(t *testing.T) {
	db := testdb.Open(t)
	uow := repository.NewUnitOfWork(db)
	owner := testdb.CreateUser(t, db, "owner", 0)
	activity := testdb.CreateActivity(t, db, &models.Activity{UserID: owner.ID, Type: models.ActivityTypeHappening})
	attendee := testdb.CreateUser(t, db, "attendee", 0)

	stale := &models.UserAttendance{UserID: owner.ID, ActivityID: activity.ID}
	require.NoError(t, db.Create(stale).Error)

	batch := repository.NewBatch()
	batch.Create(&models.UserAttendance{UserID: attendee.ID, ActivityID: activity.ID, Confirmed: true})
	attendee.Xp = 42
	batch.Save(attendee)
	batch.Delete(stale)
	assert.Equal(t, 3, batch.Len())

	require.NoError(t, uow.Complete(context.Background(), batch))

	assert.Equal(t, int64(1), testdb.Count(t, db, &models.UserAttendance{}, ""))
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, attendee.ID).Error)
	assert.Equal(t, 42, reloaded.Xp)
}

func TestUnitOfWork_CompleteRollsBackOnFailure(t *testing.T) {
	db := testdb.Open(t)
	uow := repository.NewUnitOfWork(db)
	user := testdb.CreateUser(t, db, "alice", 0)
	activity := testdb.CreateActivity(t, db, &models.Activity{UserID: user.ID, Type: models.ActivityTypeHappening})

	batch := repository.NewBatch()
	batch.Create(&models.UserAttendance{UserID: user.ID, ActivityID: activity.ID})
	// Violates the one-attendance-per-user unique index.
	batch.Create(&models.UserAttendance{UserID: user.ID, ActivityID: activity.ID})

	err := uow.Complete(context.Background(), batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write 2 of 2")
	assert.Equal(t, int64(0), testdb.Count(t, db, &models.UserAttendance{}, ""))
}

func TestUnitOfWork_SaveLeavesAssociationsAlone(t *testing.T) {
	db := testdb.Open(t)
	uow := repository.NewUnitOfWork(db)
	owner := testdb.CreateUser(t, db, "owner", 0)
	other := testdb.CreateUser(t, db, "other", 0)
	activity := testdb.CreateActivity(t, db, &models.Activity{UserID: owner.ID, Type: models.ActivityTypeHappening})
	attendance := &models.UserAttendance{UserID: other.ID, ActivityID: activity.ID}
	require.NoError(t, db.Create(attendance).Error)

	loaded, err := repository.NewActivityRepository(db).GetByID(context.Background(), activity.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Attendances, 1)

	batch := repository.NewBatch()
	batch.Delete(&loaded.Attendances[0])
	loaded.Resolve(10)
	batch.Save(loaded)
	require.NoError(t, uow.Complete(context.Background(), batch))

	assert.Equal(t, int64(0), testdb.Count(t, db, &models.UserAttendance{}, ""))
}

func TestUnitOfWork_EmptyBatchIsNoop(t *testing.T) {
	db := testdb.Open(t)
	assert.NoError(t, repository.NewUnitOfWork(db).Complete(context.Background(), repository.NewBatch()))
}
