// Package testdb opens migrated in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/repository"
	"github.com/skillquest/skillquest/internal/rewards"
	"github.com/skillquest/skillquest/pkg/logger"
)

// Open returns a fresh database with every table migrated and the default
// reference data seeded. It is closed when the test ends.
func Open(t *testing.T) *repository.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	db := &repository.DB{DB: gormDB}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	if err := repository.SeedReferenceData(context.Background(), db, rewards.Default(), logger.Nop()); err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// CreateUser inserts a user.
func CreateUser(t *testing.T, db *repository.DB, username string, xp int) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Xp: xp}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// CreateActivity inserts an activity.
func CreateActivity(t *testing.T, db *repository.DB, activity *models.Activity) *models.Activity {
	t.Helper()
	if activity.Resolution == "" {
		activity.Resolution = models.ResolutionUnresolved
	}
	if activity.Title == "" {
		activity.Title = activity.Type.String()
	}
	if err := db.Create(activity).Error; err != nil {
		t.Fatalf("Failed to create activity: %v", err)
	}
	return activity
}

// CreateSkill inserts a skill row.
func CreateSkill(t *testing.T, db *repository.DB, userID uint, activityType models.ActivityType, level, counter int) *models.Skill {
	t.Helper()
	skill := &models.Skill{UserID: userID, ActivityType: activityType, Level: level, Counter: counter}
	if err := db.Create(skill).Error; err != nil {
		t.Fatalf("Failed to create skill: %v", err)
	}
	return skill
}

// Count returns the number of rows of model matching the optional condition.
func Count(t *testing.T, db *repository.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return count
}
