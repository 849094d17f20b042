// Package testkit holds helpers shared by package tests.
package testkit

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/database"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/models"
)

// NewDB opens a private in-memory SQLite database with the schema migrated.
// Roles are not seeded; call SeedDefaultRoles when a test needs them.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func SeedDefaultRoles(t testing.TB, db *gorm.DB) {
	t.Helper()
	if err := database.SeedRoles(db, models.RoleUser, models.RoleAdmin); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
}
