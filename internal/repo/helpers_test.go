package repo

import (
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/climetry/go-notify-backend/internal/domain"
)

// openMemory opens a private in-memory database that is closed with the test.
func openMemory(t *testing.T, prefix string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", prefix, uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newTestDB migrates the full schema, or only the given models.
func newTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()
	db := openMemory(t, "repo")
	var err error
	if len(models) == 0 {
		err = AutoMigrate(db)
	} else {
		err = db.AutoMigrate(models...)
	}
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newBareDB opens a database without any tables.
func newBareDB(t *testing.T) *gorm.DB { return openMemory(t, "bare") }

// allChanges returns every change-feed row, oldest first.
func allChanges(t *testing.T, db *gorm.DB) []domain.DocumentChange {
	t.Helper()
	var out []domain.DocumentChange
	if err := db.Order("id asc").Find(&out).Error; err != nil {
		t.Fatalf("load changes: %v", err)
	}
	return out
}
