package services

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mguerin/materiguard/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Article{}, &models.Loan{}, &models.Issuance{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedArticle(t *testing.T, db *gorm.DB, name string, total, available, threshold int) *models.Article {
	t.Helper()
	a := &models.Article{
		Name:              name,
		Category:          "Équipement",
		QuantityTotal:     total,
		QuantityAvailable: available,
		AlertThreshold:    threshold,
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed article: %v", err)
	}
	return a
}

func futureDate() time.Time {
	return time.Now().Add(7 * 24 * time.Hour)
}

func pastDate() time.Time {
	return time.Now().Add(-7 * 24 * time.Hour)
}
