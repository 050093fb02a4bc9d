package services

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/razour08/tgbot-verify/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	// A single connection keeps writes serialized on the shared handle.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.RedemptionCode{},
		&models.RedemptionRecord{},
		&models.CheckIn{},
		&models.VerificationAttempt{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	// Clean all tables
	db.Exec("DELETE FROM verification_attempts")
	db.Exec("DELETE FROM check_ins")
	db.Exec("DELETE FROM redemption_records")
	db.Exec("DELETE FROM redemption_codes")
	db.Exec("DELETE FROM users")

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, externalID int64, balance int64) *models.User {
	t.Helper()

	user := &models.User{
		ExternalID:  externalID,
		DisplayName: "tester",
		Balance:     balance,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}
