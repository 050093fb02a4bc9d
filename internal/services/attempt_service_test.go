package services

import (
	"testing"
	"time"

	"github.com/razour08/tgbot-verify/internal/models"
)

func TestRecordAssignsDefaults(t *testing.T) {
	db := setupTestDB(t)
	service := NewAttemptService(db)
	user := createTestUser(t, db, 8001, 0)

	attempt := &models.VerificationAttempt{
		UserID:       user.ID,
		ServiceType:  models.ServiceSpotifyStudent,
		SourceURL:    "https://services.sheerid.com/verify/abc/?verificationId=68b1c2d3e4f5a6b7c8d9e0f1",
		CostReserved: 5,
	}
	if err := service.Record(attempt); err != nil {
		t.Fatalf("record: %v", err)
	}
	if attempt.ID == "" {
		t.Error("expected a generated attempt id")
	}
	if attempt.Status != models.AttemptPending {
		t.Errorf("expected default status pending, got %s", attempt.Status)
	}
}

func TestMarkRefundedOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	service := NewAttemptService(db)
	user := createTestUser(t, db, 8101, 0)

	attempt := &models.VerificationAttempt{
		UserID:       user.ID,
		ServiceType:  models.ServiceBoltTeacher,
		Status:       models.AttemptFailed,
		CostReserved: 5,
	}
	if err := service.Record(attempt); err != nil {
		t.Fatalf("record: %v", err)
	}

	won, err := service.MarkRefunded(nil, attempt.ID)
	if err != nil {
		t.Fatalf("mark refunded: %v", err)
	}
	if !won {
		t.Error("expected first mark to win")
	}

	won, err = service.MarkRefunded(nil, attempt.ID)
	if err != nil {
		t.Fatalf("mark refunded again: %v", err)
	}
	if won {
		t.Error("expected second mark to lose")
	}
}

func TestListStalePending(t *testing.T) {
	db := setupTestDB(t)
	service := NewAttemptService(db)
	user := createTestUser(t, db, 8201, 0)

	stale := &models.VerificationAttempt{
		UserID:      user.ID,
		ServiceType: models.ServiceGeminiOnePro,
		ExternalID:  "68b1c2d3e4f5a6b7c8d9e0f1",
	}
	if err := service.Record(stale); err != nil {
		t.Fatalf("record stale: %v", err)
	}

	fresh := &models.VerificationAttempt{
		UserID:      user.ID,
		ServiceType: models.ServiceGeminiOnePro,
		ExternalID:  "68b1c2d3e4f5a6b7c8d9e0f2",
	}
	if err := service.Record(fresh); err != nil {
		t.Fatalf("record fresh: %v", err)
	}

	settled := &models.VerificationAttempt{
		UserID:      user.ID,
		ServiceType: models.ServiceGeminiOnePro,
		ExternalID:  "68b1c2d3e4f5a6b7c8d9e0f3",
		Status:      models.AttemptSuccess,
	}
	if err := service.Record(settled); err != nil {
		t.Fatalf("record settled: %v", err)
	}

	// Age the first attempt past the minimum.
	old := time.Now().Add(-time.Hour)
	if err := db.Model(&models.VerificationAttempt{}).Where("id = ?", stale.ID).
		Update("updated_at", old).Error; err != nil {
		t.Fatalf("age attempt: %v", err)
	}

	got, err := service.ListStalePending(10*time.Minute, 50)
	if err != nil {
		t.Fatalf("list stale pending: %v", err)
	}
	if len(got) != 1 || got[0].ID != stale.ID {
		t.Errorf("expected only the aged pending attempt, got %+v", got)
	}
}
