package services

import (
	"errors"
	"testing"
)

func TestRedeemCreditsOncePerUser(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	service := NewRedemptionService(db)
	admin := createTestUser(t, db, 9001, 0)
	user := createTestUser(t, db, 9002, 0)

	if _, err := service.CreateCode("WELCOME10", 10, admin.ID, 5, nil); err != nil {
		t.Fatalf("create code: %v", err)
	}

	points, err := service.Redeem("WELCOME10", user.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if points != 10 {
		t.Errorf("expected 10 points, got %d", points)
	}

	reloaded, _ := ledger.GetByID(user.ID)
	if reloaded.Balance != 10 {
		t.Errorf("expected balance 10, got %d", reloaded.Balance)
	}

	if _, err := service.Redeem("WELCOME10", user.ID); !errors.Is(err, ErrCodeAlreadyUsed) {
		t.Fatalf("expected ErrCodeAlreadyUsed, got %v", err)
	}

	reloaded, _ = ledger.GetByID(user.ID)
	if reloaded.Balance != 10 {
		t.Errorf("second redeem changed balance: got %d", reloaded.Balance)
	}
}

func TestRedeemExhaustedCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewRedemptionService(db)
	admin := createTestUser(t, db, 9101, 0)
	first := createTestUser(t, db, 9102, 0)
	second := createTestUser(t, db, 9103, 0)

	if _, err := service.CreateCode("SINGLE", 5, admin.ID, 1, nil); err != nil {
		t.Fatalf("create code: %v", err)
	}

	if _, err := service.Redeem("SINGLE", first.ID); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if _, err := service.Redeem("SINGLE", second.ID); !errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("expected ErrCodeExhausted, got %v", err)
	}
}

func TestRedeemExpiredCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewRedemptionService(db)
	admin := createTestUser(t, db, 9201, 0)
	user := createTestUser(t, db, 9202, 0)

	expired := -1
	if _, err := service.CreateCode("OLD", 5, admin.ID, 10, &expired); err != nil {
		t.Fatalf("create code: %v", err)
	}

	if _, err := service.Redeem("OLD", user.ID); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestRedeemUnknownCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewRedemptionService(db)
	user := createTestUser(t, db, 9301, 0)

	if _, err := service.Redeem("NOPE", user.ID); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound, got %v", err)
	}
}

func TestCreateDuplicateCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewRedemptionService(db)
	admin := createTestUser(t, db, 9401, 0)

	if _, err := service.CreateCode("DUP", 5, admin.ID, 1, nil); err != nil {
		t.Fatalf("create code: %v", err)
	}
	if _, err := service.CreateCode("DUP", 7, admin.ID, 2, nil); !errors.Is(err, ErrCodeExists) {
		t.Fatalf("expected ErrCodeExists, got %v", err)
	}
}
