package services

import (
	"errors"
	"sync"
	"testing"
)

func TestRegisterGrantsBonusOnce(t *testing.T) {
	db := setupTestDB(t)
	service := NewLedgerService(db)

	user, created, err := service.Register(1001, "alice", nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !created {
		t.Error("expected first registration to report created")
	}
	if user.Balance != RegistrationBonus {
		t.Errorf("expected balance %d, got %d", RegistrationBonus, user.Balance)
	}

	again, created, err := service.Register(1001, "alice", nil)
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if created {
		t.Error("expected repeat registration to not report created")
	}
	if again.Balance != RegistrationBonus {
		t.Errorf("repeat registration changed balance: got %d", again.Balance)
	}
}

func TestRegisterCreditsInviter(t *testing.T) {
	db := setupTestDB(t)
	service := NewLedgerService(db)

	inviter, _, err := service.Register(2001, "inviter", nil)
	if err != nil {
		t.Fatalf("register inviter: %v", err)
	}

	inviterExternal := inviter.ExternalID
	invitee, _, err := service.Register(2002, "invitee", &inviterExternal)
	if err != nil {
		t.Fatalf("register invitee: %v", err)
	}
	if invitee.InvitedByID == nil || *invitee.InvitedByID != inviter.ID {
		t.Error("invitee not linked to inviter")
	}

	reloaded, err := service.GetByID(inviter.ID)
	if err != nil {
		t.Fatalf("reload inviter: %v", err)
	}
	want := RegistrationBonus + ReferralBonus
	if reloaded.Balance != want {
		t.Errorf("expected inviter balance %d, got %d", want, reloaded.Balance)
	}
}

func TestRegisterIgnoresSelfInvite(t *testing.T) {
	db := setupTestDB(t)
	service := NewLedgerService(db)

	self := int64(3001)
	user, _, err := service.Register(self, "loner", &self)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.InvitedByID != nil {
		t.Error("self-invite should not link an inviter")
	}
	if user.Balance != RegistrationBonus {
		t.Errorf("self-invite changed balance: got %d", user.Balance)
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	db := setupTestDB(t)
	service := NewLedgerService(db)
	user := createTestUser(t, db, 4001, 3)

	err := service.Debit(user.ID, 5)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	reloaded, err := service.GetByID(user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Balance != 3 {
		t.Errorf("failed debit mutated balance: got %d", reloaded.Balance)
	}
}

func TestDebitUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	service := NewLedgerService(db)

	if err := service.Debit(99999, 1); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	db := setupTestDB(t)
	service := NewLedgerService(db)
	user := createTestUser(t, db, 5001, 5)

	const attempts = 10
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- service.Debit(user.ID, 1)
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("unexpected debit error: %v", err)
		}
	}

	if successes != 5 {
		t.Errorf("expected exactly 5 successful debits, got %d", successes)
	}

	reloaded, err := service.GetByID(user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Balance != 0 {
		t.Errorf("expected final balance 0, got %d", reloaded.Balance)
	}
	if reloaded.Balance < 0 {
		t.Error("balance went negative")
	}
}

func TestSetBlockedAndList(t *testing.T) {
	db := setupTestDB(t)
	service := NewLedgerService(db)
	user := createTestUser(t, db, 6001, 0)

	if err := service.SetBlocked(user.ID, true); err != nil {
		t.Fatalf("block: %v", err)
	}

	blocked, err := service.IsBlocked(user.ID)
	if err != nil {
		t.Fatalf("is blocked: %v", err)
	}
	if !blocked {
		t.Error("expected user to be blocked")
	}

	list, err := service.ListBlocked()
	if err != nil {
		t.Fatalf("list blocked: %v", err)
	}
	if len(list) != 1 || list[0].ID != user.ID {
		t.Errorf("unexpected blocked list: %+v", list)
	}

	if err := service.SetBlocked(user.ID, false); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	blocked, _ = service.IsBlocked(user.ID)
	if blocked {
		t.Error("expected user to be unblocked")
	}
}
