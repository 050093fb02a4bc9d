package services

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/razour08/tgbot-verify/internal/models"
)

const (
	// RegistrationBonus is credited to every new user.
	RegistrationBonus int64 = 1
	// ReferralBonus is credited to a valid inviter when their invitee registers.
	ReferralBonus int64 = 2
)

// LedgerService owns the user registry and all point balance mutations.
// Every balance change is a single guarded UPDATE, so concurrent callers
// can never observe or produce a negative balance.
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// Register creates a user keyed by external identity and credits the
// registration bonus. The second return value is false if the user already
// existed. The referral bonus for invitedBy is best-effort: a failure there
// is logged and does not undo the registration.
func (s *LedgerService) Register(externalID int64, displayName string, invitedBy *int64) (*models.User, bool, error) {
	var existing models.User
	err := s.db.Where("external_id = ?", externalID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}

	// Resolve the inviter before creating: only existing, non-blocked users
	// can earn the referral bonus, and self-invites are ignored.
	var inviter *models.User
	if invitedBy != nil && *invitedBy != externalID {
		var u models.User
		if err := s.db.Where("external_id = ? AND blocked = ?", *invitedBy, false).First(&u).Error; err == nil {
			inviter = &u
		}
	}

	user := models.User{
		ExternalID:  externalID,
		DisplayName: displayName,
		Balance:     RegistrationBonus,
	}
	if inviter != nil {
		user.InvitedByID = &inviter.ID
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a registration race; treat as already registered.
			if lerr := s.db.Where("external_id = ?", externalID).First(&existing).Error; lerr == nil {
				return &existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	if inviter != nil {
		if err := s.Credit(inviter.ID, ReferralBonus); err != nil {
			log.Printf("[Ledger] Referral bonus for user %d failed: %v", inviter.ID, err)
		}
	}

	return &user, true, nil
}

// Credit adds amount points to the user's balance.
func (s *LedgerService) Credit(userID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	res := s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Debit removes amount points as a single conditional decrement. The
// balance guard lives inside the UPDATE itself, so two concurrent debits
// can never both pass a stale balance check.
func (s *LedgerService) Debit(userID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	res := s.db.Model(&models.User{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err == nil && count == 0 {
			return ErrUserNotFound
		}
		return ErrInsufficientBalance
	}
	return nil
}

// SetBlocked flips the block flag for a user.
func (s *LedgerService) SetBlocked(userID uint, blocked bool) error {
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("blocked", blocked)
	if res.Error != nil {
		return fmt.Errorf("set blocked: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// A no-op update reports zero rows on some drivers; only a truly
		// missing user is an error.
		var count int64
		if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err == nil && count == 0 {
			return ErrUserNotFound
		}
	}
	return nil
}

// GetByID retrieves a user by internal ID
func (s *LedgerService) GetByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByExternalID retrieves a user by their external chat identity
func (s *LedgerService) GetByExternalID(externalID int64) (*models.User, error) {
	var user models.User
	if err := s.db.Where("external_id = ?", externalID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user with the external identity is registered.
func (s *LedgerService) Exists(externalID int64) (bool, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("external_id = ?", externalID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsBlocked reports whether the user is on the block list. Unknown users are
// not blocked.
func (s *LedgerService) IsBlocked(userID uint) (bool, error) {
	var user models.User
	if err := s.db.Select("blocked").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Blocked, nil
}

// ListBlocked returns all blocked users.
func (s *LedgerService) ListBlocked() ([]models.User, error) {
	var blocked []models.User
	if err := s.db.Where("blocked = ?", true).Order("id").Find(&blocked).Error; err != nil {
		return nil, err
	}
	return blocked, nil
}

// ListAllExternalIDs returns the external identity of every registered user,
// blocked or not. Used by broadcast.
func (s *LedgerService) ListAllExternalIDs() ([]int64, error) {
	var ids []int64
	if err := s.db.Model(&models.User{}).Order("id").Pluck("external_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
