package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/razour08/tgbot-verify/internal/models"
)

// RedemptionService owns redemption codes and their per-user usage records.
type RedemptionService struct {
	db *gorm.DB
}

// NewRedemptionService creates a new RedemptionService
func NewRedemptionService(db *gorm.DB) *RedemptionService {
	return &RedemptionService{db: db}
}

// CreateCode creates a redemption code worth points, usable maxUses times.
// expireDays of nil means the code never expires.
func (s *RedemptionService) CreateCode(code string, points int64, createdBy uint, maxUses int, expireDays *int) (*models.RedemptionCode, error) {
	if points <= 0 || maxUses <= 0 {
		return nil, ErrInvalidAmount
	}

	rc := models.RedemptionCode{
		Code:        code,
		Points:      points,
		MaxUses:     maxUses,
		CreatedByID: createdBy,
	}
	if expireDays != nil {
		expires := time.Now().AddDate(0, 0, *expireDays)
		rc.ExpiresAt = &expires
	}

	if err := s.db.Create(&rc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCodeExists
		}
		return nil, fmt.Errorf("create code: %w", err)
	}
	return &rc, nil
}

// Redeem credits the code's points to the user. The use-count increment, the
// redemption record and the balance credit commit as one transaction; any
// failed step rolls back all of them.
func (s *RedemptionService) Redeem(code string, userID uint) (int64, error) {
	var credited int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var rc models.RedemptionCode
		if err := tx.Where("code = ?", code).First(&rc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return err
		}

		if rc.CurrentUses >= rc.MaxUses {
			return ErrCodeExhausted
		}
		if rc.Expired(time.Now()) {
			return ErrCodeExpired
		}

		record := models.RedemptionRecord{CodeID: rc.ID, UserID: userID}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCodeAlreadyUsed
			}
			return fmt.Errorf("create redemption record: %w", err)
		}

		// The guard re-checks the cap inside the UPDATE so a concurrent
		// redemption of the last use cannot overshoot max_uses.
		res := tx.Model(&models.RedemptionCode{}).
			Where("id = ? AND current_uses < max_uses", rc.ID).
			Update("current_uses", gorm.Expr("current_uses + 1"))
		if res.Error != nil {
			return fmt.Errorf("increment uses: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCodeExhausted
		}

		res = tx.Model(&models.User{}).Where("id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", rc.Points))
		if res.Error != nil {
			return fmt.Errorf("credit balance: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}

		credited = rc.Points
		return nil
	})
	if err != nil {
		return 0, err
	}
	return credited, nil
}

// List returns codes for administrative display, newest first.
func (s *RedemptionService) List(limit int) ([]models.RedemptionCode, error) {
	q := s.db.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var codes []models.RedemptionCode
	if err := q.Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}
