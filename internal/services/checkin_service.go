package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/razour08/tgbot-verify/internal/models"
)

// CheckInBonus is credited once per user per calendar day.
const CheckInBonus int64 = 1

// CheckinService handles the daily check-in bonus.
type CheckinService struct {
	db *gorm.DB
}

// NewCheckinService creates a new CheckinService
func NewCheckinService(db *gorm.DB) *CheckinService {
	return &CheckinService{db: db}
}

// CanCheckIn reports whether the user has not yet checked in on the given day.
func (s *CheckinService) CanCheckIn(userID uint, day time.Time) (bool, error) {
	var count int64
	err := s.db.Model(&models.CheckIn{}).
		Where("user_id = ? AND day = ?", userID, day.Format(models.CheckInDayFormat)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// CheckIn records today's check-in and credits the bonus as one transaction.
// A second call on the same day fails with ErrAlreadyCheckedIn and leaves the
// balance untouched; the unique (user_id, day) index is the final arbiter.
func (s *CheckinService) CheckIn(userID uint, day time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		checkin := models.CheckIn{
			UserID: userID,
			Day:    day.Format(models.CheckInDayFormat),
		}
		if err := tx.Create(&checkin).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyCheckedIn
			}
			return fmt.Errorf("create check-in: %w", err)
		}

		res := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", CheckInBonus))
		if res.Error != nil {
			return fmt.Errorf("credit check-in bonus: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
