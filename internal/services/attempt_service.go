package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/razour08/tgbot-verify/internal/models"
)

// AttemptService is the append-only log of verification attempts. Attempts
// are created once and then mutated only through UpdateStatus/MarkRefunded;
// they are never deleted.
type AttemptService struct {
	db *gorm.DB
}

// NewAttemptService creates a new AttemptService
func NewAttemptService(db *gorm.DB) *AttemptService {
	return &AttemptService{db: db}
}

// Record appends a new attempt and assigns its ID.
func (s *AttemptService) Record(attempt *models.VerificationAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.Status == "" {
		attempt.Status = models.AttemptPending
	}
	if err := s.db.Create(attempt).Error; err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// UpdateStatus sets the attempt's status and raw result payload.
func (s *AttemptService) UpdateStatus(attemptID string, status models.AttemptStatus, rawResult string) error {
	res := s.db.Model(&models.VerificationAttempt{}).
		Where("id = ?", attemptID).
		Updates(map[string]interface{}{
			"status":     status,
			"raw_result": rawResult,
		})
	if res.Error != nil {
		return fmt.Errorf("update attempt status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// SetExternalID stores the remote verification ID assigned after submission.
func (s *AttemptService) SetExternalID(attemptID, externalID string) error {
	res := s.db.Model(&models.VerificationAttempt{}).
		Where("id = ?", attemptID).
		Update("external_id", externalID)
	if res.Error != nil {
		return fmt.Errorf("set external id: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// MarkRefunded flips the refunded flag, but only if it was not set before.
// It returns true exactly once per attempt, which is what makes every refund
// path idempotent. Runs on tx so callers can bundle it with the credit.
func (s *AttemptService) MarkRefunded(tx *gorm.DB, attemptID string) (bool, error) {
	if tx == nil {
		tx = s.db
	}
	res := tx.Model(&models.VerificationAttempt{}).
		Where("id = ? AND refunded = ?", attemptID, false).
		Update("refunded", true)
	if res.Error != nil {
		return false, fmt.Errorf("mark refunded: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Find retrieves an attempt by ID
func (s *AttemptService) Find(attemptID string) (*models.VerificationAttempt, error) {
	var attempt models.VerificationAttempt
	if err := s.db.Where("id = ?", attemptID).First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// FindByExternalID retrieves an attempt by its remote verification ID. Used
// to resume a pending attempt on a later on-demand query.
func (s *AttemptService) FindByExternalID(externalID string) (*models.VerificationAttempt, error) {
	var attempt models.VerificationAttempt
	if err := s.db.Where("external_id = ?", externalID).First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// ListByUser returns the user's attempts, newest first.
func (s *AttemptService) ListByUser(userID uint, limit int) ([]models.VerificationAttempt, error) {
	q := s.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var attempts []models.VerificationAttempt
	if err := q.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

// ListStalePending returns pending attempts with a remote ID that have not
// been updated for at least minAge. Used by the background reconciler.
func (s *AttemptService) ListStalePending(minAge time.Duration, limit int) ([]models.VerificationAttempt, error) {
	q := s.db.Where("status = ? AND external_id <> ''", models.AttemptPending).
		Where("updated_at < ?", time.Now().Add(-minAge)).
		Order("updated_at")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var attempts []models.VerificationAttempt
	if err := q.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
