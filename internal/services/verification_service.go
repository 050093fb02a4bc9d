package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/razour08/tgbot-verify/internal/limiter"
	"github.com/razour08/tgbot-verify/internal/models"
	"github.com/razour08/tgbot-verify/internal/sheerid"
	"github.com/razour08/tgbot-verify/internal/verifier"
)

// VerificationService drives a verification attempt end to end: balance
// reservation, bounded-concurrency submission, review polling and balance
// compensation on failure.
type VerificationService struct {
	db           *gorm.DB
	ledger       *LedgerService
	attempts     *AttemptService
	limiter      *limiter.Limiter
	registry     *verifier.Registry
	poller       *sheerid.Poller
	client       *sheerid.Client
	cost         int64
	pollWindow   map[models.ServiceType]time.Duration
	pollInterval time.Duration
}

// NewVerificationService creates the orchestrator. pollWindow must contain
// an entry for every registered service type.
func NewVerificationService(
	db *gorm.DB,
	ledger *LedgerService,
	attempts *AttemptService,
	lim *limiter.Limiter,
	registry *verifier.Registry,
	client *sheerid.Client,
	cost int64,
	pollWindow map[models.ServiceType]time.Duration,
	pollInterval time.Duration,
) *VerificationService {
	return &VerificationService{
		db:           db,
		ledger:       ledger,
		attempts:     attempts,
		limiter:      lim,
		registry:     registry,
		poller:       sheerid.NewPoller(client),
		client:       client,
		cost:         cost,
		pollWindow:   pollWindow,
		pollInterval: pollInterval,
	}
}

// Cost returns the fixed point cost of one attempt.
func (s *VerificationService) Cost() int64 {
	return s.cost
}

// Outcome is what a finished (or parked) attempt reports back to the caller.
type Outcome struct {
	AttemptID    string               `json:"attempt_id"`
	Status       models.AttemptStatus `json:"status"`
	ExternalID   string               `json:"external_id,omitempty"`
	RewardCode   string               `json:"reward_code,omitempty"`
	RedirectURL  string               `json:"redirect_url,omitempty"`
	Message      string               `json:"message,omitempty"`
	Refunded     bool                 `json:"refunded"`
	StillPending bool                 `json:"still_pending"`
}

// Submit runs one verification attempt for the user. Validation errors
// surface before any balance mutation; once the cost is reserved, every
// failure path refunds it exactly once. A poll window elapsing leaves the
// attempt Pending with no refund; a later status query is free.
func (s *VerificationService) Submit(ctx context.Context, userID uint, svc models.ServiceType, rawURL string) (*Outcome, error) {
	user, err := s.ledger.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Blocked {
		return nil, ErrUserBlocked
	}

	v, ok := s.registry.Get(svc)
	if !ok {
		return nil, ErrUnknownService
	}

	verificationID := v.ParseVerificationID(rawURL)
	if verificationID == "" {
		return nil, ErrInvalidLink
	}

	if user.Balance < s.cost {
		return nil, ErrInsufficientBalance
	}

	// Reserve the cost. The pre-check above is cosmetic; this atomic
	// conditional decrement is what actually decides.
	if err := s.ledger.Debit(userID, s.cost); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return nil, ErrDeductionFailed
		}
		return nil, err
	}

	result, verr := s.runVerifier(ctx, v, svc, verificationID)
	if verr != nil {
		// Unexpected failure: log the attempt, then refund once.
		attempt := &models.VerificationAttempt{
			UserID:       userID,
			ServiceType:  svc,
			SourceURL:    rawURL,
			ExternalID:   verificationID,
			Status:       models.AttemptFailed,
			CostReserved: s.cost,
		}
		if err := s.attempts.Record(attempt); err != nil {
			return nil, err
		}
		refunded, err := s.refundAttempt(attempt.ID, userID, s.cost, verr.Error())
		if err != nil {
			return nil, err
		}
		return &Outcome{
			AttemptID: attempt.ID,
			Status:    models.AttemptFailed,
			Message:   verr.Error(),
			Refunded:  refunded,
		}, nil
	}

	externalID := result.VerificationID
	if externalID == "" {
		externalID = verificationID
	}

	attempt := &models.VerificationAttempt{
		UserID:       userID,
		ServiceType:  svc,
		SourceURL:    rawURL,
		ExternalID:   externalID,
		RawResult:    result.Raw,
		CostReserved: s.cost,
	}

	switch result.Status {
	case verifier.StatusSucceeded:
		attempt.Status = models.AttemptSuccess
		if err := s.attempts.Record(attempt); err != nil {
			return nil, err
		}
		return &Outcome{
			AttemptID:   attempt.ID,
			Status:      models.AttemptSuccess,
			ExternalID:  externalID,
			RewardCode:  result.RewardCode,
			RedirectURL: result.RedirectURL,
		}, nil

	case verifier.StatusRejected:
		attempt.Status = models.AttemptFailed
		if err := s.attempts.Record(attempt); err != nil {
			return nil, err
		}
		refunded, err := s.refundAttempt(attempt.ID, userID, s.cost, result.Raw)
		if err != nil {
			return nil, err
		}
		return &Outcome{
			AttemptID: attempt.ID,
			Status:    models.AttemptFailed,
			Message:   result.Message,
			Refunded:  refunded,
		}, nil

	default: // verifier.StatusPending
		attempt.Status = models.AttemptPending
		if err := s.attempts.Record(attempt); err != nil {
			return nil, err
		}
		return s.awaitReview(ctx, attempt)
	}
}

// runVerifier invokes the verifier under the concurrency limiter. The permit
// is released on every path before the caller proceeds; the poller never
// holds one.
func (s *VerificationService) runVerifier(ctx context.Context, v verifier.Verifier, svc models.ServiceType, verificationID string) (result *verifier.Result, err error) {
	if aerr := s.limiter.Acquire(ctx, svc); aerr != nil {
		// Never got to submit; hand the reservation back directly.
		return nil, fmt.Errorf("acquire verifier slot: %w", aerr)
	}
	defer s.limiter.Release(svc)

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("verifier panic: %v", r)
		}
	}()

	return v.Verify(ctx, verificationID)
}

// awaitReview polls the remote review to a terminal state within the
// service's window and settles the attempt accordingly.
func (s *VerificationService) awaitReview(ctx context.Context, attempt *models.VerificationAttempt) (*Outcome, error) {
	window, ok := s.pollWindow[attempt.ServiceType]
	if !ok {
		return nil, fmt.Errorf("no poll window configured for %s", attempt.ServiceType)
	}

	poll, err := s.poller.Poll(ctx, attempt.ExternalID, window, s.pollInterval)
	if err != nil {
		return nil, fmt.Errorf("poll review: %w", err)
	}

	switch poll.State {
	case sheerid.PollSuccess:
		if err := s.attempts.UpdateStatus(attempt.ID, models.AttemptSuccess, poll.Raw); err != nil {
			return nil, err
		}
		return &Outcome{
			AttemptID:   attempt.ID,
			Status:      models.AttemptSuccess,
			ExternalID:  attempt.ExternalID,
			RewardCode:  poll.RewardCode,
			RedirectURL: poll.RedirectURL,
		}, nil

	case sheerid.PollError:
		refunded, err := s.refundAttempt(attempt.ID, attempt.UserID, attempt.CostReserved, poll.Raw)
		if err != nil {
			return nil, err
		}
		return &Outcome{
			AttemptID: attempt.ID,
			Status:    models.AttemptFailed,
			Message:   joinErrorIDs(poll.ErrorIDs),
			Refunded:  refunded,
		}, nil

	default: // sheerid.PollTimedOut
		return &Outcome{
			AttemptID:    attempt.ID,
			Status:       models.AttemptPending,
			ExternalID:   attempt.ExternalID,
			StillPending: true,
			Message:      "review still running, query the status later for free",
		}, nil
	}
}

// refundAttempt marks the attempt failed and credits the reserved cost back,
// as one transaction. The refunded flag is a test-and-set, so concurrent
// settlement paths (inline poll, reconciler, repeated failures) credit at
// most once. Returns whether this call performed the refund.
func (s *VerificationService) refundAttempt(attemptID string, userID uint, cost int64, rawResult string) (bool, error) {
	var refunded bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		won, err := s.attempts.MarkRefunded(tx, attemptID)
		if err != nil {
			return fmt.Errorf("settle attempt: %w", err)
		}
		if !won {
			// Already settled elsewhere.
			return nil
		}

		res := tx.Model(&models.VerificationAttempt{}).
			Where("id = ?", attemptID).
			Updates(map[string]interface{}{
				"status":     models.AttemptFailed,
				"raw_result": rawResult,
			})
		if res.Error != nil {
			return fmt.Errorf("record failure: %w", res.Error)
		}

		cres := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", cost))
		if cres.Error != nil {
			return fmt.Errorf("refund balance: %w", cres.Error)
		}
		if cres.RowsAffected == 0 {
			return ErrUserNotFound
		}

		refunded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if refunded {
		log.Printf("[Verification] Refunded %d points to user %d for attempt %s", cost, userID, attemptID)
	}
	return refunded, nil
}

// QueryStatus is the free on-demand path: one status probe, no polling loop,
// no ledger or refund mutation. Transport failures surface to the caller.
func (s *VerificationService) QueryStatus(ctx context.Context, externalID string) (*sheerid.Status, error) {
	return s.client.VerificationStatus(ctx, externalID)
}

// ReconcileAttempt settles a still-pending attempt from a single status
// probe. Harmless to repeat: success only updates the status, failure goes
// through the refund-once path.
func (s *VerificationService) ReconcileAttempt(ctx context.Context, attempt *models.VerificationAttempt) error {
	if attempt.Status != models.AttemptPending || attempt.ExternalID == "" {
		return nil
	}

	status, err := s.client.VerificationStatus(ctx, attempt.ExternalID)
	if err != nil {
		return fmt.Errorf("query status for %s: %w", attempt.ExternalID, err)
	}

	switch status.CurrentStep {
	case sheerid.StepSuccess:
		return s.attempts.UpdateStatus(attempt.ID, models.AttemptSuccess, status.Raw)
	case sheerid.StepError:
		_, err := s.refundAttempt(attempt.ID, attempt.UserID, attempt.CostReserved, status.Raw)
		return err
	default:
		return nil
	}
}

func joinErrorIDs(ids []string) string {
	if len(ids) == 0 {
		return "verification review failed"
	}
	out := ids[0]
	for _, id := range ids[1:] {
		out += ", " + id
	}
	return out
}
