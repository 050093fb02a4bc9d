package jobs

import (
	"context"
	"log"
	"time"

	"github.com/razour08/tgbot-verify/internal/services"
)

// PendingReconciler settles verification attempts whose poll window elapsed
// with the review still running. It probes each stale pending attempt once
// per pass and applies the normal success or refund path.
type PendingReconciler struct {
	verificationService *services.VerificationService
	attemptService      *services.AttemptService
	interval            time.Duration
	minAge              time.Duration
	stopChan            chan struct{}
}

// NewPendingReconciler creates a new reconciler job
func NewPendingReconciler(
	verificationService *services.VerificationService,
	attemptService *services.AttemptService,
	interval time.Duration,
	minAge time.Duration,
) *PendingReconciler {
	return &PendingReconciler{
		verificationService: verificationService,
		attemptService:      attemptService,
		interval:            interval,
		minAge:              minAge,
		stopChan:            make(chan struct{}),
	}
}

// Start begins the reconciliation loop
func (pr *PendingReconciler) Start() {
	log.Printf("[PendingReconciler] Starting reconciliation job (interval: %v)", pr.interval)

	ticker := time.NewTicker(pr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pr.reconcilePending()
		case <-pr.stopChan:
			log.Println("[PendingReconciler] Stopping reconciliation job")
			return
		}
	}
}

// Stop stops the reconciliation loop
func (pr *PendingReconciler) Stop() {
	close(pr.stopChan)
}

// reconcilePending settles a batch of stale pending attempts
func (pr *PendingReconciler) reconcilePending() {
	ctx, cancel := context.WithTimeout(context.Background(), pr.interval)
	defer cancel()

	attempts, err := pr.attemptService.ListStalePending(pr.minAge, 50)
	if err != nil {
		log.Printf("[PendingReconciler] Error fetching pending attempts: %v", err)
		return
	}

	if len(attempts) == 0 {
		return
	}

	log.Printf("[PendingReconciler] Checking %d pending attempts", len(attempts))

	settled := 0
	for i := range attempts {
		attempt := &attempts[i]
		if err := pr.verificationService.ReconcileAttempt(ctx, attempt); err != nil {
			log.Printf("[PendingReconciler] Failed to reconcile attempt %s: %v", attempt.ID, err)
			continue
		}
		settled++
	}

	log.Printf("[PendingReconciler] Pass complete, %d/%d attempts processed", settled, len(attempts))
}
