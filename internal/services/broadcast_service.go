package services

import (
	"context"
	"log"
	"time"

	"github.com/razour08/tgbot-verify/internal/notify"
)

// BroadcastService fans a message out to every registered user through the
// configured notifier, throttling between sends.
type BroadcastService struct {
	ledger   *LedgerService
	notifier notify.Notifier
	delay    time.Duration
}

func NewBroadcastService(ledger *LedgerService, notifier notify.Notifier, delay time.Duration) *BroadcastService {
	return &BroadcastService{ledger: ledger, notifier: notifier, delay: delay}
}

// BroadcastResult counts delivery outcomes for one broadcast run.
type BroadcastResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Broadcast sends text to all users. Individual delivery failures are
// logged and counted, never fatal. Cancelling the context stops the run
// early with the counts so far.
func (s *BroadcastService) Broadcast(ctx context.Context, text string) (*BroadcastResult, error) {
	ids, err := s.ledger.ListAllExternalIDs()
	if err != nil {
		return nil, err
	}

	result := &BroadcastResult{}
	for _, id := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if err := s.notifier.Send(ctx, id, text); err != nil {
			log.Printf("[Broadcast] Failed to deliver to %d: %v", id, err)
			result.Failed++
		} else {
			result.Sent++
		}
		if s.delay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	log.Printf("[Broadcast] Completed: %d sent, %d failed", result.Sent, result.Failed)
	return result, nil
}
