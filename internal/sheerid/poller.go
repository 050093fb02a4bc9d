package sheerid

import (
	"context"
	"log"
	"time"
)

// PollState is the terminal outcome of a bounded poll.
type PollState int

const (
	// PollSuccess means the remote review finished with currentStep success.
	PollSuccess PollState = iota
	// PollError means the remote review finished with currentStep error.
	PollError
	// PollTimedOut means maxWait elapsed without a terminal state. Not a
	// failure: the verification may still resolve later.
	PollTimedOut
)

// PollResult carries the terminal poll outcome and whatever the remote side
// reported with it.
type PollResult struct {
	State       PollState
	RewardCode  string
	RedirectURL string
	ErrorIDs    []string
	Raw         string
	Queries     int
}

// Poller repeatedly queries the status endpoint until a terminal remote
// state or a deadline. It holds no permits and mutates nothing.
type Poller struct {
	client *Client
}

// NewPoller creates a Poller over the given status client.
func NewPoller(client *Client) *Poller {
	return &Poller{client: client}
}

// Poll queries the verification every interval until it reaches a terminal
// state or maxWait elapses. Transient query failures (network, non-200,
// parse) consume an interval and continue; only the deadline ends the poll
// early, and timing out is not an error.
func (p *Poller) Poll(ctx context.Context, verificationID string, maxWait, interval time.Duration) (*PollResult, error) {
	start := time.Now()
	result := &PollResult{}

	for {
		if time.Since(start) >= maxWait {
			result.State = PollTimedOut
			log.Printf("[Poller] Verification %s still pending after %v (%d queries)",
				verificationID, maxWait, result.Queries)
			return result, nil
		}

		status, err := p.client.VerificationStatus(ctx, verificationID)
		result.Queries++
		if err != nil {
			log.Printf("[Poller] Transient status query failure for %s: %v", verificationID, err)
		} else if status.Terminal() {
			result.RewardCode = status.RewardCode
			result.RedirectURL = status.RedirectURL
			result.ErrorIDs = status.ErrorIDs
			result.Raw = status.Raw
			if status.CurrentStep == StepSuccess {
				result.State = PollSuccess
			} else {
				result.State = PollError
			}
			return result, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
