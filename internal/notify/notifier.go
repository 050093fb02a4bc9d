package notify

import (
	"context"
	"log"
)

// Notifier delivers a text message to a user identified by their external
// messenger id. Implementations wrap the actual delivery channel.
type Notifier interface {
	Send(ctx context.Context, externalID int64, text string) error
}

// LogNotifier writes messages to the process log instead of delivering
// them. Used in development and in tests.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, externalID int64, text string) error {
	log.Printf("[Notify] -> %d: %s", externalID, text)
	return nil
}
