// Package limiter bounds how many external verifier invocations may run at
// once for each service type.
package limiter

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/razour08/tgbot-verify/internal/models"
)

// ErrUnknownService is returned when no capacity was configured for a
// service type. Capacities are supplied at construction; there is no
// construct-if-missing fallback.
var ErrUnknownService = fmt.Errorf("no concurrency limit configured for service")

// Limiter is a named, bounded permit pool keyed by service type.
type Limiter struct {
	sems map[models.ServiceType]*semaphore.Weighted
}

// New builds a Limiter from explicit per-service capacities.
func New(capacities map[models.ServiceType]int64) (*Limiter, error) {
	sems := make(map[models.ServiceType]*semaphore.Weighted, len(capacities))
	for svc, capacity := range capacities {
		if capacity <= 0 {
			return nil, fmt.Errorf("capacity for %s must be positive, got %d", svc, capacity)
		}
		sems[svc] = semaphore.NewWeighted(capacity)
	}
	return &Limiter{sems: sems}, nil
}

// Acquire blocks until a permit for the service type is free or ctx is done.
// Every successful Acquire must be paired with exactly one Release.
func (l *Limiter) Acquire(ctx context.Context, svc models.ServiceType) error {
	sem, ok := l.sems[svc]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, svc)
	}
	return sem.Acquire(ctx, 1)
}

// Release returns a permit for the service type.
func (l *Limiter) Release(svc models.ServiceType) {
	if sem, ok := l.sems[svc]; ok {
		sem.Release(1)
	}
}
