package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/yourusername/pitch-edge/internal/models"
)

const (
	retryBaseDelay  = 100 * time.Millisecond
	retryFactor     = 2
	retryMaxAttempts = 5
)

// storeGuard wraps store calls with bounded exponential-backoff retries
// and a shared circuit breaker. Domain errors (not found, duplicate key)
// pass through untouched; only transport-level failures are retried.
type storeGuard struct {
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

func newStoreGuard(log *logrus.Logger) *storeGuard {
	if log == nil {
		log = logrus.New()
	}

	settings := gobreaker.Settings{
		Name:    "store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Store circuit breaker state change")
		},
	}

	return &storeGuard{breaker: gobreaker.NewCircuitBreaker(settings), log: log}
}

// do executes fn with retries. After exhausting attempts the error is
// surfaced as models.ErrStoreUnavailable so the orchestrator treats it
// as critical and never persists partial decisions.
func (g *storeGuard) do(ctx context.Context, op string, fn func() error) error {
	delay := retryBaseDelay
	var lastErr error

	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		_, err := g.breaker.Execute(func() (interface{}, error) {
			return nil, fn()
		})
		if err == nil {
			return nil
		}
		if isDomainError(err) {
			return err
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		g.log.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
		}).WithError(err).Warn("Store call failed, retrying")

		if attempt == retryMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled: %w", op, ctx.Err())
		case <-time.After(delay):
		}
		delay *= retryFactor
	}

	return fmt.Errorf("%s: %w: %v", op, models.ErrStoreUnavailable, lastErr)
}

func isDomainError(err error) bool {
	return errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrTeamNotFound) ||
		errors.Is(err, models.ErrDuplicateKey) ||
		errors.Is(err, models.ErrInvalidID)
}
