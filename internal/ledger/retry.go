package ledger

import (
	"context"
	"time"

	"bank-ledger-go/internal/store"

	"go.uber.org/zap"
)

// RetryPolicy bounds how often a unit of work that lost a concurrency race is
// attempted again. Attempt n waits n*Backoff first.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// RunInUnitOfWork runs fn in a fresh unit of work, retrying it while the store
// reports a retryable conflict and the policy allows.
func RunInUnitOfWork(ctx context.Context, s store.LedgerStore, policy RetryPolicy, operation string, fn func(ctx context.Context, tx store.Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := s.WithinUnitOfWork(ctx, fn)
		if err == nil || !store.IsRetryable(err) || attempt >= policy.MaxRetries {
			return err
		}

		wait := time.Duration(attempt+1) * policy.Backoff
		zap.L().Warn("Retrying unit of work after conflict",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err))
		retriesTotal.WithLabelValues(operation).Inc()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
