package service

import (
	"context"
	"time"

	"kiosk-inventory-backend/internal/domain"
)

const busyBackoff = 50 * time.Millisecond

// RetryOnBusy calls fn until it succeeds, fails with a non-retryable error,
// or has been retried the given number of times. Waits grow linearly.
func RetryOnBusy(ctx context.Context, retries int, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !domain.IsRetryable(err) || attempt >= retries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * busyBackoff):
		}
	}
}
