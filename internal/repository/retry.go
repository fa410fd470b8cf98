package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/salonkit/reserve-core/internal/apperr"
)

const (
	readAttempts     = 3
	readRetryBackoff = 50 * time.Millisecond
)

// readWithRetry retries an idempotent read a bounded number of times with
// exponential backoff. Writes never go through this path: a write that fails
// must surface so the caller resubmits explicitly.
func readWithRetry(ctx context.Context, fn func() error) error {
	backoff := readRetryBackoff
	var lastErr error
	for attempt := 0; attempt < readAttempts; attempt++ {
		err := fn()
		if err == nil || errors.Is(err, sql.ErrNoRows) || errors.Is(err, context.Canceled) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return apperr.Upstream("store unavailable", lastErr)
}
