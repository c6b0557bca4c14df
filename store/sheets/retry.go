package sheets

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/api/googleapi"
)

// Retryable reports whether err is a transient Sheets API failure: quota
// exhaustion (429) or a server error (5xx). Everything else fails fast.
func Retryable(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
}

func (s *Store) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialInterval
	b.MaxInterval = 32 * time.Second
	return b
}

// call runs one API request under the rate limiter, retrying transient
// failures with exponential backoff.
func call[T any](ctx context.Context, s *Store, op string, fn func() (T, error)) (T, error) {
	attempt := func() (T, error) {
		var zero T
		if err := s.limiter.Wait(ctx); err != nil {
			return zero, backoff.Permanent(err)
		}
		v, err := fn()
		if err != nil && !Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Warn("sheets: retrying request", "op", op, "error", err, "backoff", next)
		}),
	)
}
