package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/reportdoc/internal/generate"
)

// MaxRetries bounds generation attempts per job.
const MaxRetries = 3

const (
	maxBackoff    = 30 * time.Second
	maxRetryAfter = 2 * time.Minute
)

// IsRetryable reports whether another generation attempt may succeed. Rate
// limits and server errors are retried, and so is a reply with no report
// sections, since a fresh sample from the model usually has them. A
// cancelled or expired job is final.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var retryErr *generate.RetryableError
	if errors.As(err, &retryErr) {
		return true
	}
	return errors.Is(err, generate.ErrNoSections)
}

// Backoff returns the wait after attempt n (0-indexed) failed with err:
// exponential with jitter, or the provider's Retry-After when that is longer.
func Backoff(attempt int, err error) time.Duration {
	base := maxBackoff
	if attempt < 5 {
		base = min(time.Second<<attempt, maxBackoff)
	}
	d := base + time.Duration(rand.Int64N(int64(base)/2))

	var retryErr *generate.RetryableError
	if errors.As(err, &retryErr) && retryErr.RetryAfter > d {
		d = min(retryErr.RetryAfter, maxRetryAfter)
	}
	return d
}
