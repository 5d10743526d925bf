package chain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// Errors that mark an upstream read as worth repeating.
var (
	ErrRetryable = &pocketerr.PocketError{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: pocketerr.ExitGeneral,
	}

	ErrTimeout = &pocketerr.PocketError{
		Code:     "TIMEOUT",
		Message:  "node request timed out",
		ExitCode: pocketerr.ExitGeneral,
	}

	ErrRateLimited = &pocketerr.PocketError{
		Code:     "RATE_LIMITED",
		Message:  "node rate limit reached",
		ExitCode: pocketerr.ExitGeneral,
	}
)

// codeLimitExceeded is the JSON-RPC error code BSC nodes use for throttling.
const codeLimitExceeded = -32005

// RetryConfig bounds how often and how slowly a read is repeated.
type RetryConfig struct {
	MaxAttempts int           // including the first call
	BaseDelay   time.Duration // doubled after each failure
	MaxDelay    time.Duration
}

// DefaultRetryConfig is three attempts spaced 250ms then 500ms apart.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// RetryWithConfig runs op until it succeeds, returns an error IsRetryable
// rejects, or cfg.MaxAttempts is used up.
func RetryWithConfig[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	attempts := max(cfg.MaxAttempts, 1)

	for i := range attempts {
		out, err = op()
		if err == nil || !IsRetryable(err) {
			return out, err
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(backoff(i, cfg.BaseDelay, cfg.MaxDelay))
		select {
		case <-ctx.Done():
			timer.Stop()
			return out, ctx.Err()
		case <-timer.C:
		}
	}

	return out, fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}

// backoff returns a jittered delay in [d/2, d) where d = base*2^attempt
// capped at limit.
func backoff(attempt int, base, limit time.Duration) time.Duration {
	d := base << attempt
	if d <= 0 || d > limit {
		d = limit
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half) //nolint:gosec // jitter only
}

// IsRetryable reports whether err is a transient node failure: one of the
// sentinels above, a deadline, an HTTP 429/5xx from the node, or the
// JSON-RPC limit-exceeded code.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRetryable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= http.StatusInternalServerError
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode() == codeLimitExceeded
	}
	return false
}

// WrapRetryable marks err as retryable.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}
