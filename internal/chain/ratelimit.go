package chain

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter throttles upstream node requests. Each RPC host gets its own
// token bucket so a slow public seed does not starve a private node.
type RateLimiter struct {
	buckets map[string]*rate.Limiter
	mu      sync.RWMutex
	perSec  rate.Limit
	burst   int
}

// NewRateLimiter creates a limiter allowing perSecond sustained requests and
// burst requests at once for every host.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		perSec:  rate.Limit(perSecond),
		burst:   burst,
	}
}

// DefaultRateLimiter matches the public BSC dataseed allowance:
// 8 requests per second with a burst of 16.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(8, 16)
}

// Allow reports whether a request to endpoint may proceed right now.
func (r *RateLimiter) Allow(endpoint string) bool {
	return r.bucket(endpoint).Allow()
}

// Wait blocks until a request to endpoint may proceed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, endpoint string) error {
	return r.bucket(endpoint).Wait(ctx)
}

// bucketKey reduces an endpoint to its host so paths and query strings on
// the same node share one bucket.
func bucketKey(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return strings.ToLower(endpoint)
	}
	return strings.ToLower(u.Host)
}

func (r *RateLimiter) bucket(endpoint string) *rate.Limiter {
	key := bucketKey(endpoint)

	r.mu.RLock()
	b, ok := r.buckets[key]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.buckets[key]; ok {
		return b
	}
	b = rate.NewLimiter(r.perSec, r.burst)
	r.buckets[key] = b
	return b
}
