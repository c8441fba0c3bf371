package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxBuckets caps the number of tracked principals to prevent memory
// exhaustion from key churn.
const maxBuckets = 100_000

// RateLimiter applies per-principal token buckets with continuous refill.
// Each principal's sustained rate comes from its Keyring entry; burst is a
// multiple of that rate.
type RateLimiter struct {
	buckets map[string]*bucket
	mu      sync.Mutex

	// burstSeconds sizes each bucket as rate * burstSeconds tokens.
	burstSeconds float64

	now func() time.Time
}

// bucket is a per-principal token bucket. Tokens refill continuously as a
// float so sub-second rates behave correctly.
type bucket struct {
	tokens   float64
	rate     float64
	burst    float64
	lastFill time.Time
}

func (b *bucket) allow(now time.Time) bool {
	b.tokens += now.Sub(b.lastFill).Seconds() * b.rate
	if b.tokens > b.burst {
		b.tokens = b.burst
	}

	b.lastFill = now

	if b.tokens >= 1 {
		b.tokens--

		return true
	}

	return false
}

// NewRateLimiter creates a RateLimiter. It starts a background goroutine to
// evict stale buckets, which stops when ctx is cancelled.
func NewRateLimiter(ctx context.Context, burstSeconds float64) *RateLimiter {
	if burstSeconds <= 0 {
		burstSeconds = 1
	}

	rl := &RateLimiter{
		buckets:      make(map[string]*bucket),
		burstSeconds: burstSeconds,
		now:          time.Now,
	}
	go rl.startCleanup(ctx)

	return rl
}

// startCleanup periodically evicts buckets idle past maxAge.
func (rl *RateLimiter) startCleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	const maxAge = 10 * time.Minute

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for name, b := range rl.buckets {
				if now.Sub(b.lastFill) > maxAge {
					delete(rl.buckets, name)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow reports whether the principal may proceed right now.
func (rl *RateLimiter) Allow(p Principal) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[p.Name]
	if !ok {
		if len(rl.buckets) >= maxBuckets {
			return false
		}

		b = &bucket{
			tokens:   p.RateLimit * rl.burstSeconds,
			rate:     p.RateLimit,
			burst:    p.RateLimit * rl.burstSeconds,
			lastFill: now,
		}
		rl.buckets[p.Name] = b
	}

	return b.allow(now)
}

// Handler returns Gin middleware that rate limits per authenticated
// principal. It must run after Authenticate.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(PrincipalFrom(c)) {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

			return
		}

		c.Next()
	}
}
