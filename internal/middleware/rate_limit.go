// internal/middleware/rate_limit.go
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/licensechain/internal/metrics"
	"github.com/javajoker/licensechain/internal/utils"
)

// Buckets untouched for idleAfter are dropped; a dropped client starts
// again with a full burst.
const (
	idleAfter  = 3 * time.Minute
	sweepEvery = time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client. A signed-in wallet is its
// own client; anything else is keyed by IP.
type RateLimiter struct {
	name  string
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func NewRateLimiter(name string, limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		name:      name,
		limit:     limit,
		burst:     burst,
		now:       time.Now,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// allow spends one token from key's bucket. Idle buckets are swept on the
// way in, at most once per sweepEvery.
func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= sweepEvery {
		rl.sweep(now)
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// sweep expects rl.mu held.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > idleAfter {
			delete(rl.buckets, key)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func clientKey(c *gin.Context) string {
	if address, ok := utils.GetWalletAddressFromContext(c); ok && address != "" {
		return "wallet:" + address
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(clientKey(c)) {
			metrics.RecordRateLimited(rl.name)
			utils.TooManyRequestsResponse(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Sign-in and document upload have fixed budgets; the general limit comes
// from config.
var (
	authLimiter   = NewRateLimiter("auth", rate.Every(12*time.Second), 5)
	uploadLimiter = NewRateLimiter("upload", rate.Every(6*time.Second), 10)
)

func GeneralRateLimit(rps float64, burst int) gin.HandlerFunc {
	return NewRateLimiter("general", rate.Limit(rps), burst).Middleware()
}

func AuthRateLimit() gin.HandlerFunc {
	return authLimiter.Middleware()
}

func UploadRateLimit() gin.HandlerFunc {
	return uploadLimiter.Middleware()
}
