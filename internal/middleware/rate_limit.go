package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/orderdesk/order-management-api/internal/constants"
	apierrors "github.com/orderdesk/order-management-api/internal/errors"
	"golang.org/x/time/rate"
)

// RateLimit applies a best-effort per-client limiter keyed by client IP.
// The counters live in process memory, so this is advisory only and not
// safe across multiple instances.
func RateLimit() gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		limiter, ok := limiters[key]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(constants.RateLimitPerSecond), constants.RateLimitBurst)
			limiters[key] = limiter
		}
		return limiter
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			apierrors.TooManyRequests(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
