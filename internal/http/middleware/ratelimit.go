// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the per-identity token bucket limiter of the data
// API. Buckets live in a go-cache with a sliding idle expiry, so callers
// that stop sending release their bucket. The limiter is process-local.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to its bucket identity.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP keys on the acting user when one is named, else on the
// client IP. Keys are namespaced ("user:alice", "ip:203.0.113.7").
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if u := UserID(c); u != DefaultUserID {
			return "user:" + u
		}
		return "ip:" + c.ClientIP()
	}
}

// RateLimiter enforces rps with burst per key. Safe for concurrent use.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	keyFn   KeyFunc
	ttl     time.Duration
	buckets *cache.Cache
}

// NewRateLimiter builds a limiter; burst <= 0 is coerced to 1. Buckets idle
// for ten minutes are dropped.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByUserOrIP()
	}
	ttl := 10 * time.Minute
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		ttl:     ttl,
		buckets: cache.New(ttl, ttl),
	}
}

// limiter returns the bucket of key and refreshes its idle expiry.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := rl.buckets.Get(key); ok {
		lim := v.(*rate.Limiter)
		rl.buckets.Set(key, lim, rl.ttl)
		return lim
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	if err := rl.buckets.Add(key, lim, rl.ttl); err != nil {
		// Lost a race with a concurrent first request of the same key.
		if v, ok := rl.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator flagged the request as a
// replay, which is served without spending a token.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler rejects requests over the limit with 429, a Retry-After header and
// the standard error envelope (code "too_many_requests").
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || rl.limiter(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(HeaderRequestID),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
