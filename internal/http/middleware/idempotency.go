// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates the Idempotency-Key header of the data API POST
// endpoints. A valid key is stashed in the Gin context for the handlers,
// and when a lookup reports an earlier result for (user, bot, key) the
// request is marked as a replay so the rate limiter lets it through.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client chosen key of a create request.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderUserID names the acting user when no upstream auth sets one.
const HeaderUserID = "X-User-ID"

// DefaultUserID is recorded as the author of unauthenticated edits.
const DefaultUserID = "system"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the lookup found a stored result for this request.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a live record exists for (userID, bot, key).
// Expiry is the lookup's concern.
type IdempotencyLookup func(ctx context.Context, userID, bot, key string) bool

// IdempotencyValidator checks the Idempotency-Key header when present.
// An invalid key is rejected with 400; requests without a key pass through.
// The handler stays responsible for serving the stored resource.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(HeaderRequestID),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			bot := strings.TrimSpace(c.Param("bot"))
			if lookup(c.Request.Context(), UserID(c), bot, key) {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

// UserID returns the acting user: the id set by upstream auth under
// "userID", else the X-User-ID header, else DefaultUserID.
func UserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader(HeaderUserID)); h != "" {
			return h
		}
	}
	return DefaultUserID
}
