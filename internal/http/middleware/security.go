// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, the response hardening applied to the
// data API and the webhooks. No CSP is set since nothing here serves HTML
// except the optional Swagger UI.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS   bool          // only when traffic is HTTPS end-to-end
	HSTSMaxAge   time.Duration // defaults to 180 days
	NoStore      bool          // Cache-Control: no-store unless a handler overrides it
	EnablePolicy bool          // Permissions-Policy and X-Permitted-Cross-Domain-Policies

	// ExposeHeaders are readable by browser clients. Defaults to
	// X-Request-ID, ETag and Idempotency-Replayed.
	ExposeHeaders []string
}

// HeaderReplayed marks a create response served from a stored idempotent result.
const HeaderReplayed = "Idempotency-Replayed"

var defaultExposed = []string{HeaderRequestID, "ETag", HeaderReplayed}

// SecurityHeaders sets nosniff, DENY framing and no-referrer on every
// response, plus the optional headers selected in opt. HSTS is only sent
// on HTTPS requests, including those terminated by a proxy that sets
// X-Forwarded-Proto.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	expose := opt.ExposeHeaders
	if len(expose) == 0 {
		expose = defaultExposed
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		appendExposed(h, expose)

		c.Next()
	}
}

// appendExposed adds names to Access-Control-Expose-Headers without
// duplicating ones already listed.
func appendExposed(h http.Header, names []string) {
	const hdr = "Access-Control-Expose-Headers"
	cur := h.Get(hdr)
	for _, name := range names {
		if containsToken(cur, name) {
			continue
		}
		if cur == "" {
			cur = name
		} else {
			cur += ", " + name
		}
	}
	if cur != "" {
		h.Set(hdr, cur)
	}
}

func containsToken(list, name string) bool {
	for _, part := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(part), name) {
			return true
		}
	}
	return false
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
