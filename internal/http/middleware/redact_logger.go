// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger of the service.
// Webhook traffic carries end-user phone numbers and provider secrets, so
// nothing is logged before it went through the scrubbers below. Bodies are
// never logged.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.RequestID())
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders:     []string{"D360-API-KEY"},
//	    MaskQueryParams: []string{"hub.verify_token"},
//	}))
package middleware

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions adds header and query parameter names whose values are
// replaced with "[REDACTED]". Names are matched case-insensitively.
type RedactOptions struct {
	MaskHeaders     []string
	MaskQueryParams []string
}

var (
	// UUIDs go first so the phone pattern cannot eat their digit groups.
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

func redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

func lowerSet(base []string, extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				set[v] = struct{}{}
			}
		}
	}
	return set
}

// scrubQuery masks listed parameters and pattern-redacts the rest. The
// result is decoded and sorted by key.
func scrubQuery(raw string, mask map[string]struct{}) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return redact(raw)
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		_, masked := mask[strings.ToLower(k)]
		for _, v := range vals[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			if masked {
				v = "[REDACTED]"
			} else {
				v = redact(v)
			}
			b.WriteString(k + "=" + v)
		}
	}
	return truncate(b.String(), maxQueryLogLength)
}

// RedactingLogger attaches a request-scoped logger and writes one access log
// line per request.
//
// The scoped logger carries request_id, user_id and bot. It is stored in the
// Gin context (see LoggerFrom) and in the request context, where
// zerolog.Ctx finds it inside services and channel code.
//
// Authorization, Cookie, Set-Cookie and the X-Hub-Signature headers are
// always masked; emails, phone numbers and UUIDs are pattern-redacted from
// other header values and from the query. Level is error for 5xx or when
// handlers recorded errors, warn for 4xx, info otherwise.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := lowerSet([]string{
		"authorization", "cookie", "set-cookie",
		"x-hub-signature", "x-hub-signature-256",
	}, opts.MaskHeaders)
	maskQuery := lowerSet(nil, opts.MaskQueryParams)

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		rid := RequestIDFrom(c)
		if rid == "" {
			rid = c.GetHeader(HeaderRequestID)
		}

		l := log.With().
			Str("request_id", rid).
			Str("user_id", redact(UserID(c))).
			Str("bot", c.Param("bot")).
			Logger()
		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(strings.Join(vv, ", "))
		}
		safeQuery := scrubQuery(c.Request.URL.RawQuery, maskQuery)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = l.Warn()
		}

		ev.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", safeQuery).
			Str("remote_ip", c.ClientIP()).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
