package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{
		MaskHeaders:     []string{"D360-API-KEY"},
		MaskQueryParams: []string{"hub.verify_token"},
	}))
	r.GET("/webhooks/:bot/whatsapp", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	q := "hub.mode=subscribe&hub.verify_token=s3cr3t&email=ab@example.com&id=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodGet, "/webhooks/b1/whatsapp?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Hub-Signature-256", "sha256=abc")
	req.Header.Set("D360-API-KEY", "shhh")
	req.Header.Set("X-Custom", "email a@b.com id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567")
	req.Header.Set(HeaderRequestID, "rid-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"path":"/webhooks/:bot/whatsapp"`,
		`"request_id":"rid-1"`,
		`"bot":"b1"`,
		`"user_id":"system"`,
		`hub.verify_token=[REDACTED]`,
		`hub.mode=subscribe`,
		`email=[REDACTED:email]`,
		`id=[REDACTED:id]`,
		`"Authorization":"[REDACTED]"`,
		`"X-Hub-Signature-256":"[REDACTED]"`,
		`"D360-Api-Key":"[REDACTED]"`,
		`"X-Custom":"email [REDACTED:email] id=[REDACTED:id] phone [REDACTED:phone]"`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %s in log, got: %s", want, logs)
		}
	}
	if strings.Contains(logs, "s3cr3t") || strings.Contains(logs, "shhh") {
		t.Fatalf("secret leaked into log: %s", logs)
	}
}

func TestRedactingLogger_WarnAndErrorLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/error", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/recorded", func(c *gin.Context) {
		_ = c.Error(errSentinel{})
		c.Status(http.StatusBadRequest)
	})

	reqWarn := httptest.NewRequest(http.MethodGet, "/warn", nil)
	reqWarn.Header.Set(HeaderRequestID, "rid-warn")
	r.ServeHTTP(httptest.NewRecorder(), reqWarn)

	reqErr := httptest.NewRequest(http.MethodGet, "/error", nil)
	reqErr.Header.Set(HeaderRequestID, "rid-err")
	r.ServeHTTP(httptest.NewRecorder(), reqErr)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/recorded", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 log lines, got %d: %s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"level":"warn"`) || !strings.Contains(lines[0], `"request_id":"rid-warn"`) {
		t.Fatalf("warn line: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"error"`) || !strings.Contains(lines[1], `"request_id":"rid-err"`) {
		t.Fatalf("error line: %s", lines[1])
	}
	if !strings.Contains(lines[2], `"level":"error"`) || !strings.Contains(lines[2], `"errors":`) {
		t.Fatalf("recorded error line: %s", lines[2])
	}
}

func TestScrubQuery(t *testing.T) {
	mask := lowerSet(nil, []string{"Token"})
	cases := []struct{ in, want string }{
		{"", ""},
		{"b=2&a=1", "a=1&b=2"},
		{"token=abc&x=1", "token=[REDACTED]&x=1"},
		{"to=%2B4915112345678", "to=+[REDACTED:phone]"},
		{"bad=%zz", "bad=%zz"},
	}
	for _, tc := range cases {
		if got := scrubQuery(tc.in, mask); got != tc.want {
			t.Fatalf("scrubQuery(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

type errSentinel struct{}

func (errSentinel) Error() string { return "boom" }
