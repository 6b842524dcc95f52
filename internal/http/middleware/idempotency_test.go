package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHelpers_GetIdempotencyKey_IsReplay_UserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected empty key when not set")
	}
	if IsReplay(c) {
		t.Fatalf("expected IsReplay=false by default")
	}

	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("expected GetIdempotencyKey to be absent for non-string value")
	}
	c.Set(ctxKeyIdemReplay, true)
	if !IsReplay(c) {
		t.Fatalf("expected IsReplay=true")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatalf("expected IsReplay=false for non-bool")
	}

	if got := UserID(c); got != DefaultUserID {
		t.Fatalf("UserID fallback = %q", got)
	}
	c.Request.Header.Set(HeaderUserID, "  trainer  ")
	if got := UserID(c); got != "trainer" {
		t.Fatalf("UserID from header = %q", got)
	}
	c.Set("userID", "u1")
	if got := UserID(c); got != "u1" {
		t.Fatalf("UserID from context = %q", got)
	}
	c.Set("userID", 42)
	if got := UserID(c); got != "trainer" {
		t.Fatalf("UserID wrong-type fallback = %q", got)
	}
}

type lookupCall struct {
	user, bot, key string
}

func newIdemRouter(opts IdempotencyOptions, lookup IdempotencyLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(opts, lookup))
	r.POST("/bots/:bot/intents", func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{
			"key":    key,
			"replay": IsReplay(c),
			"bypass": c.GetBool(ctxKeyRateBypass),
		})
	})
	return r
}

func post(r http.Handler, key, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bots/b1/intents", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestIdempotencyValidator_NoHeader_NoLookupCalled(t *testing.T) {
	called := false
	r := newIdemRouter(IdempotencyOptions{}, func(context.Context, string, string, string) bool {
		called = true
		return true
	})

	w := post(r, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if called {
		t.Fatalf("lookup must not run without a key")
	}
	if body := decode(t, w); body["key"] != "" || body["replay"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestIdempotencyValidator_InvalidKeys(t *testing.T) {
	r := newIdemRouter(IdempotencyOptions{MaxLen: 8}, nil)

	for _, key := range []string{"has space", "toolong-key", "semi;colon"} {
		w := post(r, key, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("key %q: status = %d; want 400", key, w.Code)
		}
		if body := decode(t, w); body["code"] != "bad_idempotency_key" {
			t.Fatalf("key %q: unexpected body %v", key, body)
		}
	}
}

func TestIdempotencyValidator_CustomPattern(t *testing.T) {
	r := newIdemRouter(IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, nil)

	if w := post(r, "abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric key, got %d", w.Code)
	}
	w := post(r, "12345", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for numeric key, got %d", w.Code)
	}
	if body := decode(t, w); body["key"] != "12345" {
		t.Fatalf("key not stashed: %v", body)
	}
}

func TestIdempotencyValidator_LookupKeysOnUserAndBot(t *testing.T) {
	var calls []lookupCall
	r := newIdemRouter(IdempotencyOptions{}, func(_ context.Context, user, bot, key string) bool {
		calls = append(calls, lookupCall{user, bot, key})
		return key == "seen-1"
	})

	w := post(r, "seen-1", "trainer")
	body := decode(t, w)
	if body["replay"] != true || body["bypass"] != true {
		t.Fatalf("expected replay and bypass, got %v", body)
	}

	w = post(r, "fresh-1", "")
	body = decode(t, w)
	if body["replay"] != false || body["bypass"] != false || body["key"] != "fresh-1" {
		t.Fatalf("expected fresh key without replay, got %v", body)
	}

	want := []lookupCall{{"trainer", "b1", "seen-1"}, {DefaultUserID, "b1", "fresh-1"}}
	if len(calls) != len(want) {
		t.Fatalf("lookup calls = %v; want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d = %v; want %v", i, calls[i], want[i])
		}
	}
}
