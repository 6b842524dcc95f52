package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/http/middleware"
	"github.com/tbourn/go-bot-backend/internal/services"
)

// serveEnvelope runs h behind a stub request-id and logger middleware and
// returns the recorder plus whatever the handler logged.
func serveEnvelope(t *testing.T, method string, h gin.HandlerFunc) (*httptest.ResponseRecorder, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var logs bytes.Buffer
	lg := zerolog.New(&logs)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set(middleware.HeaderRequestID, "rid-envelope")
		c.Set("logger", &lg)
		c.Next()
	})
	r.Handle(method, "/", h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, "/", nil))
	return w, logs.String()
}

func TestFail_Envelope(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		code    string
		h       func(*gin.Context, int, string, string)
		wantLog bool
	}{
		{"server error is logged", http.StatusInternalServerError, ErrCodeInternal, fail, true},
		{"client error is quiet", http.StatusConflict, ErrCodeConflict, fail, false},
		{"exported fallback", http.StatusNotFound, ErrCodeNotFound, Fail, false},
	}
	for _, tc := range cases {
		w, logs := serveEnvelope(t, http.MethodPost, func(c *gin.Context) {
			tc.h(c, tc.status, tc.code, "Intent already exists!")
		})
		if w.Code != tc.status {
			t.Fatalf("%s: status=%d want %d", tc.name, w.Code, tc.status)
		}
		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
			t.Fatalf("%s: json: %v", tc.name, err)
		}
		if er != (ErrorResponse{RequestID: "rid-envelope", Code: tc.code, Message: "Intent already exists!"}) {
			t.Fatalf("%s: body=%+v", tc.name, er)
		}
		if got := strings.Contains(logs, `"level":"error"`); got != tc.wantLog {
			t.Fatalf("%s: error logged=%v want %v (%s)", tc.name, got, tc.wantLog, logs)
		}
	}
}

func TestSuccessHelpers(t *testing.T) {
	w, _ := serveEnvelope(t, http.MethodPost, func(c *gin.Context) {
		ok(c, http.StatusCreated, CreatedResponse{ID: "i-1", Message: "Intent added successfully!"})
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("ok status=%d", w.Code)
	}
	var created CreatedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.ID != "i-1" {
		t.Fatalf("ok body=%s err=%v", w.Body.String(), err)
	}

	w, _ = serveEnvelope(t, http.MethodDelete, noContent)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("noContent: status=%d body=%q", w.Code, w.Body.String())
	}
}

func Test_failErr_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err     error
		status  int
		code    string
		message string
	}{
		{&domain.ValidationError{Reason: "Intent Name cannot be empty or blank spaces"}, http.StatusBadRequest, ErrCodeBadRequest, "Intent Name cannot be empty or blank spaces"},
		{services.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidInput.Error()},
		{services.ErrUnknownCollection, http.StatusBadRequest, ErrCodeBadRequest, "unknown collection"},
		{services.ErrIntentExists, http.StatusConflict, ErrCodeConflict, "Intent already exists!"},
		{fmt.Errorf("save domain: %w", services.ErrSessionConfigExists), http.StatusConflict, ErrCodeConflict, "save domain: Session Config already exists for the bot"},
		{services.ErrDocumentNotFound, http.StatusNotFound, ErrCodeNotFound, "unable to remove document"},
		{services.ErrChannelNotConfigured, http.StatusNotFound, ErrCodeNotFound, "channel not configured for bot"},
		{errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternal, "internal server error"},
	}

	for _, tc := range cases {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) { failErr(c, tc.err) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != tc.status {
			t.Fatalf("%v: status=%d want %d", tc.err, w.Code, tc.status)
		}
		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
			t.Fatalf("%v: json: %v", tc.err, err)
		}
		if er.Code != tc.code || er.Message != tc.message {
			t.Fatalf("%v: body=%+v", tc.err, er)
		}
	}
}
