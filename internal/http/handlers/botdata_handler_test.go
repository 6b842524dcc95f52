package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/search"
	"github.com/tbourn/go-bot-backend/internal/services"
)

func TestAddNamed_CreatesWithUserAndBot(t *testing.T) {
	cases := []struct {
		path, kind, msg string
	}{
		{"/bots/b1/intents", "intent", "Intent added successfully!"},
		{"/bots/b1/entities", "entity", "Entity added successfully!"},
		{"/bots/b1/actions", "action", "Action added successfully!"},
	}
	for _, tc := range cases {
		data := &fakeData{nextID: "id-1"}
		r := newRouter(New(data, nil, nil, nil))

		w := do(r, http.MethodPost, tc.path, `{"name":"greet"}`, map[string]string{"X-User-ID": "trainer"})
		if w.Code != http.StatusCreated {
			t.Fatalf("%s: status=%d body=%s", tc.path, w.Code, w.Body.String())
		}
		var resp CreatedResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: json: %v", tc.path, err)
		}
		if resp.ID != "id-1" || resp.Message != tc.msg {
			t.Fatalf("%s: unexpected body %+v", tc.path, resp)
		}
		want := addCall{kind: tc.kind, name: "greet", bot: "b1", user: "trainer"}
		if len(data.adds) != 1 || data.adds[0] != want {
			t.Fatalf("%s: adds=%+v want %+v", tc.path, data.adds, want)
		}
	}
}

func TestAddIntent_BadBody_And_DefaultUser(t *testing.T) {
	data := &fakeData{nextID: "id-2"}
	r := newRouter(New(data, nil, nil, nil))

	for _, body := range []string{`{`, `{}`, `{"name":"   "}`} {
		w := do(r, http.MethodPost, "/bots/b1/intents", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status=%d", body, w.Code)
		}
		if er := decodeError(t, w); er.Code != ErrCodeBadRequest || er.RequestID != "rid-test" {
			t.Fatalf("body %q: unexpected error %+v", body, er)
		}
	}
	if len(data.adds) != 0 {
		t.Fatalf("service must not be called for bad input")
	}

	w := do(r, http.MethodPost, "/bots/b1/intents", `{"name":"greet"}`, nil)
	if w.Code != http.StatusCreated || data.adds[0].user != "system" {
		t.Fatalf("expected default user, got %d %+v", w.Code, data.adds)
	}
}

func TestAddIntent_ServiceErrorsMapped(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{services.ErrIntentExists, http.StatusConflict, "Intent already exists!"},
		{&domain.ValidationError{Reason: "Intent Name cannot be empty or blank spaces"}, http.StatusBadRequest, "Intent Name cannot be empty or blank spaces"},
		{services.ErrInternal, http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		r := newRouter(New(&fakeData{addErr: tc.err}, nil, nil, nil))
		w := do(r, http.MethodPost, "/bots/b1/intents", `{"name":"greet"}`, nil)
		if w.Code != tc.status {
			t.Fatalf("%v: status=%d", tc.err, w.Code)
		}
		if er := decodeError(t, w); er.Message != tc.msg {
			t.Fatalf("%v: message=%q", tc.err, er.Message)
		}
	}
}

func TestAddIntent_IdempotentReplay(t *testing.T) {
	data := &fakeData{nextID: "id-1"}
	idem := newMemoryIdem()
	r := newRouter(New(data, nil, nil, idem))
	hdr := map[string]string{"Idempotency-Key": "k-1", "X-User-ID": "trainer"}

	w1 := do(r, http.MethodPost, "/bots/b1/intents", `{"name":"greet"}`, hdr)
	if w1.Code != http.StatusCreated || w1.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("first: status=%d replayed=%q", w1.Code, w1.Header().Get("Idempotency-Replayed"))
	}

	// A retry would conflict in the service; the stored result wins.
	data.addErr = services.ErrIntentExists
	w2 := do(r, http.MethodPost, "/bots/b1/intents", `{"name":"greet"}`, hdr)
	if w2.Code != http.StatusCreated || w2.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay: status=%d replayed=%q body=%s", w2.Code, w2.Header().Get("Idempotency-Replayed"), w2.Body.String())
	}
	var resp CreatedResponse
	if err := json.Unmarshal(w2.Body.Bytes(), &resp); err != nil || resp.ID != "id-1" {
		t.Fatalf("replay body=%s err=%v", w2.Body.String(), err)
	}
	if len(data.adds) != 1 {
		t.Fatalf("service called %d times; want 1", len(data.adds))
	}

	// Same key on another collection is not a replay.
	w3 := do(r, http.MethodPost, "/bots/b1/actions", `{"name":"utter_hi"}`, hdr)
	if w3.Code != http.StatusConflict {
		t.Fatalf("cross-collection key: status=%d", w3.Code)
	}

	// Same key for another user is not a replay either.
	w4 := do(r, http.MethodPost, "/bots/b1/intents", `{"name":"greet"}`,
		map[string]string{"Idempotency-Key": "k-1", "X-User-ID": "other"})
	if w4.Code != http.StatusConflict {
		t.Fatalf("other user: status=%d", w4.Code)
	}
}

func TestAddIntent_FailedCreateNotRecorded(t *testing.T) {
	data := &fakeData{addErr: services.ErrIntentExists}
	idem := newMemoryIdem()
	r := newRouter(New(data, nil, nil, idem))

	w := do(r, http.MethodPost, "/bots/b1/intents", `{"name":"greet"}`, map[string]string{"Idempotency-Key": "k-9"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d", w.Code)
	}
	if len(idem.recs) != 0 {
		t.Fatalf("failed create must not be recorded: %+v", idem.recs)
	}
}

func TestAddTrainingExample(t *testing.T) {
	data := &fakeData{nextID: "ex-1"}
	r := newRouter(New(data, nil, nil, nil))

	w := do(r, http.MethodPost, "/bots/b1/training-examples",
		`{"intent":"inform","text":"in [berlin](location)"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	want := addCall{kind: "example", name: "in [berlin](location)", intent: "inform", bot: "b1", user: "system"}
	if data.adds[0] != want {
		t.Fatalf("add=%+v want %+v", data.adds[0], want)
	}

	w = do(r, http.MethodPost, "/bots/b1/training-examples", `{"intent":"inform"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing text: status=%d", w.Code)
	}
}

func TestListEndpoints(t *testing.T) {
	data := &fakeData{
		listed:   []services.NamedItem{{ID: "1", Name: "greet"}},
		examples: []services.ExampleItem{{ID: "e1", Text: "hi [bob](name)"}},
	}
	r := newRouter(New(data, nil, nil, nil))

	for _, p := range []string{"/bots/b1/intents", "/bots/b1/entities", "/bots/b1/actions"} {
		w := do(r, http.MethodGet, p, "", nil)
		if w.Code != http.StatusOK || w.Body.String() != `[{"_id":"1","name":"greet"}]` {
			t.Fatalf("%s: %d %s", p, w.Code, w.Body.String())
		}
	}

	w := do(r, http.MethodGet, "/bots/b1/intents/greet/training-examples", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != `[{"_id":"e1","text":"hi [bob](name)"}]` {
		t.Fatalf("examples: %d %s", w.Code, w.Body.String())
	}

	empty := newRouter(New(&fakeData{}, nil, nil, nil))
	if w := do(empty, http.MethodGet, "/bots/b1/intents", "", nil); w.Body.String() != `[]` {
		t.Fatalf("empty list must encode as [], got %s", w.Body.String())
	}
}

func TestSearchTrainingExamples(t *testing.T) {
	data := &fakeData{results: []search.Result{{ID: "e1", Kind: "training_examples", Text: "hello there", Score: 0.5}}}
	r := newRouter(New(data, nil, nil, nil))

	if w := do(r, http.MethodGet, "/bots/b1/training-examples/search", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing q: status=%d", w.Code)
	}

	w := do(r, http.MethodGet, "/bots/b1/training-examples/search?q=hello&k=3", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Query != "hello" || len(resp.Results) != 1 || data.searchK != 3 {
		t.Fatalf("unexpected search: %+v k=%d", resp, data.searchK)
	}

	do(r, http.MethodGet, "/bots/b1/training-examples/search?q=hello&k=500", "", nil)
	if data.searchK != maxSearchK {
		t.Fatalf("k not capped: %d", data.searchK)
	}
	do(r, http.MethodGet, "/bots/b1/training-examples/search?q=hello&k=abc", "", nil)
	if data.searchK != 0 {
		t.Fatalf("invalid k must select the default, got %d", data.searchK)
	}
}

func TestRemoveDocument(t *testing.T) {
	data := &fakeData{}
	r := newRouter(New(data, nil, nil, nil))

	w := do(r, http.MethodDelete, "/bots/b1/documents/intents/abc", "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if len(data.removed) != 1 || data.removed[0] != "b1/intents/abc" {
		t.Fatalf("removed=%v", data.removed)
	}

	data.removeErr = services.ErrDocumentNotFound
	w = do(r, http.MethodDelete, "/bots/b1/documents/intents/missing", "", nil)
	if w.Code != http.StatusNotFound || decodeError(t, w).Message != "unable to remove document" {
		t.Fatalf("not found: %d %s", w.Code, w.Body.String())
	}

	data.removeErr = services.ErrUnknownCollection
	w = do(r, http.MethodDelete, "/bots/b1/documents/bogus/abc", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown collection: status=%d", w.Code)
	}
}
