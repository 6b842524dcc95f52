package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bot-backend/internal/channel"
	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/http/middleware"
	"github.com/tbourn/go-bot-backend/internal/search"
	"github.com/tbourn/go-bot-backend/internal/services"
	"github.com/tbourn/go-bot-backend/internal/training"
)

//
// Fakes
//

type addCall struct {
	kind, name, intent, bot, user string
}

type fakeData struct {
	mu      sync.Mutex
	adds    []addCall
	addErr  error
	nextID  string
	listed  []services.NamedItem
	listErr error

	examples []services.ExampleItem
	results  []search.Result
	searchK  int

	removed   []string
	removeErr error

	version    string
	versionErr error
	loads      int
	loadErr    error
}

func (f *fakeData) add(kind, name, intent, bot, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, addCall{kind, name, intent, bot, user})
	if f.addErr != nil {
		return "", f.addErr
	}
	return f.nextID, nil
}

func (f *fakeData) AddIntent(_ context.Context, name, bot, user string) (string, error) {
	return f.add("intent", name, "", bot, user)
}
func (f *fakeData) AddEntity(_ context.Context, name, bot, user string) (string, error) {
	return f.add("entity", name, "", bot, user)
}
func (f *fakeData) AddAction(_ context.Context, name, bot, user string) (string, error) {
	return f.add("action", name, "", bot, user)
}
func (f *fakeData) AddTrainingExample(_ context.Context, annotated, intent, bot, user string) (string, error) {
	return f.add("example", annotated, intent, bot, user)
}

func (f *fakeData) GetIntents(context.Context, string) ([]services.NamedItem, error) {
	return f.listed, f.listErr
}
func (f *fakeData) GetEntities(context.Context, string) ([]services.NamedItem, error) {
	return f.listed, f.listErr
}
func (f *fakeData) GetActions(context.Context, string) ([]services.NamedItem, error) {
	return f.listed, f.listErr
}
func (f *fakeData) GetTrainingExamples(_ context.Context, intent, _ string) ([]services.ExampleItem, error) {
	if intent == "" {
		return nil, nil
	}
	return f.examples, f.listErr
}
func (f *fakeData) SearchTrainingExamples(_ context.Context, _, _ string, k int) ([]search.Result, error) {
	f.searchK = k
	return f.results, f.listErr
}

func (f *fakeData) RemoveDocument(_ context.Context, bot string, collection domain.Collection, id string) error {
	f.removed = append(f.removed, bot+"/"+string(collection)+"/"+id)
	return f.removeErr
}

func (f *fakeData) LoadNLU(context.Context, string) (training.TrainingData, error) {
	f.loads++
	return training.TrainingData{
		Examples: []training.Example{{Text: "hi", Intent: "greet"}},
		Synonyms: map[string]string{},
	}, f.loadErr
}
func (f *fakeData) LoadDomain(context.Context, string) (training.Domain, error) {
	f.loads++
	return training.Domain{Intents: []string{"greet"}}, f.loadErr
}
func (f *fakeData) LoadStories(context.Context, string) (training.StoryGraph, error) {
	f.loads++
	return training.StoryGraph{}, f.loadErr
}
func (f *fakeData) LoadConfig(context.Context, string) (training.Config, error) {
	f.loads++
	return training.Config{Language: "en", Pipeline: json.RawMessage(`[]`), Policies: json.RawMessage(`[]`)}, f.loadErr
}
func (f *fakeData) Version(context.Context, string, ...domain.Collection) (string, error) {
	return f.version, f.versionErr
}

type fakeChannels struct {
	put    *domain.ChannelConfig
	putErr error
	stored *domain.ChannelConfig
	getErr error
}

func (f *fakeChannels) Put(_ context.Context, cfg *domain.ChannelConfig) error {
	if f.putErr != nil {
		return f.putErr
	}
	cp := *cfg
	if cp.Provider == "" {
		cp.Provider = domain.ProviderMeta
	}
	f.put = &cp
	*cfg = cp
	return nil
}

func (f *fakeChannels) Get(context.Context, string, string) (*domain.ChannelConfig, error) {
	return f.stored, f.getErr
}

type fakeWebhook struct {
	token     string
	verifyErr error

	ack       string
	err       error
	body      []byte
	signature string
	meta      channel.Metadata
}

func (f *fakeWebhook) Verify(_ context.Context, _, token, challenge string) (string, bool, error) {
	if f.verifyErr != nil {
		return "", false, f.verifyErr
	}
	if token != f.token {
		return "", false, nil
	}
	return challenge, true, nil
}

func (f *fakeWebhook) HandlePayload(_ context.Context, _ string, body []byte, signature string, meta channel.Metadata) (string, error) {
	f.body, f.signature, f.meta = body, signature, meta
	return f.ack, f.err
}

type memoryIdem struct {
	mu   sync.Mutex
	recs map[string]domain.Idempotency
}

func newMemoryIdem() *memoryIdem { return &memoryIdem{recs: map[string]domain.Idempotency{}} }

func (m *memoryIdem) Lookup(_ context.Context, userID, bot, key string) *domain.Idempotency {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.recs[userID+"|"+bot+"|"+key]; ok {
		return &rec
	}
	return nil
}

func (m *memoryIdem) Record(_ context.Context, userID, bot, key string, collection domain.Collection, resourceID string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := userID + "|" + bot + "|" + key
	if _, ok := m.recs[k]; ok {
		return
	}
	m.recs[k] = domain.Idempotency{
		UserID: userID, Bot: bot, Key: key,
		Collection: string(collection), ResourceID: resourceID, Status: status,
	}
}

//
// Router helpers
//

func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Writer.Header().Set(middleware.HeaderRequestID, "rid-test"); c.Next() })

	var lookup middleware.IdempotencyLookup
	if h.idem != nil {
		lookup = func(ctx context.Context, userID, bot, key string) bool {
			return h.idem.Lookup(ctx, userID, bot, key) != nil
		}
	}

	b := r.Group("/bots/:bot")
	b.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup))
	b.POST("/intents", h.AddIntent)
	b.GET("/intents", h.GetIntents)
	b.POST("/entities", h.AddEntity)
	b.GET("/entities", h.GetEntities)
	b.POST("/actions", h.AddAction)
	b.GET("/actions", h.GetActions)
	b.POST("/training-examples", h.AddTrainingExample)
	b.GET("/training-examples/search", h.SearchTrainingExamples)
	b.GET("/intents/:intent/training-examples", h.GetTrainingExamples)
	b.DELETE("/documents/:collection/:id", h.RemoveDocument)
	b.GET("/training-data", h.GetTrainingData)
	b.GET("/domain", h.GetDomain)
	b.GET("/stories", h.GetStories)
	b.GET("/config", h.GetConfig)
	b.PUT("/channels/whatsapp", h.PutWhatsAppConfig)
	b.GET("/channels/whatsapp", h.GetWhatsAppConfig)

	r.GET("/channels/whatsapp/:bot", h.VerifyWhatsApp)
	r.POST("/channels/whatsapp/:bot", h.WhatsAppWebhook)
	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er
}
