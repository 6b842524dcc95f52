// Bot data HTTP handlers.
//
// This file exposes the editing endpoints of a bot's training data:
//   - POST /bots/{bot}/intents | /entities | /actions   (create by name)
//   - GET  /bots/{bot}/intents | /entities | /actions   (list active)
//   - POST /bots/{bot}/training-examples                (annotated example)
//   - GET  /bots/{bot}/intents/{intent}/training-examples
//   - GET  /bots/{bot}/training-examples/search
//   - DELETE /bots/{bot}/documents/{collection}/{id}    (soft delete)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous create with
// the same (user, bot, key) succeeded, the handler answers with the recorded
// resource id and sets `Idempotency-Replayed: true` instead of reporting a
// conflict.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/http/middleware"
	"github.com/tbourn/go-bot-backend/internal/search"
	"github.com/tbourn/go-bot-backend/internal/services"
	"github.com/tbourn/go-bot-backend/internal/utils"
)

//
// DTOs
//

// NameRequest is the JSON payload for creating an intent, entity or action.
type NameRequest struct {
	Name string `json:"name" binding:"required" example:"greet"`
}

// TrainingExampleRequest is the JSON payload for adding a training example.
// Entities are annotated inline as [text](entity) or [text](entity:value).
type TrainingExampleRequest struct {
	Intent string `json:"intent" binding:"required" example:"request_restaurant"`
	Text   string `json:"text"   binding:"required" example:"find a [cheap](price) place in [berlin](location)"`
}

// CreatedResponse reports the id of a created record.
type CreatedResponse struct {
	ID      string `json:"_id"     example:"01927a4e-52b4-7c4e-9a43-8f6f0f4e2b1d"`
	Message string `json:"message" example:"Intent added successfully!"`
}

// SearchResponse lists the best matching training data for a query.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

const maxSearchK = 50

//
// Helpers
//

type createFunc func(ctx context.Context, bot, user string) (string, error)

// create runs a keyed create: a replayed Idempotency-Key for the same
// collection answers with the recorded id, otherwise do runs and its
// result is recorded under the key.
func (h *Handlers) create(c *gin.Context, collection domain.Collection, msg string, do createFunc) {
	ctx := c.Request.Context()
	bot := botID(c)
	if bot == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "bot is required")
		return
	}
	user := userID(c)

	key, hasKey := middleware.GetIdempotencyKey(c)
	if hasKey && h.idem != nil {
		if rec := h.idem.Lookup(ctx, user, bot, key); rec != nil && rec.Collection == string(collection) {
			c.Header(middleware.HeaderReplayed, "true")
			ok(c, rec.Status, CreatedResponse{ID: rec.ResourceID, Message: msg})
			return
		}
	}

	id, err := do(ctx, bot, user)
	if err != nil {
		failErr(c, err)
		return
	}
	if hasKey && h.idem != nil {
		h.idem.Record(ctx, user, bot, key, collection, id, http.StatusCreated)
	}
	ok(c, http.StatusCreated, CreatedResponse{ID: id, Message: msg})
}

func (h *Handlers) createNamed(c *gin.Context, collection domain.Collection, msg string,
	add func(ctx context.Context, name, bot, user string) (string, error)) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}
	h.create(c, collection, msg, func(ctx context.Context, bot, user string) (string, error) {
		return add(ctx, req.Name, bot, user)
	})
}

func listNamed(c *gin.Context, get func(ctx context.Context, bot string) ([]services.NamedItem, error)) {
	items, err := get(c.Request.Context(), botID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []services.NamedItem{}
	}
	ok(c, http.StatusOK, items)
}

//
// Handlers
//

// AddIntent godoc
// @ID          addIntent
// @Summary     Add an intent
// @Description Creates an intent. Supports idempotency via the Idempotency-Key header.
// @Tags        Training data
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string                    false "Acting user"  example(trainer)
// @Param       Idempotency-Key  header  string                    false "Idempotency key for safe retries"
// @Param       bot              path    string                    true  "Bot id"
// @Param       body             body    handlers.NameRequest      true  "Intent name"
// @Success     201  {object}  handlers.CreatedResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid name"
// @Failure     409  {object}  handlers.ErrorResponse  "Intent already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bots/{bot}/intents [post]
func (h *Handlers) AddIntent(c *gin.Context) {
	h.createNamed(c, domain.CollectionIntents, "Intent added successfully!", h.data.AddIntent)
}

// AddEntity godoc
// @ID          addEntity
// @Summary     Add an entity
// @Description Creates an entity and its text slot. Supports idempotency via the Idempotency-Key header.
// @Tags        Training data
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                    false "Idempotency key for safe retries"
// @Param       bot              path    string                    true  "Bot id"
// @Param       body             body    handlers.NameRequest      true  "Entity name"
// @Success     201  {object}  handlers.CreatedResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Entity already exists"
// @Router      /bots/{bot}/entities [post]
func (h *Handlers) AddEntity(c *gin.Context) {
	h.createNamed(c, domain.CollectionEntities, "Entity added successfully!", h.data.AddEntity)
}

// AddAction godoc
// @ID          addAction
// @Summary     Add an action
// @Tags        Training data
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                    false "Idempotency key for safe retries"
// @Param       bot              path    string                    true  "Bot id"
// @Param       body             body    handlers.NameRequest      true  "Action name"
// @Success     201  {object}  handlers.CreatedResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Action already exists"
// @Router      /bots/{bot}/actions [post]
func (h *Handlers) AddAction(c *gin.Context) {
	h.createNamed(c, domain.CollectionActions, "Action added successfully!", h.data.AddAction)
}

// AddTrainingExample godoc
// @ID          addTrainingExample
// @Summary     Add a training example
// @Description Stores an annotated example for an intent. Entity markup is extracted.
// @Tags        Training data
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                           false "Idempotency key for safe retries"
// @Param       bot              path    string                           true  "Bot id"
// @Param       body             body    handlers.TrainingExampleRequest  true  "Example"
// @Success     201  {object}  handlers.CreatedResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Training Example already exists"
// @Router      /bots/{bot}/training-examples [post]
func (h *Handlers) AddTrainingExample(c *gin.Context) {
	var req TrainingExampleRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.Intent) == "" || strings.TrimSpace(req.Text) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "intent and text required")
		return
	}
	h.create(c, domain.CollectionTrainingExamples, "Training Example added successfully!",
		func(ctx context.Context, bot, user string) (string, error) {
			return h.data.AddTrainingExample(ctx, req.Text, req.Intent, bot, user)
		})
}

// GetIntents godoc
// @ID          getIntents
// @Summary     List intents
// @Tags        Training data
// @Produce     json
// @Param       bot  path  string  true  "Bot id"
// @Success     200  {array}   services.NamedItem
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /bots/{bot}/intents [get]
func (h *Handlers) GetIntents(c *gin.Context) { listNamed(c, h.data.GetIntents) }

// GetEntities godoc
// @ID          getEntities
// @Summary     List entities
// @Tags        Training data
// @Produce     json
// @Param       bot  path  string  true  "Bot id"
// @Success     200  {array}   services.NamedItem
// @Router      /bots/{bot}/entities [get]
func (h *Handlers) GetEntities(c *gin.Context) { listNamed(c, h.data.GetEntities) }

// GetActions godoc
// @ID          getActions
// @Summary     List actions
// @Tags        Training data
// @Produce     json
// @Param       bot  path  string  true  "Bot id"
// @Success     200  {array}   services.NamedItem
// @Router      /bots/{bot}/actions [get]
func (h *Handlers) GetActions(c *gin.Context) { listNamed(c, h.data.GetActions) }

// GetTrainingExamples godoc
// @ID          getTrainingExamples
// @Summary     List the training examples of an intent
// @Description Example texts are returned with their entity markup.
// @Tags        Training data
// @Produce     json
// @Param       bot     path  string  true  "Bot id"
// @Param       intent  path  string  true  "Intent name"
// @Success     200  {array}   services.ExampleItem
// @Router      /bots/{bot}/intents/{intent}/training-examples [get]
func (h *Handlers) GetTrainingExamples(c *gin.Context) {
	items, err := h.data.GetTrainingExamples(c.Request.Context(), strings.TrimSpace(c.Param("intent")), botID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []services.ExampleItem{}
	}
	ok(c, http.StatusOK, items)
}

// SearchTrainingExamples godoc
// @ID          searchTrainingExamples
// @Summary     Search training data
// @Description Ranks example texts, synonyms, lookup values and regex patterns by similarity to q.
// @Tags        Training data
// @Produce     json
// @Param       bot  path   string  true   "Bot id"
// @Param       q    query  string  true   "Query text"
// @Param       k    query  int     false  "Maximum results"  minimum(1) maximum(50)
// @Success     200  {object}  handlers.SearchResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /bots/{bot}/training-examples/search [get]
func (h *Handlers) SearchTrainingExamples(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q required")
		return
	}
	// 0 selects the configured default.
	k := utils.Clamp(utils.AtoiDefault(c.Query("k"), 0), 0, maxSearchK)

	res, err := h.data.SearchTrainingExamples(c.Request.Context(), botID(c), q, k)
	if err != nil {
		failErr(c, err)
		return
	}
	if res == nil {
		res = []search.Result{}
	}
	ok(c, http.StatusOK, SearchResponse{Query: q, Results: res})
}

// RemoveDocument godoc
// @ID          removeDocument
// @Summary     Remove a record
// @Description Soft-deletes one record of a collection; it disappears from listings and exports.
// @Tags        Training data
// @Param       bot         path  string  true  "Bot id"
// @Param       collection  path  string  true  "Collection"  Enums(training_examples,entity_synonyms,lookup_tables,regex_features,intents,entities,forms,actions,responses,slots,stories,configs,session_configs)
// @Param       id          path  string  true  "Record id"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown collection"
// @Failure     404  {object}  handlers.ErrorResponse  "unable to remove document"
// @Router      /bots/{bot}/documents/{collection}/{id} [delete]
func (h *Handlers) RemoveDocument(c *gin.Context) {
	collection := domain.Collection(strings.TrimSpace(c.Param("collection")))
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id required")
		return
	}
	if err := h.data.RemoveDocument(c.Request.Context(), botID(c), collection, id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
