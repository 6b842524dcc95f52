// Export HTTP handlers.
//
// This file exposes read-only exports of a bot's training artifacts:
//   - GET /bots/{bot}/training-data
//   - GET /bots/{bot}/domain
//   - GET /bots/{bot}/stories
//   - GET /bots/{bot}/config
//
// Conditional responses:
// Each export carries a weak ETag derived from the record counts and newest
// timestamps of the collections it is built from. A matching If-None-Match
// is answered with 304 before anything is loaded. The router compresses
// these routes with gzip.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/http/middleware"
	"github.com/tbourn/go-bot-backend/internal/services"
)

// export answers with load's result, honoring If-None-Match against the
// version of collections. A version failure only drops the ETag.
func export[T any](c *gin.Context, h *Handlers, kind string, collections []domain.Collection,
	load func(ctx context.Context, bot string) (T, error)) {
	ctx := c.Request.Context()
	bot := botID(c)

	if v, err := h.data.Version(ctx, bot, collections...); err == nil {
		etag := fmt.Sprintf(`W/"%s:%s:%s"`, kind, bot, v)
		c.Header("ETag", etag)
		c.Header("Cache-Control", "private, no-cache")
		c.Writer.Header().Del("Pragma")
		c.Writer.Header().Del("Expires")
		if etagMatch(c.GetHeader("If-None-Match"), etag) {
			c.Status(http.StatusNotModified)
			return
		}
	} else {
		middleware.LoggerFrom(c).Warn().Err(err).Str("export", kind).Msg("export version unavailable")
	}

	body, err := load(ctx, bot)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, body)
}

// etagMatch reports whether an If-None-Match header lists etag or "*".
func etagMatch(header, etag string) bool {
	for _, v := range strings.Split(header, ",") {
		v = strings.TrimSpace(v)
		if v == "*" || v == etag {
			return true
		}
	}
	return false
}

// GetTrainingData godoc
// @ID          getTrainingData
// @Summary     Export NLU training data
// @Description Examples, synonyms, lookup tables and regex features of the bot.
// @Tags        Export
// @Produce     json
// @Param       bot            path    string  true   "Bot id"
// @Param       If-None-Match  header  string  false  "ETag of a cached export"
// @Success     200  {object}  training.TrainingData
// @Success     304  "Not modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /bots/{bot}/training-data [get]
func (h *Handlers) GetTrainingData(c *gin.Context) {
	export(c, h, "training-data", services.TrainingDataCollections, h.data.LoadNLU)
}

// GetDomain godoc
// @ID          getDomain
// @Summary     Export the bot domain
// @Description Intents, entities, forms, actions, responses, slots and session config.
// @Tags        Export
// @Produce     json
// @Param       bot            path    string  true   "Bot id"
// @Param       If-None-Match  header  string  false  "ETag of a cached export"
// @Success     200  {object}  training.Domain
// @Success     304  "Not modified"
// @Router      /bots/{bot}/domain [get]
func (h *Handlers) GetDomain(c *gin.Context) {
	export(c, h, "domain", services.DomainCollections, h.data.LoadDomain)
}

// GetStories godoc
// @ID          getStories
// @Summary     Export stories
// @Tags        Export
// @Produce     json
// @Param       bot            path    string  true   "Bot id"
// @Param       If-None-Match  header  string  false  "ETag of a cached export"
// @Success     200  {object}  training.StoryGraph
// @Success     304  "Not modified"
// @Router      /bots/{bot}/stories [get]
func (h *Handlers) GetStories(c *gin.Context) {
	export(c, h, "stories", services.StoryCollections, h.data.LoadStories)
}

// GetConfig godoc
// @ID          getConfig
// @Summary     Export the pipeline config
// @Description Returns the stored config, or the built-in default when none is stored.
// @Tags        Export
// @Produce     json
// @Param       bot            path    string  true   "Bot id"
// @Param       If-None-Match  header  string  false  "ETag of a cached export"
// @Success     200  {object}  training.Config
// @Success     304  "Not modified"
// @Router      /bots/{bot}/config [get]
func (h *Handlers) GetConfig(c *gin.Context) {
	export(c, h, "config", services.ConfigCollections, h.data.LoadConfig)
}
