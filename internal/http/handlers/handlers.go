// Package handlers exposes the bot data API and the channel webhooks.
//
// Handlers are transport-thin: they bind and check input, call the services
// and translate results and errors into HTTP responses.
package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bot-backend/internal/channel"
	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/http/middleware"
	"github.com/tbourn/go-bot-backend/internal/search"
	"github.com/tbourn/go-bot-backend/internal/services"
	"github.com/tbourn/go-bot-backend/internal/training"
)

//
// Service contracts (context-aware)
//

// BotDataService edits and exports a bot's training data.
type BotDataService interface {
	AddIntent(ctx context.Context, name, bot, user string) (string, error)
	AddEntity(ctx context.Context, name, bot, user string) (string, error)
	AddAction(ctx context.Context, name, bot, user string) (string, error)
	AddTrainingExample(ctx context.Context, annotated, intent, bot, user string) (string, error)

	GetIntents(ctx context.Context, bot string) ([]services.NamedItem, error)
	GetEntities(ctx context.Context, bot string) ([]services.NamedItem, error)
	GetActions(ctx context.Context, bot string) ([]services.NamedItem, error)
	GetTrainingExamples(ctx context.Context, intent, bot string) ([]services.ExampleItem, error)
	SearchTrainingExamples(ctx context.Context, bot, q string, k int) ([]search.Result, error)

	RemoveDocument(ctx context.Context, bot string, collection domain.Collection, id string) error

	LoadNLU(ctx context.Context, bot string) (training.TrainingData, error)
	LoadDomain(ctx context.Context, bot string) (training.Domain, error)
	LoadStories(ctx context.Context, bot string) (training.StoryGraph, error)
	LoadConfig(ctx context.Context, bot string) (training.Config, error)

	// Version changes whenever a record of collections is added or removed.
	Version(ctx context.Context, bot string, collections ...domain.Collection) (string, error)
}

// ChannelService stores per-bot channel credentials.
type ChannelService interface {
	Put(ctx context.Context, cfg *domain.ChannelConfig) error
	Get(ctx context.Context, bot, channel string) (*domain.ChannelConfig, error)
}

// WebhookDispatcher accepts channel deliveries.
type WebhookDispatcher interface {
	Verify(ctx context.Context, bot, token, challenge string) (string, bool, error)
	HandlePayload(ctx context.Context, bot string, body []byte, signature string, meta channel.Metadata) (string, error)
}

// IdempotencyStore remembers the resources created by keyed requests.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, bot, key string) *domain.Idempotency
	Record(ctx context.Context, userID, bot, key string, collection domain.Collection, resourceID string, status int)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints.
type Handlers struct {
	data     BotDataService
	channels ChannelService
	webhook  WebhookDispatcher
	idem     IdempotencyStore

	// MaxWebhookBody caps webhook payloads; 0 means 1 MiB.
	MaxWebhookBody int64
}

// New constructs Handlers. idem may be nil to disable request replay.
func New(data BotDataService, channels ChannelService, webhook WebhookDispatcher, idem IdempotencyStore) *Handlers {
	return &Handlers{data: data, channels: channels, webhook: webhook, idem: idem}
}

// userID returns the acting user: the authenticated id set by upstream
// middleware, else the X-User-ID header, else "system".
func userID(c *gin.Context) string { return middleware.UserID(c) }

func botID(c *gin.Context) string { return strings.TrimSpace(c.Param("bot")) }
