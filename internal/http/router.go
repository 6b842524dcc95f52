// Package httpapi wires the HTTP transport (Gin) to the handlers, middleware
// and routes of the bot backend. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Two surfaces are mounted:
//   - /channels/whatsapp/:bot, called by the messaging provider
//   - {API_BASE_PATH}/bots/:bot/..., the training data API
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-bot-backend/internal/config"
	"github.com/tbourn/go-bot-backend/internal/http/handlers"
	"github.com/tbourn/go-bot-backend/internal/http/middleware"
)

// maxAPIBody caps data API request bodies. Webhook bodies are capped by the
// handler with WEBHOOK_MAX_BODY_BYTES.
const maxAPIBody int64 = 1 << 20

var (
	corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsHeaders = []string{
		"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
		middleware.HeaderUserID, middleware.HeaderIdempotencyKey,
	}
	corsExpose = []string{
		middleware.HeaderRequestID, "Content-Length", "ETag", middleware.HeaderReplayed,
	}
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. idem backs the Idempotency-Key lookup and may be nil.
//
// Engine middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Metrics
//  6. CORS and Security headers
//
// The data API group adds the idempotency validator (before the limiter so
// replays bypass it) and the per user/IP rate limiter. Provider webhooks are
// never throttled.
func RegisterRoutes(r *gin.Engine, h *handlers.Handlers, idem handlers.IdempotencyStore, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders:     []string{"D360-API-KEY"},
		MaskQueryParams: []string{"hub.verify_token"},
	}))
	r.Use(middleware.Recovery())

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	useCORS(r, cfg.CORS.AllowedOrigins)

	// Data API responses carry training data; exports relax this per route.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Provider webhooks
	wa := r.Group("/channels/whatsapp")
	{
		wa.GET("/:bot", h.VerifyWhatsApp)
		wa.POST("/:bot", h.WhatsAppWebhook)
	}

	var lookup middleware.IdempotencyLookup
	if idem != nil {
		lookup = func(ctx context.Context, userID, bot, key string) bool {
			return idem.Lookup(ctx, userID, bot, key) != nil
		}
	}
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	// Only the data API is limited; webhooks above are never throttled.
	api := groupWithPrefix(r, cfg.APIBasePath)
	bot := api.Group("/bots/:bot",
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, lookup),
		rl.Handler(),
		limitBody(maxAPIBody),
	)
	{
		bot.POST("/intents", h.AddIntent)
		bot.GET("/intents", h.GetIntents)
		bot.POST("/entities", h.AddEntity)
		bot.GET("/entities", h.GetEntities)
		bot.POST("/actions", h.AddAction)
		bot.GET("/actions", h.GetActions)

		bot.POST("/training-examples", h.AddTrainingExample)
		bot.GET("/training-examples/search", h.SearchTrainingExamples)
		bot.GET("/intents/:intent/training-examples", h.GetTrainingExamples)

		bot.DELETE("/documents/:collection/:id", h.RemoveDocument)

		bot.PUT("/channels/whatsapp", h.PutWhatsAppConfig)
		bot.GET("/channels/whatsapp", h.GetWhatsAppConfig)
	}

	exports := bot.Group("", gzip.Gzip(gzip.DefaultCompression))
	{
		exports.GET("/training-data", h.GetTrainingData)
		exports.GET("/domain", h.GetDomain)
		exports.GET("/stories", h.GetStories)
		exports.GET("/config", h.GetConfig)
	}
}

// useCORS allows every origin when allowed is empty, else echoes listed
// origins only.
func useCORS(r *gin.Engine, allowed []string) {
	if len(allowed) == 0 {
		// Set ACAO even without an Origin header so plain probes see it.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
		return
	}

	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := set[origin]; ok {
				hd := c.Writer.Header()
				hd.Set("Access-Control-Allow-Origin", origin)
				hd.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowed,
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    corsExpose,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

// limitBody caps the request body at maxBytes; reads past the cap fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
