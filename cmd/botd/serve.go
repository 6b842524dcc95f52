package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-bot-backend/docs"
	"github.com/tbourn/go-bot-backend/internal/agent"
	"github.com/tbourn/go-bot-backend/internal/channel"
	"github.com/tbourn/go-bot-backend/internal/channel/whatsapp"
	"github.com/tbourn/go-bot-backend/internal/config"
	httpapi "github.com/tbourn/go-bot-backend/internal/http"
	"github.com/tbourn/go-bot-backend/internal/http/handlers"
	"github.com/tbourn/go-bot-backend/internal/observability"
	"github.com/tbourn/go-bot-backend/internal/services"
	"github.com/tbourn/go-bot-backend/internal/training"
)

const (
	purgeInterval   = 15 * time.Minute
	shutdownTimeout = 15 * time.Second
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the channel workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, buildVersion())
	if err != nil {
		return err
	}
	defer func() { _ = shutdownOTel(context.Background()) }()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	defaults, err := training.DefaultConfig(cfg.DefaultConfigPath)
	if err != nil {
		return err
	}

	// Storage-backed services
	data := &services.BotDataService{DB: db, DefaultConfig: defaults, SearchTopK: cfg.SearchTopK}
	channels := services.NewChannelService(db, nil)
	idem := &services.IdempotencyService{DB: db, TTL: cfg.IdempotencyTTL}
	receipts := &services.DeliveryReceipts{DB: db, TTL: cfg.WhatsApp.DeliveryReceipts}

	// Channel pipeline: webhook -> scheduler -> worker -> gateway -> agent
	converters := channel.NewConverterRegistry()
	whatsapp.RegisterConverters(converters)
	agents := channel.NewAgentPool(agent.NewLoader(cfg.Agent.Endpoint, cfg.Agent.Timeout, nil), cfg.Agent.CacheTTL)
	worker := &whatsapp.Worker{
		Configs:    channels,
		Clients:    whatsapp.NewClients(cfg.WhatsApp.APIBase, cfg.WhatsApp.APIVersion, cfg.WhatsApp.Dialog360Base, cfg.WhatsApp.SendRPS, nil),
		Gateway:    &channel.Gateway{Agents: agents},
		Converters: converters,
		Receipts:   receipts,
	}
	sched := channel.NewWatermillScheduler(log.Logger)
	if err := sched.Run(ctx, map[channel.ChannelType]channel.TaskHandler{
		channel.WhatsApp: worker.Handle,
	}); err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sched.Close(cctx); err != nil {
			log.Warn().Err(err).Msg("channel workers did not drain")
		}
	}()

	// HTTP
	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.BasePath = strings.TrimSuffix(cfg.APIBasePath, "/")
	docs.SwaggerInfo.Version = buildVersion()

	h := handlers.New(data, channels, &whatsapp.Dispatcher{Configs: channels, Scheduler: sched}, idem)
	h.MaxWebhookBody = cfg.WhatsApp.MaxBodyBytes

	r := gin.New()
	httpapi.RegisterRoutes(r, h, idem, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", buildVersion()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error { return purgeEvery(gctx, purgeInterval, "idempotency", idem.Purge) })
	g.Go(func() error { return purgeEvery(gctx, purgeInterval, "delivery_receipts", receipts.Purge) })

	return g.Wait()
}

// purgeEvery runs purge on every tick until ctx is done. Failures are logged
// and retried on the next tick.
func purgeEvery(ctx context.Context, every time.Duration, name string, purge func(context.Context) (int64, error)) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := purge(ctx)
			if err != nil {
				log.Warn().Err(err).Str("table", name).Msg("purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Str("table", name).Msg("purged expired rows")
			}
		}
	}
}
