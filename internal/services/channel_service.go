package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ChannelRepo is the persistence used by ChannelService.
type ChannelRepo interface {
	// UpsertChannelConfig inserts or replaces the (bot, channel) credentials.
	UpsertChannelConfig(ctx context.Context, db *gorm.DB, cfg *domain.ChannelConfig) error

	// GetChannelConfig returns the credentials or repo.ErrNotFound.
	GetChannelConfig(ctx context.Context, db *gorm.DB, bot, channel string) (*domain.ChannelConfig, error)
}

type gormChannelRepo struct{}

func (gormChannelRepo) UpsertChannelConfig(ctx context.Context, db *gorm.DB, cfg *domain.ChannelConfig) error {
	return repo.UpsertChannelConfig(ctx, db, cfg)
}

func (gormChannelRepo) GetChannelConfig(ctx context.Context, db *gorm.DB, bot, channel string) (*domain.ChannelConfig, error) {
	return repo.GetChannelConfig(ctx, db, bot, channel)
}

// ChannelService manages per-bot channel credentials.
type ChannelService struct {
	DB   *gorm.DB
	Repo ChannelRepo
}

// NewChannelService wires a ChannelService; a nil repo uses the GORM one.
func NewChannelService(db *gorm.DB, r ChannelRepo) *ChannelService {
	if r == nil {
		r = gormChannelRepo{}
	}
	return &ChannelService{DB: db, Repo: r}
}

// Put validates and stores the credentials of cfg.Channel for cfg.Bot.
func (s *ChannelService) Put(ctx context.Context, cfg *domain.ChannelConfig) error {
	tr := otel.Tracer("services/ChannelService")
	ctx, span := tr.Start(ctx, "Put",
		trace.WithAttributes(
			attribute.String("bot.id", cfg.Bot),
			attribute.String("channel", cfg.Channel),
		),
	)
	defer span.End()

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = domain.ProviderMeta
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.Repo.UpsertChannelConfig(ctx, s.DB, cfg); err != nil {
		return fail(ctx, span, "ChannelService.Put", err)
	}
	return nil
}

// Get returns the credentials of a bot's channel or ErrChannelNotConfigured.
func (s *ChannelService) Get(ctx context.Context, bot, channel string) (*domain.ChannelConfig, error) {
	tr := otel.Tracer("services/ChannelService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("bot.id", bot),
			attribute.String("channel", channel),
		),
	)
	defer span.End()

	cfg, err := s.Repo.GetChannelConfig(ctx, s.DB, bot, channel)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrChannelNotConfigured
	}
	if err != nil {
		return nil, fail(ctx, span, "ChannelService.Get", err)
	}
	return cfg, nil
}
