package services

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/repo"
	"github.com/tbourn/go-bot-backend/internal/training"
)

// SaveConfig stores the pipeline config of a bot. Pipeline and policies are
// kept as opaque documents. A bot holds at most one active config; a
// removed one can be replaced.
func (s *BotDataService) SaveConfig(ctx context.Context, c training.Config, bot, user string) error {
	ctx, span := s.start(ctx, "SaveConfig", bot)
	defer span.End()

	row := &domain.Config{
		Bot:      bot,
		User:     user,
		Language: c.Language,
		Pipeline: datatypes.JSON(c.Pipeline),
		Policies: datatypes.JSON(c.Policies),
	}
	if err := row.Validate(); err != nil {
		return fail(ctx, span, "SaveConfig", err)
	}
	if err := singleActive[domain.Config](ctx, s, bot, ErrConfigExists); err != nil {
		return fail(ctx, span, "SaveConfig", err)
	}
	if err := repo.Insert(ctx, s.DB, row); err != nil {
		return fail(ctx, span, "SaveConfig", err)
	}
	return nil
}

// LoadConfig returns the language, pipeline and policies of a bot, or the
// default config when none is stored.
func (s *BotDataService) LoadConfig(ctx context.Context, bot string) (training.Config, error) {
	ctx, span := s.start(ctx, "LoadConfig", bot)
	defer span.End()

	row, err := repo.FirstActive[domain.Config](ctx, s.DB, bot)
	if errors.Is(err, repo.ErrNotFound) {
		return s.DefaultConfig, nil
	}
	if err != nil {
		return training.Config{}, fail(ctx, span, "LoadConfig", err)
	}
	return training.Config{
		Language: row.Language,
		Pipeline: json.RawMessage(row.Pipeline),
		Policies: json.RawMessage(row.Policies),
	}, nil
}
