// Package services – BotDataService
//
// This file implements BotDataService, the component that maps a bot's
// normalized records to the denormalized training data, domain, stories and
// config consumed by the training engine, and back. It also owns the
// single-item editing operations of the data API (add, list, remove).
//
// Each save validates every record of a collection before writing it and
// writes the collection in one transaction. Collections are written one
// after another without an enclosing transaction: a failure in a later
// collection leaves the earlier ones in place.
//
// Existence checks and inserts are not serialized per bot; two concurrent
// adds of the same name may both pass the check.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// carry the bot identifier.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/repo"
	"github.com/tbourn/go-bot-backend/internal/training"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BotDataService persists and reconstructs per-bot training data.
type BotDataService struct {
	DB *gorm.DB

	// DefaultConfig is returned by LoadConfig for bots without a stored
	// config.
	DefaultConfig training.Config

	// SearchTopK caps search results when the caller passes k <= 0.
	SearchTopK int

	// Now stamps reconstructed story events; time.Now when nil.
	Now func() time.Time
}

func (s *BotDataService) start(ctx context.Context, op, bot string) (context.Context, trace.Span) {
	return otel.Tracer("services/BotDataService").Start(ctx, op,
		trace.WithAttributes(attribute.String("bot.id", bot)),
	)
}

func (s *BotDataService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// fail records err on the span and maps it for callers: validation and
// already-exists errors pass through, anything else is logged and replaced
// by ErrInternal.
func fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)

	var ve *domain.ValidationError
	if errors.As(err, &ve) || errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUnknownCollection) {
		return err
	}
	if errors.Is(err, ErrDocumentNotFound) {
		zerolog.Ctx(ctx).Info().Err(err).Str("op", op).Msg("document not found")
		return err
	}
	zerolog.Ctx(ctx).Error().Err(err).Str("op", op).Msg("storage failure")
	return ErrInternal
}

func owner(bot, user string) domain.Record {
	return domain.Record{Bot: bot, User: user}
}

// validator is satisfied by every record type.
type validator interface{ Validate() error }

func validateAll[T any, PT interface {
	*T
	validator
}](rows []T) error {
	for i := range rows {
		if err := PT(&rows[i]).Validate(); err != nil {
			return err
		}
	}
	return nil
}

// newNames returns names, in order and without repeats, that do not already
// exist as active records in model's table.
func (s *BotDataService) newNames(ctx context.Context, model any, bot string, names []string) ([]string, error) {
	existing, err := repo.ActiveNames(ctx, s.DB, model, bot)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := existing[n]; dup {
			continue
		}
		existing[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// singleActive returns exists when the bot already holds an active row of T,
// for collections limited to one per bot. Like the add operations, the check
// is not atomic with the insert that follows.
func singleActive[T any](ctx context.Context, s *BotDataService, bot string, exists error) error {
	_, err := repo.FirstActive[T](ctx, s.DB, bot)
	switch {
	case err == nil:
		return exists
	case errors.Is(err, repo.ErrNotFound):
		return nil
	default:
		return err
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
