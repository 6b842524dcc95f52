package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-bot-backend/internal/domain"
	"github.com/tbourn/go-bot-backend/internal/repo"
)

// IdempotencyService remembers which resource a keyed data API request
// created, so a retried request can be answered with the same resource.
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration
}

// Lookup returns the live record of (user, bot, key), or nil when there is
// none. Lookup failures are logged and reported as a miss.
func (s *IdempotencyService) Lookup(ctx context.Context, userID, bot, key string) *domain.Idempotency {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, bot, key, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("bot", bot).Msg("idempotency lookup failed")
		}
		return nil
	}
	return rec
}

// Record stores the outcome of a keyed request. A concurrent retry that
// recorded first wins; storage failures are logged since the request itself
// already succeeded.
func (s *IdempotencyService) Record(ctx context.Context, userID, bot, key string, collection domain.Collection, resourceID string, status int) {
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, bot, key, collection, resourceID, status, s.TTL)
	if err != nil && !errors.Is(err, repo.ErrDuplicate) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("bot", bot).Msg("idempotency record failed")
	}
}

// Purge removes expired records.
func (s *IdempotencyService) Purge(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, s.DB, time.Now().UTC())
}
