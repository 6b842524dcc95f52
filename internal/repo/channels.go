// Package repo implements the data persistence layer for bot records,
// backed by GORM. This file stores per-bot channel credentials and the
// delivery receipts used to drop provider retries of the same message.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-bot-backend/internal/domain"
)

// UpsertChannelConfig inserts or replaces the (bot, channel) credentials.
func UpsertChannelConfig(ctx context.Context, db *gorm.DB, cfg *domain.ChannelConfig) error {
	now := time.Now().UTC()
	if cfg.ID == "" {
		cfg.ID = domain.NewID()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bot"}, {Name: "channel"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider", "verify_token", "app_secret", "access_token", "api_key", "user", "updated_at",
		}),
	}).Create(cfg).Error
}

// GetChannelConfig returns the credentials of a bot's channel or ErrNotFound.
func GetChannelConfig(ctx context.Context, db *gorm.DB, bot, channel string) (*domain.ChannelConfig, error) {
	var cfg domain.ChannelConfig
	err := db.WithContext(ctx).Where("bot = ? AND channel = ?", bot, channel).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ClaimDelivery records that messageID is being handled. It returns false
// when a live receipt already exists, meaning the message is a redelivery.
// An expired receipt is renewed and counts as a claim.
func ClaimDelivery(ctx context.Context, db *gorm.DB, bot, channel, messageID string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	rec := &domain.DeliveryReceipt{
		ID:        domain.NewID(),
		Bot:       bot,
		Channel:   channel,
		MessageID: messageID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	err := duplicate(db.WithContext(ctx).Create(rec).Error)
	if errors.Is(err, ErrDuplicate) {
		return takeOverExpired(ctx, db, rec)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// takeOverExpired renews a receipt whose TTL has passed but which the purge
// has not removed yet. Only one concurrent caller can win the update.
func takeOverExpired(ctx context.Context, db *gorm.DB, rec *domain.DeliveryReceipt) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.DeliveryReceipt{}).
		Where("bot = ? AND channel = ? AND message_id = ? AND expires_at <= ?",
			rec.Bot, rec.Channel, rec.MessageID, rec.CreatedAt).
		Updates(map[string]any{"created_at": rec.CreatedAt, "expires_at": rec.ExpiresAt})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// PurgeExpiredReceipts deletes receipts whose TTL has passed.
func PurgeExpiredReceipts(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.DeliveryReceipt{})
	return res.RowsAffected, res.Error
}
