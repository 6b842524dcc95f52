package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-bot-backend/internal/repo"
)

// DeliveryReceipts de-duplicates inbound channel messages by provider
// message id.
type DeliveryReceipts struct {
	DB  *gorm.DB
	TTL time.Duration
}

// Claim reports whether messageID is seen for the first time within TTL.
func (r *DeliveryReceipts) Claim(ctx context.Context, bot, channel, messageID string) (bool, error) {
	return repo.ClaimDelivery(ctx, r.DB, bot, channel, messageID, r.TTL)
}

// Purge removes expired receipts.
func (r *DeliveryReceipts) Purge(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredReceipts(ctx, r.DB, time.Now().UTC())
}
