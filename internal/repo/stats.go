// Package repo implements the data persistence layer for bot records,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) on the export endpoints.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-bot-backend/internal/domain"
)

// CollectionStats returns the number of active rows a bot has in model's
// table and the newest row timestamp, or nil when there are none.
func CollectionStats(ctx context.Context, db *gorm.DB, model any, bot string) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(model).Where("bot = ? AND status = ?", bot, domain.StatusActive)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest timestamp (avoid MAX() -> TEXT in SQLite)
	var row struct {
		Timestamp time.Time
	}
	if err = q.Select("timestamp").Order("timestamp DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.Timestamp, nil
}
