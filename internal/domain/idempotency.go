package domain

import "time"

// Idempotency represents a recorded result of a previously processed request,
// keyed by (user_id, bot, key). It enables safe retries of the data API POST
// endpoints by returning the originally created resource without re-running
// the existence checks that would otherwise reject the retry as a conflict.
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_bot_key,priority:1"`
	Bot        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_bot_key,priority:2"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_bot_key,priority:3"`
	Collection string    `gorm:"type:TEXT NOT NULL"`
	ResourceID string    `gorm:"type:TEXT NOT NULL"`
	Status     int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
