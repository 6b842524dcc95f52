// Package repo implements the data persistence layer for bot records,
// backed by GORM. This file provides the generic functions shared by every
// bot-scoped collection (training examples, synonyms, lookup entries, regex
// features, intents, entities, forms, actions, responses, slots, stories).
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition.
//
// Reads are always scoped to (bot, status=active) and ordered by id; ids are
// time-ordered so results follow insertion order.
package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-bot-backend/internal/domain"
)

// batchSize bounds the rows sent per INSERT statement.
const batchSize = 200

// InsertBatch inserts rows in a single transaction. An empty batch is a
// no-op. Either every row of the batch is written or none is.
func InsertBatch[T any](ctx context.Context, db *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return duplicate(tx.CreateInBatches(&rows, batchSize).Error)
	})
}

// Insert writes one row and maps unique violations to ErrDuplicate.
func Insert[T any](ctx context.Context, db *gorm.DB, row *T) error {
	return duplicate(db.WithContext(ctx).Create(row).Error)
}

// ListActive returns the active rows of a bot in insertion order.
func ListActive[T any](ctx context.Context, db *gorm.DB, bot string) ([]T, error) {
	var out []T
	err := db.WithContext(ctx).
		Where("bot = ? AND status = ?", bot, domain.StatusActive).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// ListActiveWhere is ListActive with one extra equality filter on field.
func ListActiveWhere[T any](ctx context.Context, db *gorm.DB, bot, field, value string) ([]T, error) {
	col, err := column(field)
	if err != nil {
		return nil, err
	}
	var out []T
	err = db.WithContext(ctx).
		Where("bot = ? AND status = ?", bot, domain.StatusActive).
		Where(col+" = ?", value).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// FirstActive returns the single active row of a bot, for collections that
// hold at most one (configs, session configs), or ErrNotFound.
func FirstActive[T any](ctx context.Context, db *gorm.DB, bot string) (*T, error) {
	var out T
	err := db.WithContext(ctx).
		Where("bot = ? AND status = ?", bot, domain.StatusActive).
		Take(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// searchable lists the columns existence checks and filters may target.
var searchable = map[string]string{
	"name":    "name",
	"text":    "text",
	"intent":  "intent",
	"synonym": "synonym",
}

func column(field string) (string, error) {
	col, ok := searchable[field]
	if !ok {
		return "", fmt.Errorf("repo: unsupported filter field %q", field)
	}
	return col, nil
}

// ExistsActive reports whether the bot has an active row in model's table
// whose field equals value.
func ExistsActive(ctx context.Context, db *gorm.DB, model any, bot, field, value string) (bool, error) {
	col, err := column(field)
	if err != nil {
		return false, err
	}
	var n int64
	err = db.WithContext(ctx).Model(model).
		Where("bot = ? AND status = ?", bot, domain.StatusActive).
		Where(col+" = ?", value).
		Count(&n).Error
	return n > 0, err
}

// ActiveNames returns the set of active names in model's table for a bot.
func ActiveNames(ctx context.Context, db *gorm.DB, model any, bot string) (map[string]struct{}, error) {
	var names []string
	err := db.WithContext(ctx).Model(model).
		Where("bot = ? AND status = ?", bot, domain.StatusActive).
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set, nil
}

// SoftDelete marks the row with id inactive. It returns ErrNotFound when no
// row with that id belongs to bot. Removing an already inactive row succeeds.
func SoftDelete(ctx context.Context, db *gorm.DB, model any, bot, id string) error {
	res := db.WithContext(ctx).Model(model).
		Where("id = ? AND bot = ?", id, bot).
		Update("status", domain.StatusInactive)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
