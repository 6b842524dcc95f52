// Package repo implements the data persistence layer for bot records,
// backed by GORM on SQLite (pure Go driver). Functions take the *gorm.DB
// explicitly so services can pass a transaction instead.
package repo

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-bot-backend/internal/domain"
)

// Applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"busy_timeout(5000)",
}

func sqliteDSN(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// OpenSQLite opens (or creates) the database at path. The parent directory
// must exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	// sqlite reports a missing directory as "out of memory (14)" on some
	// platforms; stat it first for a readable error.
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// EnableTracing registers the OpenTelemetry plugin so every query emits a
// span under the caller's context.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// AutoMigrate creates or updates one table per record collection plus the
// channel and idempotency tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.AllModels()...)
}
