// Command botd runs the multi-tenant bot backend: the WhatsApp webhooks,
// the training data API and the background channel workers.
//
//	botd serve                                  # HTTP server and workers
//	botd import ./my-bot --bot b1 --user alice  # load a project directory
//
// Configuration comes from the environment; a .env file is loaded first
// when present.
package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-bot-backend/internal/config"
	"github.com/tbourn/go-bot-backend/internal/repo"
	"github.com/tbourn/go-bot-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("botd failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "botd",
		Short:         "Multi-tenant bot backend",
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newServeCommand(), newImportCommand())
	return root
}

func buildVersion() string {
	return sysutil.FirstNonEmpty(os.Getenv("BOTD_VERSION"), version)
}

// loadEnv applies path without overriding variables already set. A missing
// file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadConfig reads the configuration and installs the global logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	sysutil.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}

// openDB opens and migrates the store. Query tracing is added when OTEL is
// enabled.
func openDB(cfg config.Config) (*gorm.DB, error) {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
