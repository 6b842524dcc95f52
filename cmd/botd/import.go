package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-bot-backend/internal/http/middleware"
	"github.com/tbourn/go-bot-backend/internal/services"
)

func newImportCommand() *cobra.Command {
	var bot, user string
	cmd := &cobra.Command{
		Use:   "import <project-dir>",
		Short: "Import data/nlu.md, data/stories.md, domain.yml and config.yml into a bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB(db)

			data := &services.BotDataService{DB: db, SearchTopK: cfg.SearchTopK}
			ctx := log.Logger.WithContext(cmd.Context())
			if err := data.ImportProject(ctx, args[0], bot, user); err != nil {
				return err
			}
			log.Info().Str("bot", bot).Str("path", args[0]).Msg("project imported")
			return nil
		},
	}
	cmd.Flags().StringVar(&bot, "bot", "", "bot id (required)")
	cmd.Flags().StringVar(&user, "user", middleware.DefaultUserID, "user recorded as the creator")
	_ = cmd.MarkFlagRequired("bot")
	return cmd
}
