// Command maintenance runs the periodic housekeeping jobs once and exits.
// Schedule it from cron.
package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yukikurage/party-planner-api/internal/config"
	"github.com/yukikurage/party-planner-api/internal/database"
	"github.com/yukikurage/party-planner-api/internal/logging"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/services"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := database.Connect(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	repos := repository.New(database.GetDB())
	settings := services.SettingsFromConfig(cfg)

	events := services.NewEventService(repos, settings, logging.Component("events"))
	archived, err := events.ArchivePastEvents(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("archiving past events failed")
	}

	auth := services.NewAuthService(repos, nil, nil, settings, logging.Component("auth"))
	deleted, err := auth.CleanupExpired()
	if err != nil {
		log.Error().Err(err).Msg("auth token cleanup failed")
	}

	log.Info().
		Int("archived_events", archived).
		Int64("deleted_tokens", deleted).
		Msg("maintenance finished")
}
