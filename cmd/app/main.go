package main

import (
	"slotbook/config"
	"slotbook/di"
	"slotbook/shared/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	app := di.InitializeApp()

	if err := app.Retention.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start retention job")
	}
	defer app.Retention.Stop()

	app.HTTP.Serve()
}
