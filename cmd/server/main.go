package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"video-resolver/internal/config"
	"video-resolver/internal/server"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	configManager := config.NewManager()
	cfg, err := configManager.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}

	srv := server.NewServer(cfg)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
}
