// bingomigrate brings the board store at BINGO_DB_PATH up to the latest
// schema.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/bingofutures/pkg/config"
	"github.com/domino14/bingofutures/pkg/marketapi"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load-config")
	}
	if err := cfg.ApplyLogLevel(); err != nil {
		log.Fatal().Err(err).Msg("log-level")
	}
	if err := marketapi.EnsureMigrations(cfg.DBPath); err != nil {
		log.Fatal().Err(err).Str("dbPath", cfg.DBPath).Msg("migrate")
	}
	log.Info().Str("dbPath", cfg.DBPath).Msg("migrations-up-to-date")
}
