// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate [-config config.yml] up|down
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/database"
	"github.com/iliyamo/theatre-booking/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yml", "optional YAML config file")
	flag.Parse()

	dir := database.Up
	if flag.NArg() > 0 {
		dir = database.Direction(flag.Arg(0))
	}
	if dir != database.Up && dir != database.Down {
		fmt.Fprintf(os.Stderr, "usage: migrate [-config file] up|down\n")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log)

	if err := database.Migrate(cfg.DB, dir); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	logger.Info().Str("direction", string(dir)).Str("db", cfg.DB.Name).Msg("migrations applied")
}
