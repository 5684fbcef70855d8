package main

import (
	"flag"
	"fmt"
	"os"

	pg "neighborguard/internal/adapters/storage/postgres"
	"neighborguard/internal/config"
)

func main() {
	direction := flag.String("direction", "up", "up | down")
	steps := flag.Int("steps", 1, "pasos a revertir con -direction down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg, cfg.AppName+"-migrate")

	switch *direction {
	case "up":
		err = pg.MigrateUp(cfg.DatabaseURL)
	case "down":
		err = pg.MigrateDown(cfg.DatabaseURL, *steps)
	default:
		log.Fatal().Str("direction", *direction).Msg("direction must be up or down")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	log.Info().Str("direction", *direction).Msg("migrations done")
}
