package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"notion2mf/cmd"
	"notion2mf/internal/config"
	"notion2mf/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		if setupErr := logger.Setup(logger.DefaultConfig()); setupErr != nil {
			log.Fatalf("Failed to initialize logger: %v", setupErr)
		}
		l := logger.WithComponent("main")
		l.Fatal().Err(err).Msg("Invalid configuration")
	}

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.WithComponent("main")
	log.Debug().Str("version", cmd.Version()).Msg("Starting notion2mf")

	cmd.Execute(cfg)
}
