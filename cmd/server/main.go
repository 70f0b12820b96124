// Command server runs the podcast catalog API.
//
// Configuration comes from the environment (and an optional .env file); see
// internal/config for the variables. JWT_SECRET is the only required one:
//
//	JWT_SECRET=$(openssl rand -hex 32) go run ./cmd/server
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/config"
	"github.com/sakif/podcast-api/internal/logger"
	"github.com/sakif/podcast-api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatal("failed to create server", zap.Error(err))
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
