// Package main serves the conservation news feed over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"blueduck/internal/aggregator"
	"blueduck/internal/config"
	"blueduck/internal/logger"
	"blueduck/internal/server"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (default configs/conservation.yaml if present)")
	envFile := flag.String("env", ".env", "Path to .env file with API keys")
	addr := flag.String("addr", "", "Listen address (overrides config)")

	flag.Parse()

	if err := config.LoadEnv(*envFile); err != nil {
		log.Fatalf("Failed to load env: %v", err)
	}

	cfg, from, err := config.LoadOrDefault(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	appLogger := logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	appLogger.Info("configuration loaded", "from", from, "config", cfg.String())

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	creds := config.CredentialsFromEnv()
	if creds.RegulationsAPIKey == "" {
		appLogger.Warn("Regulations.gov disabled", "missing", config.EnvRegulationsAPIKey)
	}

	if creds.OpenStatesAPIKey == "" {
		appLogger.Warn("OpenStates disabled", "missing", config.EnvOpenStatesAPIKey)
	}

	agg := aggregator.New(cfg, appLogger)
	srv := server.New(agg, aggregator.OptionsFromCredentials(creds), cfg.Server, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
