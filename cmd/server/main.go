package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"jobboard-gateway/internal/api/routes"
	"jobboard-gateway/internal/app"
	"jobboard-gateway/internal/auth"
	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/githubapi"
	"jobboard-gateway/internal/logging"
	"jobboard-gateway/internal/mux"
)

var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize logger
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger := logging.GetGlobalLogger()
	logger.Info("Starting job board gateway", map[string]interface{}{"version": version})

	ctx := context.Background()

	// Store backend, enrichment and health probes
	a, err := app.Build(ctx, cfg, logger, app.Options{Version: version})
	if err != nil {
		logger.Fatal("Failed to initialize application", map[string]interface{}{"error": err.Error()})
	}

	tokens, err := auth.NewTokenIssuerFromConfig(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize token issuer", map[string]interface{}{"error": err.Error()})
	}

	github, err := githubapi.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize GitHub client", map[string]interface{}{"error": err.Error()})
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup routes
	routes.SetupRoutes(e, routes.Dependencies{
		Config:   cfg,
		Logger:   logger,
		Store:    a.Store,
		Enricher: a.Enricher,
		OAuth:    auth.NewOAuthExchanger(cfg),
		GitHub:   github,
		Tokens:   tokens,
		Health:   a.Health,
	})

	// HTTP and gRPC share one port
	multiplexer := mux.NewMultiplexer(cfg, a.Health, e, logger)
	if err := multiplexer.Start(cfg.Address()); err != nil {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info("Shutting down server...", map[string]interface{}{"signal": sig.String()})

	if err := multiplexer.Stop(cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("Error stopping server", map[string]interface{}{"error": err.Error()})
	}

	a.Close()

	logger.Info("Server shutdown complete")
	if err := logging.CloseLogging(); err != nil {
		log.Printf("Error closing logger: %v", err)
	}
}
