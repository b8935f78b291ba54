package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/conversions-relay/internal/api"
	"github.com/jonesrussell/conversions-relay/internal/capi"
	"github.com/jonesrussell/conversions-relay/internal/config"
	"github.com/jonesrussell/conversions-relay/internal/handler"
	"github.com/jonesrussell/conversions-relay/internal/logger"
	"github.com/jonesrussell/conversions-relay/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger
	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	// A half-configured relay still serves traffic; every relay request
	// answers with a configuration error until both credentials arrive.
	if cfg.Meta.PixelID == "" || cfg.Meta.AccessToken == "" {
		log.Warn("Meta pixel credentials not configured, relay requests will be rejected")
	}

	return runServer(cfg, log)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	configPath := config.GetConfigPath("config.yml")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// runServer creates all dependencies and starts the HTTP server.
func runServer(cfg *config.Config, log logger.Logger) int {
	metrics := telemetry.New(prometheus.DefaultRegisterer)

	relay := capi.New(cfg.Meta.PixelID, cfg.Meta.AccessToken,
		capi.WithAPIVersion(cfg.Meta.APIVersion),
		capi.WithDefaultCountry(cfg.Meta.DefaultCountry),
		capi.WithHTTPClient(&http.Client{Timeout: cfg.Meta.UpstreamTimeout}),
		capi.WithLogger(log),
		capi.WithMetrics(metrics),
	)

	conversionsHandler := handler.NewConversionsHandler(relay, log, metrics)
	healthHandler := handler.NewHealthHandler(cfg.Service.Name, cfg.Service.Version)

	// done signals background goroutines (rate limiter) on shutdown
	done := make(chan struct{})
	defer close(done)

	server := api.NewServer(cfg, log, func(router *gin.Engine) {
		api.SetupRoutes(router, conversionsHandler, healthHandler, cfg, done)
	})

	log.Info("Conversions relay starting",
		logger.Int("port", cfg.Service.Port),
		logger.String("api_version", cfg.Meta.APIVersion),
	)

	if err := server.Run(); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Conversions relay exited cleanly")
	return 0
}
