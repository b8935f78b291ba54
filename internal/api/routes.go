package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/conversions-relay/internal/config"
	"github.com/jonesrussell/conversions-relay/internal/handler"
	"github.com/jonesrussell/conversions-relay/internal/middleware"
	"github.com/jonesrussell/conversions-relay/internal/telemetry"
)

// SetupRoutes configures all API routes.
func SetupRoutes(
	router *gin.Engine,
	conversionsHandler *handler.ConversionsHandler,
	healthHandler *handler.HealthHandler,
	cfg *config.Config,
	done <-chan struct{},
) {
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/metrics", gin.WrapH(telemetry.Handler()))

	rateLimitWindow := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second

	// Conversion relay with bot filter and per-IP rate limiting
	conversions := router.Group("/api")
	conversions.Use(middleware.BotFilter())
	conversions.Use(middleware.RateLimiter(cfg.RateLimit.MaxEventsPerMinute, rateLimitWindow, done))
	conversions.POST("/conversions", conversionsHandler.HandleTrack)
}
