package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pageza/recipe-recommender/backend/config"
	"github.com/pageza/recipe-recommender/backend/internal/database"
	"github.com/pageza/recipe-recommender/backend/internal/logging"
	"github.com/pageza/recipe-recommender/backend/internal/middleware"
	"github.com/pageza/recipe-recommender/backend/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)

	if cfg.DBDriver == config.DriverSQLite {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate sqlite database")
		}
	}

	var limiter middleware.Limiter
	if cfg.RateLimitEnabled {
		limiter = newLimiter(ctx, cfg)
	}

	srv := server.New(cfg, db, limiter)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
	log.Info().Msg("Server stopped")
}

// newLimiter shares counters through redis when it is configured and
// reachable, and falls back to per-process buckets otherwise
func newLimiter(ctx context.Context, cfg *config.Config) middleware.Limiter {
	limitCfg := middleware.RateLimitConfig{
		Window:    cfg.RateLimitWindow,
		Limit:     cfg.RateLimitRequests,
		KeyPrefix: "rate_limit:api",
	}

	if cfg.RedisConfigured() {
		client, err := database.NewRedisClient(ctx, cfg)
		if err == nil {
			return middleware.NewRedisLimiter(client, limitCfg)
		}
		log.Warn().Err(err).Msg("Redis unavailable, rate limiting per process")
	}
	return middleware.NewLocalLimiter(limitCfg)
}
