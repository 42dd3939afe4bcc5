// @title						Seat Engine API
// @version					1.0
// @description				Seat inventory, holds, pricing and booking finalization.
// @BasePath					/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seatengine/api/routes"
	"seatengine/internal/holds"
	"seatengine/internal/seatevents"
	"seatengine/internal/shared/config"
	"seatengine/internal/shared/database"
	"seatengine/internal/shared/middleware"
	"seatengine/pkg/logger"
	"seatengine/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// Handler choice follows gin mode
	logger.SetDefault(logger.New())
	appLogger = logger.GetDefault()

	db, err := database.InitDB(cfg, routes.Models()...)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	publisher := initPublisher(cfg, appLogger)
	defer func() {
		if err := publisher.Close(); err != nil {
			appLogger.Error("Error closing event publisher", slog.Any("error", err))
		}
	}()

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedis(), ratelimit.ConfigFrom(cfg.RateLimit))
		appLogger.Info("Rate limiter initialized",
			slog.Bool("enabled", cfg.RateLimit.Enabled),
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	appRouter := routes.NewRouter(cfg, db, publisher)

	// Hold expiry sweeper, elected through Redis when more than one instance runs
	var sweepLock holds.SweepLock
	if db.Redis != nil {
		redisLock := holds.NewRedisSweepLock(db.Redis, cfg.Holds.SweepLockTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := redisLock.PreloadScripts(ctx); err != nil {
			// scripts load on first use
			appLogger.Error("Failed to preload Redis Lua scripts", slog.Any("error", err))
		}
		cancel()
		sweepLock = redisLock
	}

	jobCtx, jobCancel := context.WithCancel(context.Background())
	sweeper := holds.NewJobProcessor(appRouter.Engine().Holds, sweepLock, &holds.JobConfig{
		SweepInterval: cfg.Holds.SweepInterval,
	})
	sweeper.Start(jobCtx)

	router := setupRouter(cfg, appRouter, rateLimiter)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", Version),
			slog.String("build_time", BuildTime),
			slog.String("commit", GitCommit),
			slog.String("storage", cfg.Storage.Driver),
			slog.Bool("redis", db.Redis != nil),
			slog.Bool("kafka", cfg.Kafka.Enabled),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	jobCancel()
	sweeper.Stop()

	appLogger.Info("Server exited gracefully")
}

// initPublisher connects to Kafka when enabled. Seat events are best effort,
// so a broker failure at startup falls back to dropping them.
func initPublisher(cfg *config.Config, appLogger *logger.Logger) seatevents.Publisher {
	if !cfg.Kafka.Enabled {
		appLogger.Info("Kafka disabled, seat events will not be published")
		return seatevents.NoopPublisher{}
	}

	producerConfig := seatevents.DefaultProducerConfig()
	producerConfig.Brokers = cfg.Kafka.Brokers
	producerConfig.ClientID = cfg.Kafka.ClientID
	producerConfig.SeatEventsTopic = cfg.Kafka.SeatEventsTopic
	producerConfig.BookingEventsTopic = cfg.Kafka.BookingEventsTopic

	publisher, err := seatevents.NewKafkaPublisher(producerConfig)
	if err != nil {
		appLogger.Error("Failed to initialize Kafka publisher", slog.Any("error", err))
		return seatevents.NoopPublisher{}
	}

	appLogger.Info("Kafka publisher initialized", slog.Any("brokers", cfg.Kafka.Brokers))
	return publisher
}

func setupRouter(cfg *config.Config, appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.RequestLogger(), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: !cfg.IsProduction(),
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	appRouter.SetupRoutes(engine)

	return engine
}
