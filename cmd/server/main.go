package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/zhakasov-bm/lms-backend/internal/cache"
	"github.com/zhakasov-bm/lms-backend/internal/config"
	"github.com/zhakasov-bm/lms-backend/internal/database"
	"github.com/zhakasov-bm/lms-backend/internal/handler"
	"github.com/zhakasov-bm/lms-backend/internal/logger"
	"github.com/zhakasov-bm/lms-backend/internal/middleware"
	"github.com/zhakasov-bm/lms-backend/internal/repository"
	"github.com/zhakasov-bm/lms-backend/internal/router"
	"github.com/zhakasov-bm/lms-backend/internal/service"
	"github.com/zhakasov-bm/lms-backend/internal/validator"
	"github.com/zhakasov-bm/lms-backend/migrations"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Str("log_level", cfg.LogLevel).
		Msg("Starting LMS quiz backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Initialize Store ──────────────────────────────────────────────
	var store repository.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn().Ints64("modules", cfg.MemoryModuleIDs).Msg("Using in-memory store, data is lost on restart")
		store = repository.NewMemoryStore(cfg.MemoryModuleIDs...)
	case config.StoreDriverPostgres:
		if cfg.AutoMigrate {
			if err := database.MigrateUp(migrations.FS, cfg.DatabaseURL, log); err != nil {
				log.Fatal().Err(err).Msg("Failed to apply migrations")
			}
		}
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		store = repository.NewPostgresStore(pool)
	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("Unknown STORE_DRIVER")
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	// Redis is optional: without it the learner view is served uncached
	// and the monitor feed is not exposed.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	var (
		viewCache service.QuizViewCache
		events    service.AttemptPublisher
		feed      *cache.AttemptFeed
	)
	if rdb != nil {
		defer rdb.Close()
		viewCache = cache.NewQuizViewCache(rdb, cfg.QuizCacheTTL)
		feed = cache.NewAttemptFeed(rdb)
		events = feed
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry)
	orderingService := service.NewOrderingService(store, viewCache, log)
	quizService := service.NewQuizService(store, orderingService, viewCache, log)
	attemptService := service.NewAttemptService(store, events, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Quiz:    handler.NewQuizHandler(quizService, orderingService, log),
		Attempt: handler.NewAttemptHandler(attemptService, quizService, log),
	}
	if feed != nil {
		handlers.Monitor = handler.NewMonitorHandler(feed, attemptService, log, cfg.AllowedOrigins)
	}

	attemptLimiter := middleware.NewRateLimiter(cfg.AttemptRateLimit, time.Minute)
	defer attemptLimiter.Stop()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, attemptLimiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
