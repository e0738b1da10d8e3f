package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"harmonia/api/internal/cache"
	"harmonia/api/internal/config"
	"harmonia/api/internal/database"
	"harmonia/api/internal/handlers"
	"harmonia/api/internal/jobs"
	"harmonia/api/internal/log"
	"harmonia/api/internal/mail"
	"harmonia/api/internal/middleware"
	"harmonia/api/internal/repository"
	"harmonia/api/internal/security"
	"harmonia/api/internal/server"
	"harmonia/api/internal/service"
	"harmonia/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel, "api")

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.Migrate(ctx, dbPool, logger); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, "harmonia-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	tokens, err := security.NewTokenService(cfg.Security.JWTSecret, cfg.Security.JWTTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("token service")
	}
	hasher := security.NewPasswordHasher(cfg.Security.BcryptCost, cfg.Security.HashConcurrency)

	users := repository.NewUserRepository(dbPool)
	audit := service.NewSecurityLogService(repository.NewSecurityLogRepository(dbPool), logger)
	resets := service.NewResetTokenService(users, hasher, cfg.Security.ResetTokenTTL)
	outbox := mail.NewOutbox(redisClient, cfg.Mail.Stream)
	media := service.NewMediaService(objectStore, logger)

	userService := service.NewUserService(users, audit, logger)
	if err := userService.EnsureAdmin(ctx, cfg.Security.BootstrapAdmin); err != nil {
		logger.Error().Err(err).Msg("bootstrap admin failed")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg.Environment, handlers.Services{
		Auth:         service.NewAuthService(users, hasher, tokens, resets, outbox, audit, cfg.Mail.FrontendURL, logger),
		Users:        userService,
		Catalog:      service.NewCatalogService(repository.NewCategoryRepository(dbPool), repository.NewInstrumentRepository(dbPool), media, logger),
		Feedback:     service.NewFeedbackService(repository.NewFeedbackRepository(dbPool)),
		SecurityLogs: audit,
		Tokens:       tokens,
		LoginLimiter: middleware.NewRedisLimiter(redisClient, "login", cfg.Security.LoginRateLimit, cfg.Security.LoginRateWindow),
		HealthChecks: map[string]func(context.Context) error{
			"postgres": dbPool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(users, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
