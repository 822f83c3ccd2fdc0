package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/networth/internal/adapter/http"
	"github.com/iho/networth/internal/adapter/http/handler"
	postgresRepo "github.com/iho/networth/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/networth/internal/adapter/repository/redis"
	"github.com/iho/networth/internal/infrastructure/auth"
	"github.com/iho/networth/internal/infrastructure/config"
	"github.com/iho/networth/internal/infrastructure/logger"
	"github.com/iho/networth/internal/infrastructure/metrics"
	"github.com/iho/networth/internal/infrastructure/postgres"
	"github.com/iho/networth/internal/infrastructure/redis"
	"github.com/iho/networth/internal/ledger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns, cfg.ConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize dependencies
	m := metrics.New()
	idGen := ledger.NewULIDGenerator()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration, idGen.Generate)

	userRepo := postgresRepo.NewUserRepository(pool)
	backupRepo := postgresRepo.NewBackupRepository(pool)
	denylist := redisRepo.NewTokenDenylist(redisClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userRepo, jwtManager, denylist, idGen, m)
	backupHandler := handler.NewBackupHandler(backupRepo, cfg.MaxBackupBytes, m)
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"postgres": pool,
		"redis":    redisPinger{redisClient},
	})

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:   authHandler,
		BackupHandler: backupHandler,
		HealthHandler: healthHandler,
		JWTManager:    jwtManager,
		Denylist:      denylist,
		Metrics:       m,
		Logger:        log.Logger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// redisPinger adapts the redis client's status-command ping to the
// handler's Pinger interface.
type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
