package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"imvu-insight-api/internal/blob"
	"imvu-insight-api/internal/config"
	"imvu-insight-api/internal/handler"
	"imvu-insight-api/internal/middleware"
	"imvu-insight-api/internal/repository"
	"imvu-insight-api/internal/router"
	"imvu-insight-api/internal/service"
)

func main() {
	cfg := config.MustLoad()

	logger := newLogger(cfg)
	defer logger.Sync()
	logger.Info("starting imvu-insight-api",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version))

	// Relational store (sqlite or mysql); schema is ensured at startup.
	store, err := repository.NewStore(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("database initialized", zap.String("driver", cfg.Database.Driver))

	// Blob store for raw snapshot uploads.
	blobs, err := blob.NewStore(cfg.Uploads.Dir)
	if err != nil {
		logger.Fatal("failed to initialize upload store", zap.Error(err))
	}

	// Redis is optional: without it the hash-existence cache is skipped.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, hash cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		logger.Info("redis client initialized")
	}
	cancelPing()

	// Services
	tokenService := service.NewTokenService(cfg.Auth)
	authService := service.NewAuthService(store, tokenService, logger)
	dataSyncService := service.NewDataSyncService(store, blobs, redisClient, cfg.Cache.HashTTL, logger)
	queryService := service.NewQueryService(store)

	// Handlers
	healthHandler := handler.NewHealthHandler(store, cfg.App.Version)
	authHandler := handler.NewAuthHandler(authService)
	dataSyncHandler := handler.NewDataSyncHandler(dataSyncService)
	queryHandler := handler.NewQueryHandler(queryService)

	r := router.New(router.Config{
		HealthHandler:   healthHandler,
		AuthHandler:     authHandler,
		DataSyncHandler: dataSyncHandler,
		QueryHandler:    queryHandler,
		AuthMiddleware:  middleware.NewAuth(tokenService),
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *zap.Logger {
	if cfg.App.IsProduction() {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
