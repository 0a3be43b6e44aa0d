package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "thread-service/docs"
	"thread-service/internal/client"
	"thread-service/internal/config"
	"thread-service/internal/database"
	"thread-service/internal/handler"
	"thread-service/internal/job"
	"thread-service/internal/metrics"
	"thread-service/internal/middleware"
	"thread-service/internal/realtime"
	"thread-service/internal/repository"
	"thread-service/internal/router"
	"thread-service/internal/service"
)

// @title Thread Service API
// @version 1.0
// @description Threaded comments with realtime fan-out.
// @BasePath /api/threads
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	db, err := database.Connect(cfg, logger, 12)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	database.SetDB(db)

	m := metrics.New()
	repo := repository.NewCommentRepository(db)
	contentClient := client.NewContentClient(cfg.Services.ContentServiceURL, logger)

	hub := realtime.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var broadcaster realtime.Broadcaster
	if cfg.Redis.URL != "" {
		redisClient, err := database.NewRedis(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		broadcaster = realtime.NewRedisBroadcaster(redisClient, logger, m.EventsPublished)
		go hub.Run(ctx, redisClient)
	} else {
		logger.Warn("no redis configured, running single-instance fan-out")
		broadcaster = realtime.NewLocalBroadcaster(hub)
	}

	threads := service.NewThreadService(repo, contentClient, broadcaster, logger,
		cfg.Thread.PageSize, cfg.Thread.MaxContentLength)

	jwtValidator := middleware.NewJWTValidator(cfg.Auth.SecretKey)
	var validator middleware.TokenValidator = jwtValidator
	if cfg.Auth.ServiceURL != "" {
		validator = middleware.NewAuthServiceValidator(cfg.Auth.ServiceURL, jwtValidator, logger)
	}

	commentHandler := handler.NewCommentHandler(threads, m, logger)
	healthHandler := handler.NewHealthHandler()
	wsHandler := realtime.NewWSHandler(hub, threads, validator, m, logger)

	cleanup := job.NewCleanupJob(repo, logger, cfg.Thread.CleanupSchedule, cfg.Thread.RetentionDays)
	if err := cleanup.Start(); err != nil {
		logger.Fatal("failed to start cleanup job", zap.Error(err))
	}
	defer cleanup.Stop()

	r := router.Setup(cfg, commentHandler, healthHandler, wsHandler, validator, m, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Server.LogLevel); err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if !cfg.IsProduction() {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
