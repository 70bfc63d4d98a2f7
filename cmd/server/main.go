package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Deepakgauttam/twitter-clone/internal/auth"
	"github.com/Deepakgauttam/twitter-clone/internal/cache"
	"github.com/Deepakgauttam/twitter-clone/internal/config"
	"github.com/Deepakgauttam/twitter-clone/internal/database"
	"github.com/Deepakgauttam/twitter-clone/internal/handlers"
	"github.com/Deepakgauttam/twitter-clone/internal/identity"
	"github.com/Deepakgauttam/twitter-clone/internal/logger"
	"github.com/Deepakgauttam/twitter-clone/internal/metrics"
	"github.com/Deepakgauttam/twitter-clone/internal/notify"
	"github.com/Deepakgauttam/twitter-clone/internal/social"
	"github.com/Deepakgauttam/twitter-clone/internal/telemetry"
	"github.com/Deepakgauttam/twitter-clone/internal/timeline"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(cfg.DSN()); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	metrics.Initialize()

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "twitter-clone-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		logger.Log.Warn("Tracing disabled", zap.Error(err))
	}
	defer func() {
		if err := telemetry.Shutdown(tp); err != nil {
			logger.Log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	// Redis is optional; timelines fall back to database reads without it
	var redisClient *cache.RedisClient
	if cfg.RedisHost != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable, timeline cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Push delivery is disabled without VAPID keys
	var sender notify.Sender
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		sender = notify.NewWebPushSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
	} else {
		logger.Log.Warn("VAPID keys not configured, web push delivery disabled")
	}

	feed := notify.NewFeed(database.DB, sender)
	timelines := timeline.NewService(database.DB, redisClient)
	engine := social.NewEngine(database.DB, identity.New(), feed, timelines)
	authService := auth.NewService([]byte(cfg.JWTSecret), engine, database.DB)

	h := handlers.NewHandlers(engine, feed, timelines, authService, database.DB)
	h.SetVAPIDPublicKey(cfg.VAPIDPublicKey)
	router := handlers.SetupRouter(h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Forced shutdown", zap.Error(err))
	}
}
