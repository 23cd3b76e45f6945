package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dcode-github/real_estate_listing/cache"
	"github.com/dcode-github/real_estate_listing/config"
	"github.com/dcode-github/real_estate_listing/controllers"
	"github.com/dcode-github/real_estate_listing/logger"
	"github.com/dcode-github/real_estate_listing/middleware"
	"github.com/dcode-github/real_estate_listing/routes"
	"github.com/dcode-github/real_estate_listing/services"
	"github.com/dcode-github/real_estate_listing/store"
	"github.com/dcode-github/real_estate_listing/uploads"
	"github.com/dcode-github/real_estate_listing/utils"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		bootLog, _ := zap.NewProduction()
		bootLog.Fatal("Failed to load configuration", zap.Error(err))
	}

	log, err := logger.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("Configuration loaded", cfg.Fields()...)

	ctx := context.Background()

	client, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to the database", zap.Error(err))
	}
	defer func() {
		if err := config.CloseDBConnection(client); err != nil {
			log.Error("Error closing MongoDB connection", zap.Error(err))
			return
		}
		log.Info("MongoDB connection closed")
	}()

	cols := config.InitCollections(client, cfg)
	if err := config.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal("Failed to create indexes", zap.Error(err))
	}

	redisClient, err := config.InitRedis(ctx, cfg)
	if err != nil {
		log.Warn("Redis unavailable, running without cache and rate limiting", zap.Error(err))
		redisClient = nil
	} else if redisClient != nil {
		defer redisClient.Close()
	}

	storage, err := uploads.NewLocalStorage(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	userStore := store.NewUserStore(cols.Users)
	tokens := utils.NewTokenManager(cfg.JWTKey, cfg.TokenTTL)

	router := mux.NewRouter()
	routes.Routes(router, routes.Deps{
		Users:      services.NewUserService(userStore, tokens, cfg.BcryptCost),
		Properties: services.NewPropertyService(store.NewPropertyStore(cols.Properties)),
		Tokens:     tokens,
		UserLoader: userStore,
		Cache:      cache.New(redisClient, cfg.CacheTTL),
		Redis:      redisClient,
		RateLimit: middleware.RateLimitConfig{
			Capacity:          cfg.RateLimitCapacity,
			RefillInterval:    cfg.RateLimitRefillInterval,
			Prefix:            "ratelimit",
			TrustForwardedFor: cfg.TrustProxy,
		},
		Storage:   storage,
		UploadDir: cfg.UploadDir,
		MaxUpload: cfg.MaxUploadBytes,
		DB: controllers.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}),
	})

	corsOptions := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        corsOptions.Handler(router),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("Server running", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Error starting server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
		return
	}
	log.Info("Server gracefully stopped")
}
