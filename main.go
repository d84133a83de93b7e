package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"foodgram/cache"
	"foodgram/config"
	"foodgram/handlers"
	"foodgram/helper"
	"foodgram/logger"
	"foodgram/repositories"
	"foodgram/services"
	"foodgram/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.AppEnv); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zap.L().Sync() //nolint:errcheck

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		zap.L().Fatal("failed to connect to database", zap.Error(err))
	}
	store := repositories.NewStore(db)

	images, mediaRoot, err := newImageStore(cfg)
	if err != nil {
		zap.L().Fatal("failed to init image storage", zap.Error(err))
	}
	limiter, err := newLimiter(ctx, cfg)
	if err != nil {
		zap.L().Fatal("failed to init rate limiter", zap.Error(err))
	}

	// Initialize services
	catalogService := services.NewCatalogService(store)
	if err := catalogService.SeedFromFiles(ctx, cfg.SeedIngredientsFile, cfg.SeedTagsFile); err != nil {
		zap.L().Fatal("failed to seed catalog", zap.Error(err))
	}

	h, err := helper.NewHTTPHelper()
	if err != nil {
		zap.L().Fatal("failed to init validator", zap.Error(err))
	}

	router := handlers.SetupRouter(handlers.Deps{
		Auth:          services.NewAuthService(store, cfg.JWTSecret, cfg.JWTExpiration),
		Recipes:       services.NewRecipeService(store, images, cfg.PageSize),
		Memberships:   services.NewMembershipService(store),
		Cart:          services.NewShoppingCartService(store),
		Subscriptions: services.NewSubscriptionService(store, cfg.PageSize),
		Catalog:       catalogService,
		Limiter:       limiter,
		Helper:        h,
		MediaRoot:     mediaRoot,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("server starting", zap.String("port", cfg.ServerPort), zap.String("images", images.Name()), zap.String("limiter", limiter.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newImageStore uses MinIO when an endpoint is configured and the local media
// directory otherwise. The returned root is non-empty only for local storage.
func newImageStore(cfg *config.Config) (storage.ImageStore, string, error) {
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioPublicURL, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	}
	return storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL), cfg.MediaRoot, nil
}

// newLimiter shares counters through Redis when configured so every replica
// sees the same budget. Without Redis each process limits on its own.
func newLimiter(ctx context.Context, cfg *config.Config) (cache.Limiter, error) {
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisLimiter(client, cfg.RateLimitBurst, time.Second), nil
	}

	limiter := cache.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, 5*time.Minute)
	return limiter, nil
}
