package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/auth"
	"github.com/wenwu/saas-platform/directory-service/internal/cache"
	"github.com/wenwu/saas-platform/directory-service/internal/client"
	"github.com/wenwu/saas-platform/directory-service/internal/config"
	"github.com/wenwu/saas-platform/directory-service/internal/db"
	"github.com/wenwu/saas-platform/directory-service/internal/http"
	"github.com/wenwu/saas-platform/directory-service/internal/logger"
	"github.com/wenwu/saas-platform/directory-service/internal/models"
	"github.com/wenwu/saas-platform/directory-service/internal/repository"
	"github.com/wenwu/saas-platform/directory-service/internal/seed"
	"github.com/wenwu/saas-platform/directory-service/internal/service"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: "directory-service",
		Development: cfg.Log.Development,
	})
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("directory service failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting Directory Service...")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	database, err := db.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx, cfg.Featured.SlotCount); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	// Initialize repositories
	providerRepo := repository.NewProviderRepository(database.Pool)
	slotRepo := repository.NewFeaturedSlotRepository(database.Pool)
	reviewRepo := repository.NewReviewRepository(database.Pool)
	logRepo := repository.NewLogRepository(database.Pool)

	// Listing cache is optional
	var listingCache service.ListingCache
	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("listing cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			listingCache = cache.NewListingCache(redisClient, cfg.Redis.TTL, log)
			log.Info("listing cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	notifier := client.NewNotificationClient(cfg.Notify.WebhookURL, cfg.InternalSecret)

	var catalogue []*models.Provider
	if cfg.Seed.DemoCatalogue {
		catalogue = seed.DemoProviders()
		log.Info("demo catalogue enabled", zap.Int("providers", len(catalogue)))
	}

	tokens := auth.NewTokenIssuer(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.TTL)

	// Initialize services
	services := http.Services{
		Providers: service.NewProviderService(providerRepo, slotRepo, reviewRepo, logRepo, notifier, listingCache, log),
		Featured:  service.NewFeaturedService(slotRepo, providerRepo, catalogue, logRepo, service.RandomChooser{}, listingCache, log),
		Reviews:   service.NewReviewService(reviewRepo, providerRepo, listingCache, log),
		Listing:   service.NewListingService(providerRepo, slotRepo, reviewRepo, listingCache, catalogue, log),
		Auth:      service.NewAuthService(providerRepo, tokens, cfg.Admin, log),
	}

	server := http.NewServer(cfg, database.Pool, services, tokens, log)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("Server starting", zap.String("addr", addr))
	if err := server.Run(ctx, addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	log.Info("Server exited")
	return nil
}
