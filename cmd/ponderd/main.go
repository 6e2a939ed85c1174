package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nidhogg/ponder/internal/api"
	"github.com/nidhogg/ponder/internal/config"
	"github.com/nidhogg/ponder/internal/provider"
	pgstore "github.com/nidhogg/ponder/internal/store"
	"github.com/nidhogg/ponder/internal/strategy"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting ponder...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/ponder.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// Initialize registries
	providers := provider.NewRegistry(logger)
	strategies := strategy.NewRegistry(logger)

	providerCfgs := make(map[string]config.ProviderConfig)
	for _, pc := range cfg.Providers {
		providerCfgs[pc.Type] = pc
	}

	// Initialize PostgreSQL result store
	var store *pgstore.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := pgstore.New(context.Background(), cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without persistence", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(context.Background(), "migrations"); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			store = ps
		}
	}

	// Initialize Redis result cache
	var cache *pgstore.Cache
	if cfg.Cache.Redis.URL != "" {
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		c, cErr := pgstore.NewCache(cfg.Cache.Redis.URL, ttl, logger)
		if cErr != nil {
			logger.Warn("Redis unavailable, running without result cache", zap.Error(cErr))
		} else {
			cache = c
		}
	}

	// Build HTTP handler
	handler := api.NewHandler(providers, strategies, providerCfgs, store, cache, cfg.Reasoning, logger)

	// Start server
	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8000"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("ponder listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down ponder...")
	ctx := context.Background()
	srv.Shutdown(ctx)
	if cache != nil {
		cache.Close()
	}
	if store != nil {
		store.Close()
	}
}
