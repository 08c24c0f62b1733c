package main

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airdrophub-backend/internal/common/config"
	"airdrophub-backend/internal/common/logger"
	"airdrophub-backend/internal/http"
	"airdrophub-backend/internal/service"
	"airdrophub-backend/internal/storage"
	"airdrophub-backend/internal/storage/memory"
	redisstore "airdrophub-backend/internal/storage/redis"
	"airdrophub-backend/internal/storage/sqlite"
)

func main() {
	cfg := config.Load()
	logger.Init("airdrophub-backend", cfg.Debug)

	logger.Info().
		Str("engine", cfg.Storage.Engine).
		Bool("debug", cfg.Debug).
		Msg("Starting AirdropHub backend")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	logger.Info().Msg("Storage ready")

	audit := service.NewAuditService(store)
	svcs := http.Services{
		Airdrops:    service.NewAirdropService(store, audit),
		Users:       service.NewUserService(store, audit),
		Withdrawals: service.NewWithdrawalService(store, audit),
		Analytics:   service.NewAnalyticsService(store),
		Audit:       audit,
		Settings:    service.NewSettingService(store, audit),
		Export:      service.NewExportService(store, audit),
	}

	router := http.NewRouter(cfg, store, svcs)

	server := &nethttp.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Engine {
	case "sqlite":
		return sqlite.New(ctx, cfg.Storage.SQLitePath)
	case "memory":
		return memory.New(), nil
	case "redis":
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		return redisstore.New(ctx, addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Storage.Engine)
	}
}
