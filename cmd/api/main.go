package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/config"
	"github.com/sefazor/guestphotos-backend/pkg/logger"
)

func main() {
	// Load .env when present
	envErr := godotenv.Load()

	cfg, err := config.Load(os.Getenv("APP_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if envErr != nil {
		zl.Debug("no .env file loaded", zap.Error(envErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := InitializeAPI(ctx, &cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize api", zap.Error(err))
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%s", cfg.HTTP.Port)
		zl.Info("http server listening",
			zap.String("addr", addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("database", cfg.Database.Driver),
			zap.String("moderation_default", cfg.Moderation.DefaultStatus),
		)
		errCh <- app.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		zl.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			zl.Error("http server stopped", zap.Error(err))
		}
	}

	if err := app.ShutdownWithTimeout(cfg.HTTP.ShutdownTimeout); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
