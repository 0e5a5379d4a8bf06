package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sefazor/guestphotos-backend/internal/config"
	"github.com/sefazor/guestphotos-backend/internal/middleware"
	"github.com/sefazor/guestphotos-backend/internal/server"
	"github.com/sefazor/guestphotos-backend/internal/service"
	"github.com/sefazor/guestphotos-backend/pkg/captcha"
	"github.com/sefazor/guestphotos-backend/pkg/database"
	"github.com/sefazor/guestphotos-backend/pkg/email"
	"github.com/sefazor/guestphotos-backend/pkg/imageproc"
	jwtPkg "github.com/sefazor/guestphotos-backend/pkg/jwt"
	"github.com/sefazor/guestphotos-backend/pkg/qrcode"
	"github.com/sefazor/guestphotos-backend/pkg/storage"
)

func provideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}
	}
	return db, cleanup, nil
}

func provideStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.ObjectStorage, error) {
	return storage.New(ctx, cfg.Storage, logger)
}

func provideImageProcessor(cfg *config.Config) *imageproc.Processor {
	return imageproc.NewProcessor(imageproc.Options{
		ThumbnailMaxDimension: cfg.Image.ThumbnailMaxDimension,
		DisplayMaxDimension:   cfg.Image.DisplayMaxDimension,
		Quality:               cfg.Image.Quality,
	})
}

func provideEmailService(cfg *config.Config, logger *zap.Logger) *email.EmailService {
	return email.NewEmailService(cfg.Email, logger)
}

func provideQRService(cfg *config.Config) *qrcode.QRService {
	return qrcode.NewQRService(cfg.Gallery.FrontendBaseURL)
}

func provideTurnstile(cfg *config.Config) *captcha.Turnstile {
	return captcha.NewTurnstile(cfg.Captcha.TurnstileSecret, cfg.Captcha.VerifyURL)
}

func provideTokenManager(cfg *config.Config) *jwtPkg.Manager {
	return jwtPkg.NewManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
}

func provideAuthService(cfg *config.Config, tokens *jwtPkg.Manager, logger *zap.Logger) *service.AuthService {
	return service.NewAuthService(cfg.Admin, tokens, logger)
}

// provideLimiterStorage returns a redis-backed limiter store when REDIS_ADDR
// is set, and nil otherwise.
func provideLimiterStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (server.LimiterStorage, func(), error) {
	if cfg.Redis.Addr == "" {
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	store := middleware.NewRedisStorage(client, "guestphotos:limiter:")
	logger.Info("rate limiter uses redis", zap.String("addr", cfg.Redis.Addr))
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	return store, cleanup, nil
}
