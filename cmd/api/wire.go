//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/config"
	"github.com/sefazor/guestphotos-backend/internal/handler"
	"github.com/sefazor/guestphotos-backend/internal/middleware"
	"github.com/sefazor/guestphotos-backend/internal/repository"
	"github.com/sefazor/guestphotos-backend/internal/server"
	"github.com/sefazor/guestphotos-backend/internal/service"
	"github.com/sefazor/guestphotos-backend/pkg/email"
	"github.com/sefazor/guestphotos-backend/pkg/imageproc"
	"github.com/sefazor/guestphotos-backend/pkg/utils"
)

func InitializeAPI(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*fiber.App, func(), error) {
	wire.Build(
		// Infrastructure
		provideDatabase,
		provideStorage,
		provideImageProcessor,
		provideEmailService,
		provideTokenManager,
		provideQRService,
		provideTurnstile,
		provideLimiterStorage,
		wire.Bind(new(service.ImageProcessor), new(*imageproc.Processor)),
		wire.Bind(new(service.ModerationNotifier), new(*email.EmailService)),

		// Repositories
		repository.NewEventRepository,
		repository.NewPhotoRepository,

		// Services
		service.NewEventService,
		service.NewPhotoService,
		provideAuthService,
		wire.Bind(new(middleware.EventValidator), new(*service.EventService)),

		// Validator
		utils.NewValidator,

		// Handlers
		handler.NewEventHandler,
		handler.NewPhotoHandler,
		handler.NewAdminHandler,
		wire.Struct(new(server.Handlers), "*"),

		// App
		server.NewFiberApp,
	)
	return nil, nil, nil
}
