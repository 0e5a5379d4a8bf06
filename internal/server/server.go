package server

import (
	"errors"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/config"
	"github.com/sefazor/guestphotos-backend/internal/handler"
	"github.com/sefazor/guestphotos-backend/internal/middleware"
	"github.com/sefazor/guestphotos-backend/pkg/captcha"
	jwtPkg "github.com/sefazor/guestphotos-backend/pkg/jwt"
)

// Handlers groups the route handlers mounted by NewFiberApp.
type Handlers struct {
	Event *handler.EventHandler
	Photo *handler.PhotoHandler
	Admin *handler.AdminHandler
}

// LimiterStorage backs the rate limiter. A nil value keeps counters in memory.
type LimiterStorage fiber.Storage

func NewFiberApp(
	cfg *config.Config,
	logger *zap.Logger,
	h Handlers,
	events middleware.EventValidator,
	tokens *jwtPkg.Manager,
	turnstile *captcha.Turnstile,
	limiterStorage LimiterStorage,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "guestphotos-backend",
		BodyLimit:    cfg.HTTP.BodyLimitMB * 1024 * 1024,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger.Named("http")))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))

	api := app.Group("/api")
	api.Get("/health", handler.Health)

	if cfg.RateLimit.Max > 0 {
		limiterCfg := limiter.Config{
			Max:        cfg.RateLimit.Max,
			Expiration: cfg.RateLimit.Expiration,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
			},
		}
		if limiterStorage != nil {
			limiterCfg.Storage = limiterStorage
		}
		api.Use(limiter.New(limiterCfg))
	}

	// Guest routes
	api.Post("/events/validate", h.Event.ValidateToken)
	api.Get("/events/:access_token", h.Event.GetByToken)

	gallery := api.Group("/gallery")
	gallery.Post("/upload",
		middleware.RequireEventToken(events, middleware.TokenInBody, logger),
		middleware.RequireCaptcha(turnstile, logger),
		h.Photo.UploadPhoto,
	)
	gallery.Get("/photos", middleware.RequireEventToken(events, middleware.TokenInQuery, logger), h.Photo.ListPhotos)

	// Operator routes
	admin := api.Group("/admin")
	admin.Post("/login", h.Admin.Login)

	protected := admin.Group("", middleware.AuthMiddleware(tokens, logger))
	{
		protected.Get("/events", h.Admin.ListEvents)
		protected.Post("/events", h.Admin.CreateEvent)
		protected.Get("/events/:code", h.Admin.GetEvent)
		protected.Patch("/events/:code", h.Admin.UpdateEvent)
		protected.Delete("/events/:code", h.Admin.DeleteEvent)
		protected.Post("/events/:code/deactivate", h.Admin.DeactivateEvent)
		protected.Post("/events/:code/rotate-token", h.Admin.RotateToken)
		protected.Get("/events/:code/photos", h.Admin.ListEventPhotos)
		protected.Get("/events/:code/qr", h.Admin.EventQRCode)

		protected.Patch("/photos/:id/moderation", h.Admin.ModeratePhoto)
		protected.Get("/photos/:id/download", h.Admin.DownloadPhoto)
		protected.Delete("/photos/:id", h.Admin.DeletePhoto)
	}

	return app
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		message := err.Error()
		if code == fiber.StatusRequestEntityTooLarge {
			message = "Uploaded file is too large"
		}
		if strings.HasPrefix(c.Path(), "/api/admin") {
			return c.Status(code).JSON(fiber.Map{"success": false, "error": message})
		}
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}
