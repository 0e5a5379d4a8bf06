package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/models"
	jwtPkg "github.com/sefazor/guestphotos-backend/pkg/jwt"
)

const adminSubjectKey = "adminSubject"

// AuthMiddleware guards operator routes with a Bearer token issued by tokens.
func AuthMiddleware(tokens *jwtPkg.Manager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Authorization header is required"))
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid authorization header format"))
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		subject, err := tokens.ValidateToken(tokenString)
		if err != nil {
			logger.Debug("operator token rejected", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid token"))
		}

		c.Locals(adminSubjectKey, subject)
		return c.Next()
	}
}

// AdminSubject returns the authenticated operator name.
func AdminSubject(c *fiber.Ctx) string {
	s, _ := c.Locals(adminSubjectKey).(string)
	return s
}
