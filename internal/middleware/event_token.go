package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/models"
	"github.com/sefazor/guestphotos-backend/internal/service"
)

// TokenLocation says where RequireEventToken looks for the access token.
type TokenLocation int

const (
	// TokenInBody reads access_token from a JSON body or a form field.
	TokenInBody TokenLocation = iota
	// TokenInQuery reads the access_token query parameter.
	TokenInQuery
)

const eventKey = "event"

const tokenField = "access_token"

// EventValidator resolves an access token to an active event.
type EventValidator interface {
	Validate(ctx context.Context, token string) (*models.Event, error)
}

// RequireEventToken scopes the wrapped handler to the event owning the
// presented access token. A missing token is 400, an unknown or inactive one
// is 401.
func RequireEventToken(events EventValidator, location TokenLocation, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c, location)

		event, err := events.Validate(c.UserContext(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenRequired):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "access_token is required"})
			case errors.Is(err, service.ErrInvalidToken):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or inactive access token"})
			default:
				logger.Error("event token lookup failed", zap.Error(err))
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
			}
		}

		c.Locals(eventKey, event)
		return c.Next()
	}
}

// EventFromContext returns the event RequireEventToken resolved, or nil.
func EventFromContext(c *fiber.Ctx) *models.Event {
	event, _ := c.Locals(eventKey).(*models.Event)
	return event
}

func extractToken(c *fiber.Ctx, location TokenLocation) string {
	if location == TokenInQuery {
		return strings.TrimSpace(c.Query(tokenField))
	}

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEApplicationJSON) {
		var req models.ValidateTokenRequest
		if err := c.BodyParser(&req); err != nil {
			return ""
		}
		return strings.TrimSpace(req.AccessToken)
	}
	return strings.TrimSpace(c.FormValue(tokenField))
}
