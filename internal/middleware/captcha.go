package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/pkg/captcha"
)

const captchaField = "cf-turnstile-response"

// RequireCaptcha checks the Turnstile token sent with a guest form. It passes
// every request through when verifier is disabled.
func RequireCaptcha(verifier *captcha.Turnstile, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !verifier.Enabled() {
			return c.Next()
		}

		ok, err := verifier.VerifyTurnstile(c.UserContext(), c.FormValue(captchaField), c.IP())
		switch {
		case errors.Is(err, captcha.ErrMissingToken):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "captcha token is required"})
		case err != nil:
			logger.Error("turnstile verification failed", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "captcha verification unavailable"})
		case !ok:
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "captcha verification failed"})
		}
		return c.Next()
	}
}
