package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/sefazor/guestphotos-backend/internal/service"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrTokenRequired),
		errors.Is(err, service.ErrFileRequired),
		errors.Is(err, service.ErrUnsupportedFileType),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidDate):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrPhotoNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrEventCodeTaken):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// guestMessage returns the error text guest clients expect.
func guestMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidToken):
		return "Invalid or inactive access token"
	case errors.Is(err, service.ErrEventNotFound):
		return "Event not found"
	case errors.Is(err, service.ErrUnsupportedFileType):
		return "Unsupported file type. Allowed: .jpg, .jpeg, .png, .gif, .webp"
	default:
		return err.Error()
	}
}

// guestError writes the bare {error} body used by the guest API.
func guestError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": guestMessage(err)})
}
