package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/models"
	"github.com/sefazor/guestphotos-backend/internal/service"
)

type EventHandler struct {
	eventService *service.EventService
	logger       *zap.Logger
}

func NewEventHandler(eventService *service.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		logger:       logger.Named("events"),
	}
}

// ValidateToken answers whether an access token opens an active event.
func (h *EventHandler) ValidateToken(c *fiber.Ctx) error {
	var req models.ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return c.Status(fiber.StatusBadRequest).JSON(models.ValidateTokenResponse{Valid: false, Error: "Invalid request body"})
	}

	event, err := h.eventService.Validate(c.UserContext(), strings.TrimSpace(req.AccessToken))
	if err != nil {
		status := statusFor(err)
		if status == fiber.StatusInternalServerError {
			h.logger.Error("token validation failed", zap.Error(err))
		}
		return c.Status(status).JSON(models.ValidateTokenResponse{Valid: false, Error: guestMessage(err)})
	}

	resp := models.NewEventResponse(event)
	return c.JSON(models.ValidateTokenResponse{Valid: true, Event: &resp})
}

// GetByToken returns the public event fields for a token taken from the path.
func (h *EventHandler) GetByToken(c *fiber.Ctx) error {
	event, err := h.eventService.LookupByToken(c.UserContext(), c.Params("access_token"))
	if err != nil {
		return guestError(c, err)
	}
	return c.JSON(models.NewEventResponse(event))
}
