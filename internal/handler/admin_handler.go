package handler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/middleware"
	"github.com/sefazor/guestphotos-backend/internal/models"
	"github.com/sefazor/guestphotos-backend/internal/service"
	"github.com/sefazor/guestphotos-backend/pkg/qrcode"
	"github.com/sefazor/guestphotos-backend/pkg/utils"
)

// AdminHandler serves the operator API. Responses use the models.Response
// envelope.
type AdminHandler struct {
	authService  *service.AuthService
	eventService *service.EventService
	photoService *service.PhotoService
	qrService    *qrcode.QRService
	validator    *utils.Validator
	logger       *zap.Logger
}

func NewAdminHandler(
	authService *service.AuthService,
	eventService *service.EventService,
	photoService *service.PhotoService,
	qrService *qrcode.QRService,
	validator *utils.Validator,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		authService:  authService,
		eventService: eventService,
		photoService: photoService,
		qrService:    qrService,
		validator:    validator,
		logger:       logger.Named("admin"),
	}
}

func (h *AdminHandler) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		h.logger.Error("admin request failed",
			zap.String("path", c.Path()), zap.String("operator", middleware.AdminSubject(c)), zap.Error(err))
	}
	return c.Status(status).JSON(models.ErrorResponse(err.Error()))
}

func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(models.SuccessResponse(resp, "Login successful"))
}

func (h *AdminHandler) ListEvents(c *fiber.Ctx) error {
	events, err := h.eventService.ListEvents(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(models.SuccessResponse(events, "Events retrieved successfully"))
}

func (h *AdminHandler) CreateEvent(c *fiber.Ctx) error {
	var req models.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if req.Code == "" {
		req.Code = utils.Slugify(req.Name)
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	event, err := h.eventService.CreateEvent(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondEvent(c, fiber.StatusCreated, event, "Event created successfully")
}

func (h *AdminHandler) GetEvent(c *fiber.Ctx) error {
	event, err := h.eventService.GetByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondEvent(c, fiber.StatusOK, event, "Event retrieved successfully")
}

func (h *AdminHandler) UpdateEvent(c *fiber.Ctx) error {
	var req models.UpdateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	event, err := h.eventService.UpdateEvent(c.UserContext(), c.Params("code"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondEvent(c, fiber.StatusOK, event, "Event updated successfully")
}

func (h *AdminHandler) DeactivateEvent(c *fiber.Ctx) error {
	event, err := h.eventService.Deactivate(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondEvent(c, fiber.StatusOK, event, "Event deactivated")
}

func (h *AdminHandler) RotateToken(c *fiber.Ctx) error {
	event, err := h.eventService.RotateToken(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondEvent(c, fiber.StatusOK, event, "Access token rotated")
}

func (h *AdminHandler) DeleteEvent(c *fiber.Ctx) error {
	if err := h.eventService.DeleteEvent(c.UserContext(), c.Params("code")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(models.SuccessResponse(nil, "Event deleted successfully"))
}

// EventQRCode renders the PNG guests scan to open the event gallery.
func (h *AdminHandler) EventQRCode(c *fiber.Ctx) error {
	event, err := h.eventService.GetByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.fail(c, err)
	}

	png, err := h.qrService.GenerateQRCode(event.AccessToken, c.QueryInt("size", qrcode.DefaultSize))
	if err != nil {
		return h.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s_qr.png"`, event.Code))
	c.Set("X-Guest-URL", h.qrService.GuestURL(event.AccessToken))
	return c.Send(png)
}

func (h *AdminHandler) respondEvent(c *fiber.Ctx, status int, event *models.Event, message string) error {
	resp, err := h.eventService.Describe(c.UserContext(), event)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(status).JSON(models.SuccessResponse(resp, message))
}

func (h *AdminHandler) ListEventPhotos(c *fiber.Ctx) error {
	event, err := h.eventService.GetByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.fail(c, err)
	}

	params := h.photoService.PageParams(c.Query("page"), c.Query("page_size"))
	photos, meta, err := h.photoService.ListForEvent(c.UserContext(), event, c.Query("status"), params)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(models.SuccessResponse(fiber.Map{
		"photos":     photos,
		"pagination": meta,
	}, "Photos retrieved successfully"))
}

func (h *AdminHandler) ModeratePhoto(c *fiber.Ctx) error {
	id, err := photoID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid photo ID"))
	}

	var req models.ModeratePhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	photo, err := h.photoService.Moderate(c.UserContext(), id, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(models.SuccessResponse(photo, "Photo moderated"))
}

func (h *AdminHandler) DownloadPhoto(c *fiber.Ctx) error {
	id, err := photoID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid photo ID"))
	}

	photo, body, err := h.photoService.Open(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return h.fail(c, err)
	}

	c.Attachment(photo.OriginalFilename)
	if photo.ContentType != "" {
		c.Set(fiber.HeaderContentType, photo.ContentType)
	}
	return c.Send(data)
}

func (h *AdminHandler) DeletePhoto(c *fiber.Ctx) error {
	id, err := photoID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid photo ID"))
	}

	if err := h.photoService.DeletePhoto(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(models.SuccessResponse(nil, "Photo deleted successfully"))
}

func photoID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
