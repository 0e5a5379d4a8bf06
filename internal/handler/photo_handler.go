package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/middleware"
	"github.com/sefazor/guestphotos-backend/internal/service"
)

const photoField = "photo"

type PhotoHandler struct {
	photoService *service.PhotoService
	logger       *zap.Logger
}

func NewPhotoHandler(photoService *service.PhotoService, logger *zap.Logger) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		logger:       logger.Named("gallery"),
	}
}

// UploadPhoto accepts one multipart photo for the event resolved by the
// token guard.
func (h *PhotoHandler) UploadPhoto(c *fiber.Ctx) error {
	event := middleware.EventFromContext(c)

	file, err := c.FormFile(photoField)
	if err != nil {
		return guestError(c, service.ErrFileRequired)
	}

	src, err := file.Open()
	if err != nil {
		return guestError(c, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return guestError(c, err)
	}

	photo, err := h.photoService.Upload(c.UserContext(), event, service.UploadInput{
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Data:        data,
	})
	if err != nil {
		return guestError(c, err)
	}

	resp, err := h.photoService.Present(c.UserContext(), photo)
	if err != nil {
		return guestError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListPhotos returns one page of the event's approved photos.
func (h *PhotoHandler) ListPhotos(c *fiber.Ctx) error {
	event := middleware.EventFromContext(c)
	params := h.photoService.PageParams(c.Query("page"), c.Query("page_size"))

	page, err := h.photoService.ListApproved(c.UserContext(), event, params)
	if err != nil {
		h.logger.Error("failed to list photos", zap.String("event", event.Code), zap.Error(err))
		return guestError(c, err)
	}
	return c.JSON(page)
}
