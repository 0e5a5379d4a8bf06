package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/config"
	"github.com/sefazor/guestphotos-backend/internal/models"
	"github.com/sefazor/guestphotos-backend/internal/repository"
	"github.com/sefazor/guestphotos-backend/pkg/email"
	"github.com/sefazor/guestphotos-backend/pkg/imageproc"
	"github.com/sefazor/guestphotos-backend/pkg/storage"
	"github.com/sefazor/guestphotos-backend/pkg/utils"
)

// ImageProcessor produces the resized web variants of an uploaded image.
type ImageProcessor interface {
	Thumbnail(data []byte) ([]byte, string, error)
	Display(data []byte) ([]byte, string, error)
}

// ModerationNotifier is told about uploads that wait for review.
type ModerationNotifier interface {
	NotifyPendingPhoto(ctx context.Context, p email.PendingPhoto) error
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

const (
	thumbnailSuffix = "_thumbnail"
	displaySuffix   = "_display"
)

// UploadInput is one received file.
type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

type PhotoService struct {
	photoRepo     *repository.PhotoRepository
	storage       storage.ObjectStorage
	images        ImageProcessor
	notifier      ModerationNotifier
	logger        *zap.Logger
	defaultStatus models.ModerationStatus
	presignTTL    time.Duration
	pageSize      int
	maxPageSize   int
	now           func() time.Time
	newID         func() string
}

func NewPhotoService(
	photoRepo *repository.PhotoRepository,
	store storage.ObjectStorage,
	images ImageProcessor,
	notifier ModerationNotifier,
	cfg *config.Config,
	logger *zap.Logger,
) *PhotoService {
	return &PhotoService{
		photoRepo:     photoRepo,
		storage:       store,
		images:        images,
		notifier:      notifier,
		logger:        logger.Named("photos"),
		defaultStatus: models.ModerationStatus(cfg.Moderation.DefaultStatus),
		presignTTL:    cfg.Storage.PresignTTL,
		pageSize:      cfg.Gallery.PageSize,
		maxPageSize:   cfg.Gallery.MaxPageSize,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// IsAllowedFilename reports whether name ends in a supported image extension.
func IsAllowedFilename(name string) bool {
	return allowedExtensions[strings.ToLower(path.Ext(name))]
}

// Upload stores the original, derives the web variants and records the photo.
// Nothing is recorded unless the original is stored. Variant failures only
// leave the corresponding key empty.
func (s *PhotoService) Upload(ctx context.Context, event *models.Event, in UploadInput) (*models.Photo, error) {
	if len(in.Data) == 0 {
		return nil, ErrFileRequired
	}

	ext := path.Ext(in.Filename)
	if !allowedExtensions[strings.ToLower(ext)] {
		return nil, ErrUnsupportedFileType
	}

	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(in.Data).String()
	}

	id := s.newID()
	originalKey := fmt.Sprintf("%s/%s%s", event.Code, id, ext)

	if err := s.put(ctx, originalKey, in.Data, contentType); err != nil {
		s.logger.Error("failed to store original",
			zap.String("event", event.Code), zap.String("key", originalKey), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	photo := &models.Photo{
		EventID:          event.ID,
		FileKey:          originalKey,
		OriginalFilename: path.Base(in.Filename),
		UploadedAt:       s.now().UTC(),
		FileSize:         int64(len(in.Data)),
		ContentType:      contentType,
		ModerationStatus: s.defaultStatus,
	}

	photo.ThumbnailKey = s.deriveVariant(ctx, event.Code, id, thumbnailSuffix, s.images.Thumbnail, in.Data)
	photo.DisplayKey = s.deriveVariant(ctx, event.Code, id, displaySuffix, s.images.Display, in.Data)

	if err := s.photoRepo.Create(ctx, photo); err != nil {
		s.logger.Error("failed to record photo, removing stored objects",
			zap.String("event", event.Code), zap.String("key", originalKey), zap.Error(err))
		s.removeObjects(ctx, photo.Keys())
		return nil, fmt.Errorf("record photo: %w", err)
	}

	s.logger.Info("photo uploaded",
		zap.String("event", event.Code),
		zap.Uint("photo_id", photo.ID),
		zap.Int64("size", photo.FileSize),
		zap.String("status", string(photo.ModerationStatus)),
		zap.Bool("thumbnail", photo.ThumbnailKey != ""),
		zap.Bool("display", photo.DisplayKey != ""),
	)

	if photo.ModerationStatus == models.ModerationPending && s.notifier != nil {
		if err := s.notifier.NotifyPendingPhoto(ctx, email.PendingPhoto{
			EventCode:  event.Code,
			EventName:  event.Name,
			PhotoID:    photo.ID,
			Filename:   photo.OriginalFilename,
			UploadedAt: photo.UploadedAt,
		}); err != nil {
			s.logger.Warn("pending photo notification failed", zap.Uint("photo_id", photo.ID), zap.Error(err))
		}
	}

	return photo, nil
}

func (s *PhotoService) deriveVariant(
	ctx context.Context,
	code, id, suffix string,
	derive func([]byte) ([]byte, string, error),
	data []byte,
) string {
	variant, contentType, err := derive(data)
	if err != nil {
		s.logger.Warn("image variant derivation failed",
			zap.String("event", code), zap.String("variant", strings.TrimPrefix(suffix, "_")), zap.Error(err))
		return ""
	}

	key := fmt.Sprintf("%s/%s%s%s", code, id, suffix, imageproc.VariantExt)
	if err := s.put(ctx, key, variant, contentType); err != nil {
		s.logger.Warn("failed to store image variant", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

func (s *PhotoService) put(ctx context.Context, key string, data []byte, contentType string) error {
	return s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}

func (s *PhotoService) removeObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete stored object", zap.String("key", key), zap.Error(err))
		}
	}
}

// PageParams resolves raw page and page_size query values against the
// configured gallery limits.
func (s *PhotoService) PageParams(rawPage, rawSize string) utils.PageParams {
	return utils.ParsePageParams(rawPage, rawSize, s.pageSize, s.maxPageSize)
}

// ListApproved returns one page of the event's approved photos, newest first,
// with presigned URLs.
func (s *PhotoService) ListApproved(ctx context.Context, event *models.Event, p utils.PageParams) (*models.PhotoPage, error) {
	photos, total, err := s.photoRepo.ListApproved(ctx, event.ID, p.Offset(), p.Size)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	results := make([]models.PhotoResponse, 0, len(photos))
	for i := range photos {
		resp, err := s.Present(ctx, &photos[i])
		if err != nil {
			return nil, err
		}
		results = append(results, resp)
	}

	meta := utils.BuildMeta(total, p)
	return &models.PhotoPage{
		Count:    meta.Total,
		Page:     meta.Page,
		PageSize: meta.PageSize,
		Next:     meta.NextPage,
		Previous: meta.PrevPage,
		Results:  results,
	}, nil
}

// Present converts a photo into its public form with freshly presigned URLs.
// Missing variants fall back to the original's URL.
func (s *PhotoService) Present(ctx context.Context, photo *models.Photo) (models.PhotoResponse, error) {
	url, err := s.storage.PresignGet(ctx, photo.FileKey, s.presignTTL)
	if err != nil {
		return models.PhotoResponse{}, fmt.Errorf("%w: presign %s: %v", ErrStorage, photo.FileKey, err)
	}

	thumbnailURL, err := s.presignOr(ctx, photo.ThumbnailKey, url)
	if err != nil {
		return models.PhotoResponse{}, err
	}
	displayURL, err := s.presignOr(ctx, photo.DisplayKey, url)
	if err != nil {
		return models.PhotoResponse{}, err
	}

	return models.PhotoResponse{
		ID:               photo.ID,
		OriginalFilename: photo.OriginalFilename,
		UploadedAt:       photo.UploadedAt,
		FileSize:         photo.FileSize,
		ContentType:      photo.ContentType,
		ModerationStatus: photo.ModerationStatus,
		URL:              url,
		ThumbnailURL:     thumbnailURL,
		DisplayURL:       displayURL,
	}, nil
}

func (s *PhotoService) presignOr(ctx context.Context, key, fallback string) (string, error) {
	if key == "" {
		return fallback, nil
	}
	url, err := s.storage.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %v", ErrStorage, key, err)
	}
	return url, nil
}

func (s *PhotoService) presentAdmin(ctx context.Context, photo *models.Photo) (models.AdminPhotoResponse, error) {
	resp, err := s.Present(ctx, photo)
	if err != nil {
		return models.AdminPhotoResponse{}, err
	}
	return models.AdminPhotoResponse{
		PhotoResponse: resp,
		EventID:       photo.EventID,
		FileKey:       photo.FileKey,
		ThumbnailKey:  photo.ThumbnailKey,
		DisplayKey:    photo.DisplayKey,
		ModeratedAt:   photo.ModeratedAt,
	}, nil
}

// ListForEvent is the operator listing: any moderation state, optionally
// filtered by status.
func (s *PhotoService) ListForEvent(ctx context.Context, event *models.Event, status string, p utils.PageParams) ([]models.AdminPhotoResponse, utils.PageMeta, error) {
	filter := models.ModerationStatus(strings.ToLower(strings.TrimSpace(status)))
	if filter != "" && !filter.Valid() {
		return nil, utils.PageMeta{}, ErrInvalidStatus
	}

	photos, total, err := s.photoRepo.ListByEvent(ctx, event.ID, filter, p.Offset(), p.Size)
	if err != nil {
		return nil, utils.PageMeta{}, fmt.Errorf("list photos: %w", err)
	}

	out := make([]models.AdminPhotoResponse, 0, len(photos))
	for i := range photos {
		resp, err := s.presentAdmin(ctx, &photos[i])
		if err != nil {
			return nil, utils.PageMeta{}, err
		}
		out = append(out, resp)
	}
	return out, utils.BuildMeta(total, p), nil
}

func (s *PhotoService) GetPhoto(ctx context.Context, id uint) (*models.Photo, error) {
	photo, err := s.photoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return photo, nil
}

// Moderate sets the moderation state of a photo and stamps ModeratedAt.
func (s *PhotoService) Moderate(ctx context.Context, id uint, status models.ModerationStatus) (*models.AdminPhotoResponse, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	if err := s.photoRepo.UpdateModeration(ctx, id, status, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}

	photo, err := s.GetPhoto(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("photo moderated", zap.Uint("photo_id", id), zap.String("status", string(status)))

	resp, err := s.presentAdmin(ctx, photo)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeletePhoto removes the row first, then its stored objects.
func (s *PhotoService) DeletePhoto(ctx context.Context, id uint) error {
	photo, err := s.GetPhoto(ctx, id)
	if err != nil {
		return err
	}

	if err := s.photoRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPhotoNotFound
		}
		return err
	}

	s.removeObjects(ctx, photo.Keys())
	s.logger.Info("photo deleted", zap.Uint("photo_id", id), zap.String("key", photo.FileKey))
	return nil
}

// Open streams the original object of a photo. The caller closes the reader.
func (s *PhotoService) Open(ctx context.Context, id uint) (*models.Photo, io.ReadCloser, error) {
	photo, err := s.GetPhoto(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.storage.Download(ctx, photo.FileKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrPhotoNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return photo, body, nil
}
