package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/sefazor/guestphotos-backend/internal/models"
	"github.com/sefazor/guestphotos-backend/internal/repository"
	"github.com/sefazor/guestphotos-backend/pkg/storage"
	"github.com/sefazor/guestphotos-backend/pkg/utils"
)

type EventService struct {
	eventRepo *repository.EventRepository
	photoRepo *repository.PhotoRepository
	storage   storage.ObjectStorage
	logger    *zap.Logger
}

func NewEventService(
	eventRepo *repository.EventRepository,
	photoRepo *repository.PhotoRepository,
	store storage.ObjectStorage,
	logger *zap.Logger,
) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		photoRepo: photoRepo,
		storage:   store,
		logger:    logger.Named("events"),
	}
}

// Validate resolves an access token presented as a credential. Unknown and
// inactive tokens are both ErrInvalidToken.
func (s *EventService) Validate(ctx context.Context, token string) (*models.Event, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenRequired
	}

	event, err := s.eventRepo.GetActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup event by token: %w", err)
	}
	return event, nil
}

// LookupByToken applies the same matching rule as Validate but reports a miss
// as ErrEventNotFound, for tokens that arrive as part of a path.
func (s *EventService) LookupByToken(ctx context.Context, token string) (*models.Event, error) {
	event, err := s.Validate(ctx, token)
	switch {
	case err == nil:
		return event, nil
	case errors.Is(err, ErrTokenRequired), errors.Is(err, ErrInvalidToken):
		return nil, ErrEventNotFound
	default:
		return nil, err
	}
}

func (s *EventService) CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	exists, err := s.eventRepo.CodeExists(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEventCodeTaken
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Code:        req.Code,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Date:        date,
		IsActive:    true,
	}
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}

	createdEvent, err := s.eventRepo.Create(ctx, event)
	if err != nil {
		return nil, err
	}

	s.logger.Info("event created", zap.String("code", createdEvent.Code), zap.Uint("event_id", createdEvent.ID))
	return createdEvent, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]models.AdminEventResponse, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.AdminEventResponse, 0, len(events))
	for i := range events {
		count, err := s.eventRepo.GetPhotoCount(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.NewAdminEventResponse(&events[i], count))
	}
	return out, nil
}

func (s *EventService) GetByCode(ctx context.Context, code string) (*models.Event, error) {
	event, err := s.eventRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// Describe returns the operator view of an event.
func (s *EventService) Describe(ctx context.Context, event *models.Event) (models.AdminEventResponse, error) {
	count, err := s.eventRepo.GetPhotoCount(ctx, event.ID)
	if err != nil {
		return models.AdminEventResponse{}, err
	}
	return models.NewAdminEventResponse(event, count), nil
}

// UpdateEvent applies the fields present in req. The code and access token
// never change here.
func (s *EventService) UpdateEvent(ctx context.Context, code string, req models.UpdateEventRequest) (*models.Event, error) {
	event, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		event.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		event.Date = date
	}
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) Deactivate(ctx context.Context, code string) (*models.Event, error) {
	inactive := false
	return s.UpdateEvent(ctx, code, models.UpdateEventRequest{IsActive: &inactive})
}

// RotateToken issues a fresh access token. Existing QR codes stop working.
func (s *EventService) RotateToken(ctx context.Context, code string) (*models.Event, error) {
	event, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateAccessToken()
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	event.AccessToken = token

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("event access token rotated", zap.String("code", event.Code))
	return event, nil
}

// DeleteEvent removes the event, its photo rows and every stored object they
// reference. Object deletion failures are logged and do not stop the delete.
func (s *EventService) DeleteEvent(ctx context.Context, code string) error {
	event, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	photos, err := s.photoRepo.ListAllByEvent(ctx, event.ID)
	if err != nil {
		return err
	}

	if err := s.eventRepo.Delete(ctx, event.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	for i := range photos {
		for _, key := range photos[i].Keys() {
			if err := s.storage.Delete(ctx, key); err != nil {
				s.logger.Warn("failed to delete stored object", zap.String("key", key), zap.Error(err))
			}
		}
	}

	s.logger.Info("event deleted", zap.String("code", event.Code), zap.Int("photos", len(photos)))
	return nil
}

func parseDate(raw string) (*datatypes.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	d := datatypes.Date(t)
	return &d, nil
}
