package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sefazor/guestphotos-backend/internal/models"
)

var ErrNotFound = errors.New("record not found")

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	result := r.db.WithContext(ctx).Create(event)
	if result.Error != nil {
		return nil, result.Error
	}
	return event, nil
}

// GetActiveByToken returns the active event carrying token.
func (r *EventRepository) GetActiveByToken(ctx context.Context, token string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Where("access_token = ? AND is_active = ?", token, true).
		First(&event).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// GetByToken matches token regardless of the active flag.
func (r *EventRepository) GetByToken(ctx context.Context, token string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Where("access_token = ?", token).First(&event).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (r *EventRepository) GetByCode(ctx context.Context, code string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&event).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&events).Error
	return events, err
}

func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Save(event).Error
}

// Delete removes the event together with its photo rows.
func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.Photo{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Event{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *EventRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Event{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *EventRepository) GetPhotoCount(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Photo{}).Where("event_id = ?", eventID).Count(&count)
	return count, result.Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
