package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sefazor/guestphotos-backend/internal/models"
)

type PhotoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{
		db: db,
	}
}

const newestFirst = "uploaded_at DESC, id DESC"

func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *PhotoRepository) GetByID(ctx context.Context, id uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).First(&photo, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &photo, nil
}

// ListByEvent pages through an event's photos, newest first. An empty status
// matches every moderation state.
func (r *PhotoRepository) ListByEvent(ctx context.Context, eventID uint, status models.ModerationStatus, offset, limit int) ([]models.Photo, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("event_id = ?", eventID)
		if status != "" {
			db = db.Where("moderation_status = ?", status)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Photo{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	photos := make([]models.Photo, 0, limit)
	if total == 0 {
		return photos, 0, nil
	}
	err := r.db.WithContext(ctx).Scopes(scope).Order(newestFirst).Offset(offset).Limit(limit).Find(&photos).Error
	if err != nil {
		return nil, 0, err
	}
	return photos, total, nil
}

// ListApproved is the guest-visible slice of ListByEvent.
func (r *PhotoRepository) ListApproved(ctx context.Context, eventID uint, offset, limit int) ([]models.Photo, int64, error) {
	return r.ListByEvent(ctx, eventID, models.ModerationApproved, offset, limit)
}

// ListAllByEvent returns every photo of an event, used when purging storage.
func (r *PhotoRepository) ListAllByEvent(ctx context.Context, eventID uint) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Find(&photos).Error
	return photos, err
}

func (r *PhotoRepository) UpdateModeration(ctx context.Context, id uint, status models.ModerationStatus, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Photo{}).Where("id = ?", id).Updates(map[string]interface{}{
		"moderation_status": status,
		"moderated_at":      at,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PhotoRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Photo{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PhotoRepository) CountByEventID(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Photo{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, err
}
