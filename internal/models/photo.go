package models

import (
	"time"
)

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case ModerationPending, ModerationApproved, ModerationRejected:
		return true
	}
	return false
}

// Photo is one guest upload. FileKey always points at a stored object;
// ThumbnailKey and DisplayKey are empty when derivation did not succeed.
type Photo struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	EventID          uint             `json:"event_id" gorm:"not null;index:idx_photos_event_status_uploaded,priority:1"`
	FileKey          string           `json:"file_key" gorm:"size:512;not null"`
	ThumbnailKey     string           `json:"thumbnail_key" gorm:"size:512"`
	DisplayKey       string           `json:"display_key" gorm:"size:512"`
	OriginalFilename string           `json:"original_filename" gorm:"size:255"`
	UploadedAt       time.Time        `json:"uploaded_at" gorm:"not null;index:idx_photos_event_status_uploaded,priority:3"`
	FileSize         int64            `json:"file_size"`
	ContentType      string           `json:"content_type" gorm:"size:255"`
	ModerationStatus ModerationStatus `json:"moderation_status" gorm:"size:16;not null;default:approved;index:idx_photos_event_status_uploaded,priority:2"`
	ModeratedAt      *time.Time       `json:"moderated_at"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Keys lists every storage key the photo references.
func (p *Photo) Keys() []string {
	keys := []string{p.FileKey}
	if p.ThumbnailKey != "" {
		keys = append(keys, p.ThumbnailKey)
	}
	if p.DisplayKey != "" {
		keys = append(keys, p.DisplayKey)
	}
	return keys
}

type PhotoResponse struct {
	ID               uint             `json:"id"`
	OriginalFilename string           `json:"original_filename"`
	UploadedAt       time.Time        `json:"uploaded_at"`
	FileSize         int64            `json:"file_size"`
	ContentType      string           `json:"content_type"`
	ModerationStatus ModerationStatus `json:"moderation_status"`
	URL              string           `json:"url"`
	ThumbnailURL     string           `json:"thumbnail_url"`
	DisplayURL       string           `json:"display_url"`
}

// AdminPhotoResponse adds the storage keys and moderation details.
type AdminPhotoResponse struct {
	PhotoResponse
	EventID      uint       `json:"event_id"`
	FileKey      string     `json:"file_key"`
	ThumbnailKey string     `json:"thumbnail_key,omitempty"`
	DisplayKey   string     `json:"display_key,omitempty"`
	ModeratedAt  *time.Time `json:"moderated_at,omitempty"`
}

// PhotoPage is the paginated guest listing.
type PhotoPage struct {
	Count    int64           `json:"count"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Next     *int            `json:"next"`
	Previous *int            `json:"previous"`
	Results  []PhotoResponse `json:"results"`
}

type ModeratePhotoRequest struct {
	Status ModerationStatus `json:"status" validate:"required,oneof=pending approved rejected"`
}
