package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sefazor/guestphotos-backend/pkg/utils"
)

// Event is a single celebration whose guests share one gallery. Guests reach
// it through AccessToken, which is embedded in the event's QR code.
type Event struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Code        string          `json:"code" gorm:"size:50;uniqueIndex;not null"`
	Name        string          `json:"name" gorm:"size:255;not null"`
	AccessToken string          `json:"-" gorm:"size:128;uniqueIndex;not null"`
	Description string          `json:"description"`
	Date        *datatypes.Date `json:"date"`
	IsActive    bool            `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Photos      []Photo         `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns the access token on first persistence only.
func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.AccessToken != "" {
		return nil
	}
	token, err := utils.GenerateAccessToken()
	if err != nil {
		return err
	}
	e.AccessToken = token
	return nil
}

// DateString formats Date as YYYY-MM-DD, or nil when unset.
func (e *Event) DateString() *string {
	if e.Date == nil {
		return nil
	}
	s := time.Time(*e.Date).Format(DateLayout)
	return &s
}

const DateLayout = "2006-01-02"

type ValidateTokenRequest struct {
	AccessToken string `json:"access_token" form:"access_token" validate:"required,max=128"`
}

type CreateEventRequest struct {
	Code        string `json:"code" validate:"required,slug,max=50"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	IsActive    *bool  `json:"is_active"`
}

type UpdateEventRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	IsActive    *bool   `json:"is_active"`
}

// EventResponse is what guests see: never the access token.
type EventResponse struct {
	ID          uint    `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Date        *string `json:"date"`
}

type ValidateTokenResponse struct {
	Valid bool           `json:"valid"`
	Event *EventResponse `json:"event,omitempty"`
	Error string         `json:"error,omitempty"`
}

// AdminEventResponse is the operator view, token and photo count included.
type AdminEventResponse struct {
	EventResponse
	AccessToken string    `json:"access_token"`
	IsActive    bool      `json:"is_active"`
	PhotoCount  int64     `json:"photo_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewEventResponse(e *Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Code:        e.Code,
		Name:        e.Name,
		Description: e.Description,
		Date:        e.DateString(),
	}
}

func NewAdminEventResponse(e *Event, photoCount int64) AdminEventResponse {
	return AdminEventResponse{
		EventResponse: NewEventResponse(e),
		AccessToken:   e.AccessToken,
		IsActive:      e.IsActive,
		PhotoCount:    photoCount,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
