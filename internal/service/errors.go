package service

import "errors"

var (
	ErrTokenRequired       = errors.New("access_token is required")
	ErrInvalidToken        = errors.New("invalid or inactive access token")
	ErrEventNotFound       = errors.New("event not found")
	ErrFileRequired        = errors.New("photo file is required")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrPhotoNotFound       = errors.New("photo not found")
	ErrInvalidStatus       = errors.New("invalid moderation status")
	ErrEventCodeTaken      = errors.New("event code is already in use")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidDate         = errors.New("date must be YYYY-MM-DD")
	ErrStorage             = errors.New("storage error")
)
