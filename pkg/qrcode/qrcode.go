package qrcode

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 370
	MinSize     = 128
	MaxSize     = 2048
)

// QRService renders the QR codes guests scan to open an event gallery.
type QRService struct {
	baseURL string
}

func NewQRService(baseURL string) *QRService {
	return &QRService{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GuestURL is the frontend address carrying the event's access token.
func (s *QRService) GuestURL(accessToken string) string {
	return fmt.Sprintf("%s/?token=%s", s.baseURL, url.QueryEscape(accessToken))
}

// GenerateQRCode returns a PNG of the guest URL, size pixels square. Sizes
// outside MinSize..MaxSize are clamped.
func (s *QRService) GenerateQRCode(accessToken string, size int) ([]byte, error) {
	switch {
	case size <= 0:
		size = DefaultSize
	case size < MinSize:
		size = MinSize
	case size > MaxSize:
		size = MaxSize
	}

	png, err := qrcode.Encode(s.GuestURL(accessToken), qrcode.Low, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code PNG: %w", err)
	}
	return png, nil
}
