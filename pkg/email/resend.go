package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/config"
)

// PendingPhoto describes an upload that waits for moderation.
type PendingPhoto struct {
	EventCode  string
	EventName  string
	PhotoID    uint
	Filename   string
	UploadedAt time.Time
}

type EmailService struct {
	client   *resend.Client
	from     string
	fromName string
	notifyTo []string
	adminURL string
	logger   *zap.Logger
}

func NewEmailService(cfg config.EmailConfig, logger *zap.Logger) *EmailService {
	s := &EmailService{
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
		notifyTo: splitRecipients(cfg.NotifyTo),
		adminURL: strings.TrimRight(cfg.AdminURL, "/"),
		logger:   logger.Named("email"),
	}
	if cfg.ResendAPIKey != "" {
		s.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return s
}

// Enabled reports whether notifications will actually be sent.
func (s *EmailService) Enabled() bool {
	return s.client != nil && s.from != "" && len(s.notifyTo) > 0
}

// NotifyPendingPhoto tells the operator a new photo waits for review.
// Without an API key, sender or recipient it only logs.
func (s *EmailService) NotifyPendingPhoto(_ context.Context, p PendingPhoto) error {
	if !s.Enabled() {
		s.logger.Debug("email disabled, skipping pending photo notification",
			zap.String("event", p.EventCode), zap.Uint("photo_id", p.PhotoID))
		return nil
	}

	subject, html, err := s.renderPendingPhoto(p)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.sender(),
		To:      s.notifyTo,
		Subject: subject,
		Html:    html,
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Error("failed to send pending photo notification",
			zap.String("event", p.EventCode), zap.Uint("photo_id", p.PhotoID), zap.Error(err))
		return fmt.Errorf("send pending photo notification: %w", err)
	}

	s.logger.Info("pending photo notification sent",
		zap.String("event", p.EventCode), zap.Uint("photo_id", p.PhotoID), zap.String("email_id", resp.Id))
	return nil
}

var pendingPhotoTemplate = template.Must(template.New("pending-photo").Parse(`<p>A new photo was uploaded to <strong>{{.EventName}}</strong> and is waiting for review.</p>
<ul>
  <li>Event: {{.EventCode}}</li>
  <li>File: {{.Filename}}</li>
  <li>Uploaded: {{.UploadedAt}}</li>
</ul>
{{if .ReviewURL}}<p><a href="{{.ReviewURL}}">Review pending photos</a></p>{{end}}`))

func (s *EmailService) renderPendingPhoto(p PendingPhoto) (string, string, error) {
	data := map[string]interface{}{
		"EventName":  p.EventName,
		"EventCode":  p.EventCode,
		"Filename":   p.Filename,
		"UploadedAt": p.UploadedAt.UTC().Format(time.RFC1123),
		"ReviewURL":  "",
	}
	if s.adminURL != "" {
		data["ReviewURL"] = fmt.Sprintf("%s/events/%s/photos?status=pending", s.adminURL, p.EventCode)
	}

	var body bytes.Buffer
	if err := pendingPhotoTemplate.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render pending photo email: %w", err)
	}

	subject := fmt.Sprintf("New photo awaiting review - %s", p.EventName)
	return subject, body.String(), nil
}

func (s *EmailService) sender() string {
	if s.fromName == "" {
		return s.from
	}
	return s.fromName + " <" + s.from + ">"
}

func splitRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
