package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sefazor/guestphotos-backend/internal/config"
	"github.com/sefazor/guestphotos-backend/internal/models"
	"github.com/sefazor/guestphotos-backend/internal/repository"
	"github.com/sefazor/guestphotos-backend/pkg/database"
	"github.com/sefazor/guestphotos-backend/pkg/email"
	"github.com/sefazor/guestphotos-backend/pkg/imageproc"
	"github.com/sefazor/guestphotos-backend/pkg/storage"
)

type fixture struct {
	db      *gorm.DB
	events  *EventService
	photos  *PhotoService
	store   *storage.MemoryStorage
	notices *recordingNotifier
	event   *models.Event
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []email.PendingPhoto
	err     error
}

func (n *recordingNotifier) NotifyPendingPhoto(_ context.Context, p email.PendingPhoto) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, p)
	return n.err
}

type brokenProcessor struct{}

func (brokenProcessor) Thumbnail([]byte) ([]byte, string, error) {
	return nil, "", errors.New("decoder exploded")
}

func (brokenProcessor) Display([]byte) ([]byte, string, error) {
	return nil, "", errors.New("decoder exploded")
}

// failingStorage rejects every upload.
type failingStorage struct {
	*storage.MemoryStorage
}

func (failingStorage) Upload(context.Context, string, io.Reader, int64, string) error {
	return errors.New("connection refused")
}

func testConfig(defaultStatus string) *config.Config {
	cfg := config.Default()
	cfg.Moderation.DefaultStatus = defaultStatus
	return &cfg
}

func newFixture(t *testing.T, cfg *config.Config, store storage.ObjectStorage, images ImageProcessor) *fixture {
	t.Helper()

	db, err := database.OpenSQLiteMemory("svc_" + uuid.NewString())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mem := storage.NewMemoryStorage(cfg.Storage.Bucket)
	if store == nil {
		store = mem
	}
	if images == nil {
		images = imageproc.NewProcessor(imageproc.Options{
			ThumbnailMaxDimension: cfg.Image.ThumbnailMaxDimension,
			DisplayMaxDimension:   cfg.Image.DisplayMaxDimension,
			Quality:               cfg.Image.Quality,
		})
	}

	eventRepo := repository.NewEventRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	notifier := &recordingNotifier{}

	f := &fixture{
		db:      db,
		events:  NewEventService(eventRepo, photoRepo, store, zap.NewNop()),
		photos:  NewPhotoService(photoRepo, store, images, notifier, cfg, zap.NewNop()),
		store:   mem,
		notices: notifier,
	}

	f.event, err = f.events.CreateEvent(context.Background(), models.CreateEventRequest{Code: "demo", Name: "Demo"})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return f
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 20), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func countPhotos(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Photo{}).Count(&n).Error; err != nil {
		t.Fatalf("count photos: %v", err)
	}
	return n
}

func TestValidateAndLookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig("approved"), nil, nil)

	got, err := f.events.Validate(ctx, f.event.AccessToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.Code != "demo" {
		t.Fatalf("expected demo, got %q", got.Code)
	}

	if _, err := f.events.Validate(ctx, "  "); !errors.Is(err, ErrTokenRequired) {
		t.Fatalf("empty token: expected ErrTokenRequired, got %v", err)
	}
	if _, err := f.events.Validate(ctx, "wrong"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unknown token: expected ErrInvalidToken, got %v", err)
	}
	if _, err := f.events.LookupByToken(ctx, "wrong"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("lookup: expected ErrEventNotFound, got %v", err)
	}

	if _, err := f.events.Deactivate(ctx, "demo"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := f.events.Validate(ctx, f.event.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("inactive event: expected ErrInvalidToken, got %v", err)
	}
	if _, err := f.events.LookupByToken(ctx, f.event.AccessToken); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("inactive lookup: expected ErrEventNotFound, got %v", err)
	}
}

func TestCreateEventRejectsDuplicateCode(t *testing.T) {
	f := newFixture(t, testConfig("approved"), nil, nil)
	_, err := f.events.CreateEvent(context.Background(), models.CreateEventRequest{Code: "demo", Name: "Again"})
	if !errors.Is(err, ErrEventCodeTaken) {
		t.Fatalf("expected ErrEventCodeTaken, got %v", err)
	}
}

func TestUpdateEventKeepsTokenAndParsesDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig("approved"), nil, nil)

	name := "Anna & Ben"
	date := "2025-06-01"
	updated, err := f.events.UpdateEvent(ctx, "demo", models.UpdateEventRequest{Name: &name, Date: &date})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if updated.AccessToken != f.event.AccessToken {
		t.Fatalf("update must not change the access token")
	}
	if got := updated.DateString(); got == nil || *got != "2025-06-01" {
		t.Fatalf("unexpected date %v", got)
	}

	bad := "01/06/2025"
	if _, err := f.events.UpdateEvent(ctx, "demo", models.UpdateEventRequest{Date: &bad}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := f.events.UpdateEvent(ctx, "missing", models.UpdateEventRequest{Name: &name}); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestRotateTokenInvalidatesOldToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig("approved"), nil, nil)
	old := f.event.AccessToken

	rotated, err := f.events.RotateToken(ctx, "demo")
	if err != nil {
		t.Fatalf("RotateToken: %v", err)
	}
	if rotated.AccessToken == old || rotated.AccessToken == "" {
		t.Fatalf("expected a fresh token")
	}
	if _, err := f.events.Validate(ctx, old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("old token must stop working, got %v", err)
	}
	if _, err := f.events.Validate(ctx, rotated.AccessToken); err != nil {
		t.Fatalf("new token must work: %v", err)
	}
}

func TestUploadStoresOriginalAndVariants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig("approved"), nil, nil)

	photo, err := f.photos.Upload(ctx, f.event, UploadInput{
		Filename:    "a.jpg",
		ContentType: "image/jpeg",
		Data:        jpegBytes(t, 10, 10),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if !strings.HasPrefix(photo.FileKey, "demo/") || !strings.HasSuffix(photo.FileKey, ".jpg") {
		t.Fatalf("unexpected original key %q", photo.FileKey)
	}
	base := strings.TrimSuffix(photo.FileKey, ".jpg")
	if photo.ThumbnailKey != base+"_thumbnail.webp" {
		t.Fatalf("unexpected thumbnail key %q", photo.ThumbnailKey)
	}
	if photo.DisplayKey != base+"_display.webp" {
		t.Fatalf("unexpected display key %q", photo.DisplayKey)
	}
	if photo.ModerationStatus != models.ModerationApproved {
		t.Fatalf("expected approved, got %q", photo.ModerationStatus)
	}
	if photo.OriginalFilename != "a.jpg" || photo.FileSize == 0 {
		t.Fatalf("unexpected metadata %+v", photo)
	}

	if keys := f.store.Keys(); len(keys) != 3 {
		t.Fatalf("expected 3 stored objects, got %v", keys)
	}
	if ct, _ := f.store.ContentType(photo.ThumbnailKey); ct != imageproc.ContentTypeWebP {
		t.Fatalf("thumbnail stored as %q", ct)
	}
	if len(f.notices.notices) != 0 {
		t.Fatalf("approved uploads must not notify")
	}
}

func TestUploadDetectsMissingContentType(t *testing.T) {
	f := newFixture(t, testConfig("approved"), nil, nil)

	photo, err := f.photos.Upload(context.Background(), f.event, UploadInput{
		Filename:    "a.JPG",
		ContentType: "application/octet-stream",
		Data:        jpegBytes(t, 10, 10),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if photo.ContentType != "image/jpeg" {
		t.Fatalf("expected detected image/jpeg, got %q", photo.ContentType)
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig("approved"), nil, nil)

	if _, err := f.photos.Upload(ctx, f.event, UploadInput{Filename: "a.jpg"}); !errors.Is(err, ErrFileRequired) {
		t.Fatalf("expected ErrFileRequired, got %v", err)
	}
	if _, err := f.photos.Upload(ctx, f.event, UploadInput{Filename: "a.exe", Data: []byte("MZ")}); !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
	if _, err := f.photos.Upload(ctx, f.event, UploadInput{Filename: "jpg", Data: []byte("x")}); !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("extension-less name: expected ErrUnsupportedFileType, got %v", err)
	}

	if keys := f.store.Keys(); len(keys) != 0 {
		t.Fatalf("rejected uploads must not store objects: %v", keys)
	}
	if n := countPhotos(t, f.db); n != 0 {
		t.Fatalf("rejected uploads must not create records, got %d", n)
	}
}

func TestUploadSurvivesDerivationFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig("approved"), nil, brokenProcessor{})

	photo, err := f.photos.Upload(ctx, f.event, UploadInput{Filename: "a.png", Data: []byte("not really a png")})
	if err != nil {
		t.Fatalf("derivation failure must not fail the upload: %v", err)
	}
	if photo.ThumbnailKey != "" || photo.DisplayKey != "" {
		t.Fatalf("expected no variants, got %+v", photo)
	}
	if keys := f.store.Keys(); len(keys) != 1 || keys[0] != photo.FileKey {
		t.Fatalf("expected only the original to be stored, got %v", keys)
	}

	resp, err := f.photos.Present(ctx, photo)
	if err != nil {
		t.Fatalf("Present: %v", err)
	}
	if resp.ThumbnailURL != resp.URL || resp.DisplayURL != resp.URL {
		t.Fatalf("variant URLs must fall back to the original: %+v", resp)
	}
}

func TestUploadStorageFailureLeavesNoRecord(t *testing.T) {
	cfg := testConfig("approved")
	store := failingStorage{storage.NewMemoryStorage(cfg.Storage.Bucket)}
	f := newFixture(t, cfg, store, nil)

	_, err := f.photos.Upload(context.Background(), f.event, UploadInput{Filename: "a.jpg", Data: jpegBytes(t, 10, 10)})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("error must carry the cause: %v", err)
	}
	if n := countPhotos(t, f.db); n != 0 {
		t.Fatalf("expected no photo record, got %d", n)
	}
}

func TestPendingUploadsAreHiddenAndNotified(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig("pending"), nil, nil)
	f.notices.err = errors.New("mail down")

	photo, err := f.photos.Upload(ctx, f.event, UploadInput{Filename: "a.jpg", Data: jpegBytes(t, 10, 10)})
	if err != nil {
		t.Fatalf("notifier failure must not fail the upload: %v", err)
	}
	if photo.ModerationStatus != models.ModerationPending {
		t.Fatalf("expected pending, got %q", photo.ModerationStatus)
	}
	if len(f.notices.notices) != 1 || f.notices.notices[0].EventCode != "demo" {
		t.Fatalf("expected one notification, got %+v", f.notices.notices)
	}

	page, err := f.photos.ListApproved(ctx, f.event, f.photos.PageParams("", ""))
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if page.Count != 0 || len(page.Results) != 0 {
		t.Fatalf("pending photo leaked into guest listing: %+v", page)
	}

	if _, err := f.photos.Moderate(ctx, photo.ID, models.ModerationApproved); err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	page, err = f.photos.ListApproved(ctx, f.event, f.photos.PageParams("", ""))
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if page.Count != 1 || page.Results[0].ID != photo.ID {
		t.Fatalf("approved photo must be listed: %+v", page)
	}
}

func TestListApprovedOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig("approved"), nil, brokenProcessor{})

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.photos.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	var ids []uint
	for i := 0; i < 5; i++ {
		p, err := f.photos.Upload(ctx, f.event, UploadInput{Filename: "p.jpg", Data: []byte{byte(i + 1)}})
		if err != nil {
			t.Fatalf("Upload %d: %v", i, err)
		}
		ids = append(ids, p.ID)
	}

	first, err := f.photos.ListApproved(ctx, f.event, f.photos.PageParams("1", "2"))
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if first.Count != 5 || first.PageSize != 2 || len(first.Results) != 2 {
		t.Fatalf("unexpected first page %+v", first)
	}
	if first.Results[0].ID != ids[4] || first.Results[1].ID != ids[3] {
		t.Fatalf("expected newest first, got %d, %d", first.Results[0].ID, first.Results[1].ID)
	}
	if first.Next == nil || *first.Next != 2 || first.Previous != nil {
		t.Fatalf("unexpected neighbours next=%v prev=%v", first.Next, first.Previous)
	}

	last, err := f.photos.ListApproved(ctx, f.event, f.photos.PageParams("3", "2"))
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if len(last.Results) != 1 || last.Results[0].ID != ids[0] || last.Next != nil {
		t.Fatalf("unexpected last page %+v", last)
	}

	for _, r := range first.Results {
		if !strings.HasPrefix(r.URL, "memory://wedding-gallery/") {
			t.Fatalf("expected presigned URL, got %q", r.URL)
		}
	}
}

func TestListForEventFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig("pending"), nil, brokenProcessor{})

	a, _ := f.photos.Upload(ctx, f.event, UploadInput{Filename: "a.jpg", Data: []byte{1}})
	if _, err := f.photos.Upload(ctx, f.event, UploadInput{Filename: "b.jpg", Data: []byte{2}}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := f.photos.Moderate(ctx, a.ID, models.ModerationRejected); err != nil {
		t.Fatalf("Moderate: %v", err)
	}

	p := f.photos.PageParams("", "")
	rejected, meta, err := f.photos.ListForEvent(ctx, f.event, "rejected", p)
	if err != nil {
		t.Fatalf("ListForEvent: %v", err)
	}
	if meta.Total != 1 || rejected[0].ID != a.ID || rejected[0].ModeratedAt == nil {
		t.Fatalf("unexpected rejected listing %+v", rejected)
	}

	all, meta, err := f.photos.ListForEvent(ctx, f.event, "", p)
	if err != nil || meta.Total != 2 || len(all) != 2 {
		t.Fatalf("unfiltered listing: %d items, meta %+v, err %v", len(all), meta, err)
	}

	if _, _, err := f.photos.ListForEvent(ctx, f.event, "bogus", p); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := f.photos.Moderate(ctx, a.ID, "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := f.photos.Moderate(ctx, 9999, models.ModerationApproved); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("expected ErrPhotoNotFound, got %v", err)
	}
}

func TestDeletePhotoRemovesObjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig("approved"), nil, nil)

	photo, err := f.photos.Upload(ctx, f.event, UploadInput{Filename: "a.jpg", Data: jpegBytes(t, 10, 10)})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	_, body, err := f.photos.Open(ctx, photo.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(body)
	body.Close()
	if len(data) != int(photo.FileSize) {
		t.Fatalf("downloaded %d bytes, want %d", len(data), photo.FileSize)
	}

	if err := f.photos.DeletePhoto(ctx, photo.ID); err != nil {
		t.Fatalf("DeletePhoto: %v", err)
	}
	if keys := f.store.Keys(); len(keys) != 0 {
		t.Fatalf("expected storage to be empty, got %v", keys)
	}
	if err := f.photos.DeletePhoto(ctx, photo.ID); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("expected ErrPhotoNotFound, got %v", err)
	}
}

func TestDeleteEventPurgesPhotos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig("approved"), nil, nil)

	for i := 0; i < 2; i++ {
		if _, err := f.photos.Upload(ctx, f.event, UploadInput{Filename: "a.jpg", Data: jpegBytes(t, 10, 10)}); err != nil {
			t.Fatalf("Upload: %v", err)
		}
	}

	if err := f.events.DeleteEvent(ctx, "demo"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if keys := f.store.Keys(); len(keys) != 0 {
		t.Fatalf("expected storage to be empty, got %v", keys)
	}
	if n := countPhotos(t, f.db); n != 0 {
		t.Fatalf("expected no photo rows, got %d", n)
	}
	if _, err := f.events.GetByCode(ctx, "demo"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}
