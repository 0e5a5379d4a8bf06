package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/models"
	"github.com/sefazor/guestphotos-backend/internal/service"
	jwtPkg "github.com/sefazor/guestphotos-backend/pkg/jwt"
)

type stubValidator struct {
	events map[string]*models.Event
}

func (s stubValidator) Validate(_ context.Context, token string) (*models.Event, error) {
	if token == "" {
		return nil, service.ErrTokenRequired
	}
	if e, ok := s.events[token]; ok {
		return e, nil
	}
	return nil, service.ErrInvalidToken
}

func guardedApp(location TokenLocation) *fiber.App {
	events := stubValidator{events: map[string]*models.Event{"good": {ID: 1, Code: "demo"}}}
	app := fiber.New()
	handler := func(c *fiber.Ctx) error {
		return c.SendString(EventFromContext(c).Code)
	}
	app.Get("/q", RequireEventToken(events, location, zap.NewNop()), handler)
	app.Post("/b", RequireEventToken(events, location, zap.NewNop()), handler)
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRequireEventTokenQuery(t *testing.T) {
	app := guardedApp(TokenInQuery)

	cases := []struct {
		target string
		status int
	}{
		{"/q?access_token=good", http.StatusOK},
		{"/q", http.StatusBadRequest},
		{"/q?access_token=bad", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, tc.target, nil))
		if status != tc.status {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.target, tc.status, status, body)
		}
		if status == http.StatusOK && body != "demo" {
			t.Fatalf("expected event to reach the handler, got %q", body)
		}
	}
}

func TestRequireEventTokenBody(t *testing.T) {
	app := guardedApp(TokenInBody)

	req := httptest.NewRequest(http.MethodPost, "/b", strings.NewReader(`{"access_token":"good"}`))
	req.Header.Set("Content-Type", "application/json")
	if status, body := doRequest(t, app, req); status != http.StatusOK || body != "demo" {
		t.Fatalf("json body: got %d %q", status, body)
	}

	req = httptest.NewRequest(http.MethodPost, "/b", strings.NewReader("access_token=good"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if status, _ := doRequest(t, app, req); status != http.StatusOK {
		t.Fatalf("form body: got %d", status)
	}

	req = httptest.NewRequest(http.MethodPost, "/b", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if status, body := doRequest(t, app, req); status != http.StatusBadRequest || !strings.Contains(body, "access_token is required") {
		t.Fatalf("missing token: got %d %q", status, body)
	}

	req = httptest.NewRequest(http.MethodPost, "/b", strings.NewReader(`{"access_token":"bad"}`))
	req.Header.Set("Content-Type", "application/json")
	if status, _ := doRequest(t, app, req); status != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d", status)
	}
}

func TestAuthMiddleware(t *testing.T) {
	tokens := jwtPkg.NewManager("secret", time.Hour)
	app := fiber.New()
	app.Get("/admin", AuthMiddleware(tokens, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(AdminSubject(c))
	})

	token, _, err := tokens.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Token " + token, http.StatusUnauthorized},
		{"Bearer nope", http.StatusUnauthorized},
		{"Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		status, body := doRequest(t, app, req)
		if status != tc.status {
			t.Fatalf("header %q: expected %d, got %d", tc.header, tc.status, status)
		}
		if status == http.StatusOK && body != "admin" {
			t.Fatalf("expected subject admin, got %q", body)
		}
	}
}

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStorage(client, "limiter:")
	defer store.Close()

	if v, err := store.Get("missing"); err != nil || v != nil {
		t.Fatalf("missing key: got %v, %v", v, err)
	}

	if err := store.Set("ip", []byte("1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("limiter:ip") {
		t.Fatalf("expected key to be prefixed")
	}
	v, err := store.Get("ip")
	if err != nil || string(v) != "1" {
		t.Fatalf("Get: %q, %v", v, err)
	}

	mr.FastForward(2 * time.Minute)
	if v, _ := store.Get("ip"); v != nil {
		t.Fatalf("expected key to expire, got %q", v)
	}

	_ = store.Set("a", []byte("x"), 0)
	_ = store.Set("b", []byte("y"), 0)
	mr.Set("other", "keep")
	if err := store.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists("limiter:a") {
		t.Fatalf("expected a to be deleted")
	}
	if err := store.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if mr.Exists("limiter:b") {
		t.Fatalf("expected Reset to clear prefixed keys")
	}
	if !mr.Exists("other") {
		t.Fatalf("Reset must not touch foreign keys")
	}
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop()))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	status, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if status != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}
}
