package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Image      ImageConfig      `yaml:"image"`
	Gallery    GalleryConfig    `yaml:"gallery"`
	Moderation ModerationConfig `yaml:"moderation"`
	Admin      AdminConfig      `yaml:"admin"`
	Email      EmailConfig      `yaml:"email"`
	Captcha    CaptchaConfig    `yaml:"captcha"`
	Redis      RedisConfig      `yaml:"redis"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port"`
	AllowOrigins    string        `yaml:"allow_origins"`
	BodyLimitMB     int           `yaml:"body_limit_mb"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// StorageConfig describes the S3-compatible object store. Endpoint is the
// address the server reaches the store on; PublicEndpoint is the address
// browsers use, and presigned URLs are signed for it when set.
type StorageConfig struct {
	Driver           string        `yaml:"driver"`
	Bucket           string        `yaml:"bucket"`
	Region           string        `yaml:"region"`
	Endpoint         string        `yaml:"endpoint"`
	PublicEndpoint   string        `yaml:"public_endpoint"`
	AccessKeyID      string        `yaml:"access_key_id"`
	SecretAccessKey  string        `yaml:"secret_access_key"`
	UsePathStyle     bool          `yaml:"use_path_style"`
	AutoCreateBucket bool          `yaml:"auto_create_bucket"`
	PresignTTL       time.Duration `yaml:"presign_ttl"`
}

type ImageConfig struct {
	ThumbnailMaxDimension int `yaml:"thumbnail_max_dimension"`
	DisplayMaxDimension   int `yaml:"display_max_dimension"`
	Quality               int `yaml:"quality"`
}

type GalleryConfig struct {
	PageSize    int `yaml:"page_size"`
	MaxPageSize int `yaml:"max_page_size"`

	// FrontendBaseURL is where guests land; QR codes point at it.
	FrontendBaseURL string `yaml:"frontend_base_url"`
}

type ModerationConfig struct {
	// DefaultStatus is applied to freshly uploaded photos: "approved" or "pending".
	DefaultStatus string `yaml:"default_status"`
}

type AdminConfig struct {
	Username     string        `yaml:"username"`
	PasswordHash string        `yaml:"password_hash"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

type EmailConfig struct {
	ResendAPIKey string `yaml:"resend_api_key"`
	FromAddress  string `yaml:"from_address"`
	FromName     string `yaml:"from_name"`
	NotifyTo     string `yaml:"notify_to"`
	AdminURL     string `yaml:"admin_url"`
}

// CaptchaConfig enables Cloudflare Turnstile on guest uploads when
// TurnstileSecret is set.
type CaptchaConfig struct {
	TurnstileSecret string `yaml:"turnstile_secret"`
	VerifyURL       string `yaml:"verify_url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	Max        int           `yaml:"max"`
	Expiration time.Duration `yaml:"expiration"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:            "8080",
			AllowOrigins:    "http://localhost:3000",
			BodyLimitMB:     20,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Database: DatabaseConfig{
			Driver: "postgres",
		},
		Storage: StorageConfig{
			Driver:     "s3",
			Bucket:     "wedding-gallery",
			Region:     "eu-central-1",
			PresignTTL: time.Hour,
		},
		Image: ImageConfig{
			ThumbnailMaxDimension: 400,
			DisplayMaxDimension:   1920,
			Quality:               80,
		},
		Gallery: GalleryConfig{
			PageSize:        20,
			MaxPageSize:     100,
			FrontendBaseURL: "http://localhost:3000",
		},
		Moderation: ModerationConfig{DefaultStatus: "approved"},
		Admin: AdminConfig{
			Username: "admin",
			TokenTTL: 12 * time.Hour,
		},
		Email: EmailConfig{
			FromName: "Guest Gallery",
		},
		RateLimit: RateLimitConfig{
			Max:        60,
			Expiration: time.Minute,
		},
	}
}

// Load starts from Default, overlays the YAML file at path (if any) and then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is not set")
	}

	switch c.Storage.Driver {
	case "s3", "minio", "memory":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage bucket is required")
	}
	if c.Storage.PresignTTL <= 0 {
		return errors.New("storage presign ttl must be positive")
	}

	switch c.Moderation.DefaultStatus {
	case "approved", "pending":
	default:
		return fmt.Errorf("unsupported default moderation status %q", c.Moderation.DefaultStatus)
	}

	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return fmt.Errorf("image quality must be within 1..100, got %d", c.Image.Quality)
	}
	if c.Image.ThumbnailMaxDimension <= 0 || c.Image.DisplayMaxDimension <= 0 {
		return errors.New("image dimensions must be positive")
	}

	if c.Gallery.PageSize <= 0 || c.Gallery.MaxPageSize < c.Gallery.PageSize {
		return errors.New("gallery page sizes are inconsistent")
	}

	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTP.Port, "PORT")
	setString(&cfg.HTTP.AllowOrigins, "CORS_ALLOW_ORIGINS")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.URL, "DATABASE_URL")

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.Bucket, "MINIO_BUCKET_NAME")
	setString(&cfg.Storage.Bucket, "AWS_STORAGE_BUCKET_NAME")
	setString(&cfg.Storage.Region, "AWS_S3_REGION_NAME")
	setString(&cfg.Storage.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")
	setString(&cfg.Storage.PublicEndpoint, "STORAGE_PUBLIC_ENDPOINT")
	setString(&cfg.Storage.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	// MinIO deployments usually only carry root credentials.
	if cfg.Storage.AccessKeyID == "" {
		setString(&cfg.Storage.AccessKeyID, "MINIO_ROOT_USER")
	}
	if cfg.Storage.SecretAccessKey == "" {
		setString(&cfg.Storage.SecretAccessKey, "MINIO_ROOT_PASSWORD")
	}

	if err := setBool(&cfg.Storage.UsePathStyle, "STORAGE_USE_PATH_STYLE"); err != nil {
		return err
	}
	if err := setBool(&cfg.Storage.AutoCreateBucket, "STORAGE_AUTO_CREATE_BUCKET"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Storage.PresignTTL, "STORAGE_PRESIGN_TTL"); err != nil {
		return err
	}

	if err := setInt(&cfg.Image.ThumbnailMaxDimension, "IMAGE_THUMBNAIL_MAX_DIMENSION"); err != nil {
		return err
	}
	if err := setInt(&cfg.Image.DisplayMaxDimension, "IMAGE_DISPLAY_MAX_DIMENSION"); err != nil {
		return err
	}
	if err := setInt(&cfg.Image.Quality, "IMAGE_QUALITY"); err != nil {
		return err
	}

	if err := setInt(&cfg.Gallery.PageSize, "GALLERY_PAGE_SIZE"); err != nil {
		return err
	}
	if err := setInt(&cfg.Gallery.MaxPageSize, "GALLERY_MAX_PAGE_SIZE"); err != nil {
		return err
	}

	setString(&cfg.Gallery.FrontendBaseURL, "FRONTEND_BASE_URL")

	setString(&cfg.Moderation.DefaultStatus, "MODERATION_DEFAULT_STATUS")
	cfg.Moderation.DefaultStatus = strings.ToLower(strings.TrimSpace(cfg.Moderation.DefaultStatus))

	setString(&cfg.Admin.Username, "ADMIN_USERNAME")
	setString(&cfg.Admin.PasswordHash, "ADMIN_PASSWORD_HASH")
	setString(&cfg.Admin.JWTSecret, "JWT_SECRET")
	if err := setDuration(&cfg.Admin.TokenTTL, "ADMIN_TOKEN_TTL"); err != nil {
		return err
	}

	setString(&cfg.Email.ResendAPIKey, "RESEND_API_KEY")
	setString(&cfg.Email.FromAddress, "EMAIL_FROM_ADDRESS")
	setString(&cfg.Email.FromName, "EMAIL_FROM_NAME")
	setString(&cfg.Email.NotifyTo, "EMAIL_NOTIFY_TO")
	setString(&cfg.Email.AdminURL, "ADMIN_URL")

	setString(&cfg.Captcha.TurnstileSecret, "CF_TURNSTILE_SECRET_KEY")
	setString(&cfg.Captcha.VerifyURL, "CF_TURNSTILE_VERIFY_URL")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	if err := setInt(&cfg.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}

	if err := setInt(&cfg.RateLimit.Max, "RATE_LIMIT_MAX"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RateLimit.Expiration, "RATE_LIMIT_EXPIRATION"); err != nil {
		return err
	}

	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}
