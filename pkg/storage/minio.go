package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sefazor/guestphotos-backend/internal/config"
)

// MinioStorage is the minio-go backed driver for self-hosted deployments.
type MinioStorage struct {
	client    *minio.Client
	presigner *minio.Client
	bucket    string
	region    string

	ensureOnce sync.Once
	ensureErr  error
}

func NewMinioStorage(cfg config.StorageConfig) (*MinioStorage, error) {
	client, err := newMinioClient(cfg.Endpoint, cfg)
	if err != nil {
		return nil, err
	}

	presigner := client
	if cfg.PublicEndpoint != "" {
		presigner, err = newMinioClient(cfg.PublicEndpoint, cfg)
		if err != nil {
			return nil, err
		}
	}

	return &MinioStorage{
		client:    client,
		presigner: presigner,
		bucket:    strings.TrimSpace(cfg.Bucket),
		region:    cfg.Region,
	}, nil
}

func newMinioClient(endpoint string, cfg config.StorageConfig) (*minio.Client, error) {
	host, secure, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	lookup := minio.BucketLookupAuto
	if cfg.UsePathStyle {
		lookup = minio.BucketLookupPath
	}

	// Region is pinned so presigning never has to ask the server for it.
	client, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       secure,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", host, err)
	}
	return client, nil
}

// parseEndpoint accepts "http://host:port", "https://host" or a bare
// "host:port" (treated as TLS).
func parseEndpoint(raw string) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("minio endpoint is required")
	}
	if !strings.Contains(raw, "://") {
		return strings.TrimRight(raw, "/"), true, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("endpoint %q has no host", raw)
	}
	return u.Host, u.Scheme == "https", nil
}

func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = err
			return
		}
		if exists {
			return
		}
		s.ensureErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})

	if s.ensureErr != nil {
		return fmt.Errorf("ensure minio bucket %q: %w", s.bucket, s.ensureErr)
	}
	return nil
}

func (s *MinioStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object to minio: %w", err)
	}
	return nil
}

func (s *MinioStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object from minio: %w", err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("stat object in minio: %w", err)
	}
	return obj, nil
}

func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object from minio: %w", err)
	}
	return nil
}

func (s *MinioStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.presigner.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}
	return u.String(), nil
}
