package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sefazor/guestphotos-backend/internal/config"
)

// New builds the driver selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (ObjectStorage, error) {
	switch cfg.Driver {
	case "s3":
		s, err := NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoCreateBucket {
			if err := s.EnsureBucket(ctx); err != nil {
				return nil, err
			}
		}
		log.Info("object storage ready", zap.String("driver", "s3"), zap.String("bucket", cfg.Bucket),
			zap.String("endpoint", cfg.Endpoint), zap.String("public_endpoint", cfg.PublicEndpoint))
		return s, nil
	case "minio":
		s, err := NewMinioStorage(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoCreateBucket {
			if err := s.EnsureBucket(ctx); err != nil {
				return nil, err
			}
		}
		log.Info("object storage ready", zap.String("driver", "minio"), zap.String("bucket", cfg.Bucket),
			zap.String("endpoint", cfg.Endpoint), zap.String("public_endpoint", cfg.PublicEndpoint))
		return s, nil
	case "memory":
		log.Warn("using in-memory object storage; uploads are lost on restart")
		return NewMemoryStorage(cfg.Bucket), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
