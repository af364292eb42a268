// Package storage persists uploaded listing photos and maps them to public URLs.
package storage

import (
	"context"
	"fmt"

	"secondmain/internal/config"
)

// Upload is a single file received with a request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Store saves and removes uploaded files. Keys are opaque and unique per
// saved file.
type Store interface {
	Save(ctx context.Context, upload Upload) (key string, err error)
	Delete(ctx context.Context, key string) error
	// URL returns the absolute public URL of key. requestBaseURL is the
	// scheme and host the current request arrived on, used when no public
	// base URL is configured.
	URL(key, requestBaseURL string) string
}

// NewStore builds the store selected by STORAGE_DRIVER.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
