package storage

import (
	"context"
	"time"
)

// IObjectStorage S3-совместимое хранилище (MinIO)
type IObjectStorage interface {
	PutObject(ctx context.Context, path string, data []byte, contentType string) error
	GetPresignedURL(ctx context.Context, path string, expires time.Duration) (string, error)
}
