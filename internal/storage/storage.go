package storage

import (
	"context"
	"time"
)

// UploadOptions conveys upload destination metadata.
type UploadOptions struct {
	Bucket           string
	Key              string
	ContentType      string
	ProgressCallback func(done, total int64)
}

// Service stores finished exports in remote object storage.
type Service interface {
	UploadFile(ctx context.Context, localPath string, opts UploadOptions) (string, error)
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}
