package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Service uploads export files to Amazon S3 (or compatible APIs).
type S3Service struct {
	client   *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
}

func NewS3Service(client *s3.Client) *S3Service {
	return &S3Service{
		client:   client,
		uploader: manager.NewUploader(client),
		presign:  s3.NewPresignClient(client),
	}
}

func (s *S3Service) UploadFile(ctx context.Context, localPath string, opts UploadOptions) (string, error) {
	if opts.Bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	key := strings.TrimPrefix(opts.Key, "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open file %s: %w", localPath, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat file %s: %w", localPath, err)
	}
	if fi.IsDir() {
		return "", fmt.Errorf("local path must be a file")
	}

	var reader io.Reader = f
	progress := newProgressReporter(fi.Size(), opts.ProgressCallback)
	if progress != nil {
		progress.report(0)
		reader = io.TeeReader(f, progress)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(opts.Bucket),
		Key:    aws.String(key),
		Body:   reader,
		ACL:    types.ObjectCannedACLPrivate,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", localPath, err)
	}

	if progress != nil {
		progress.flush()
	}

	return Location(opts.Bucket, key), nil
}

func (s *S3Service) GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	if expires <= 0 {
		expires = 15 * time.Minute
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return req.URL, nil
}

func (s *S3Service) DeleteObject(ctx context.Context, bucket, key string) error {
	if bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("object key is required")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

var _ Service = (*S3Service)(nil)

type progressReporter struct {
	total    int64
	done     int64
	cb       func(done, total int64)
	mu       sync.Mutex
	lastFire time.Time
}

func newProgressReporter(total int64, cb func(done, total int64)) *progressReporter {
	if cb == nil {
		return nil
	}
	return &progressReporter{
		total: total,
		cb:    cb,
	}
}

func (p *progressReporter) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done += int64(len(b))
	now := time.Now()
	if now.Sub(p.lastFire) >= 200*time.Millisecond || p.done == p.total {
		p.lastFire = now
		p.cb(p.done, p.total)
	}

	return len(b), nil
}

func (p *progressReporter) report(done int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = done
	p.lastFire = time.Now()
	p.cb(p.done, p.total)
}

func (p *progressReporter) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cb(p.done, p.total)
}
