package services

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/reset-corp/reset-backend/internal/config"
)

// ImageStore wraps the MinIO client used for product and profile images.
type ImageStore struct {
	mc        *minio.Client
	bucket    string
	publicURL string
	secure    bool
	endpoint  string
}

// NewImageStore creates the object storage client. Returns nil when no
// endpoint is configured; callers must treat a nil store as "uploads
// disabled".
func NewImageStore(cfg *config.Config) (*ImageStore, error) {
	if cfg.MinioEndpoint == "" {
		return nil, nil
	}
	if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
		return nil, fmt.Errorf("minio access_key and secret_key are required")
	}

	mc, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ImageStore{
		mc:        mc,
		bucket:    cfg.MinioBucket,
		publicURL: cfg.MinioPublicURL,
		secure:    cfg.MinioUseSSL,
		endpoint:  cfg.MinioEndpoint,
	}, nil
}

// EnsureBucket creates the bucket when missing.
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		log.Printf("[minio] created bucket %s", s.bucket)
	}
	return nil
}

// Upload stores an object and returns its public URL.
func (s *ImageStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.mc.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete removes an object. Missing objects are not an error.
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	return s.mc.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// URL returns the public URL for a stored object key.
func (s *ImageStore) URL(key string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key)
	}
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, key)
}
