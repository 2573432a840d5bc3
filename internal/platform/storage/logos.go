// Package storage stores user logos in an S3 compatible bucket (Cloudflare R2, MinIO, S3).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotConfigured is returned when no bucket credentials were supplied.
var ErrNotConfigured = errors.New("storage: not configured")

// Config describes the bucket connection.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	UseSSL    bool
}

// Configured reports whether enough settings exist to reach the bucket.
func (c Config) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != "" && c.PublicURL != ""
}

type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// LogoStore uploads and removes logo objects.
type LogoStore struct {
	client    objectClient
	bucket    string
	publicURL string
}

// NewLogoStore connects a minio client to the configured endpoint.
func NewLogoStore(cfg Config) (*LogoStore, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: new client: %w", err)
	}
	return newLogoStore(client, cfg.Bucket, cfg.PublicURL), nil
}

func newLogoStore(client objectClient, bucket, publicURL string) *LogoStore {
	return &LogoStore{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

var extensions = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/svg+xml": "svg",
	"image/webp":    "webp",
}

// AllowedContentType reports whether a logo of this type is accepted.
func AllowedContentType(contentType string) bool {
	_, ok := extensions[contentType]
	return ok
}

// UploadLogo writes the logo under logos/<user>/<random>.<ext> and returns its public URL.
func (s *LogoStore) UploadLogo(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrNotConfigured
	}
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("storage: unsupported content type %q", contentType)
	}
	key := fmt.Sprintf("logos/%s/%s.%s", userID, uuid.NewString(), ext)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

// DeleteLogo removes the object stored under key.
func (s *LogoStore) DeleteLogo(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return ErrNotConfigured
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage: remove %s: %w", key, err)
	}
	return nil
}

// KeyFromURL extracts the object key from a URL produced by UploadLogo.
func (s *LogoStore) KeyFromURL(url string) (string, bool) {
	if s == nil {
		return "", false
	}
	key, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
