package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/samuel161415/BryteSpring/internal/config"
)

// SpacesStore talks to a DigitalOcean Spaces (or any S3-compatible)
// bucket through the minio client.
type SpacesStore struct {
	client      *minio.Client
	bucket      string
	endpoint    string
	cdnEndpoint string
	secure      bool
}

func NewSpaces(cfg config.SpacesConfig) (*SpacesStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object store client: %w", err)
	}

	return &SpacesStore{
		client:      client,
		bucket:      cfg.Bucket,
		endpoint:    cfg.Endpoint,
		cdnEndpoint: cfg.CDNEndpoint,
		secure:      cfg.Secure,
	}, nil
}

func (s *SpacesStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, reader, size, opts); err != nil {
		return "", fmt.Errorf("failed to store object %s: %w", key, err)
	}
	return s.objectURL(key), nil
}

func (s *SpacesStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *SpacesStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var entries []ObjectInfo
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, object.Err)
		}
		entries = append(entries, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			ContentType:  object.ContentType,
			LastModified: object.LastModified,
			URL:          s.objectURL(object.Key),
		})
	}
	return entries, nil
}

func (s *SpacesStore) objectURL(key string) string {
	if s.cdnEndpoint != "" {
		return fmt.Sprintf("%s/%s", s.cdnEndpoint, key)
	}
	scheme := "https"
	if !s.secure {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s.%s/%s", scheme, s.bucket, s.endpoint, key)
}
