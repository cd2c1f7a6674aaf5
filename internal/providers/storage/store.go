package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ObjectInfo describes one stored object under a prefix.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url"`
}

// ObjectStore abstracts the S3-compatible bucket the upload gateway
// streams into. Put returns the public URL of the stored object.
type ObjectStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

var ErrNotConfigured = errors.New("object_store_not_configured")

// NoOpStore rejects every call. Used when no bucket is configured so
// the rest of the application still boots.
type NoOpStore struct{}

func (s *NoOpStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) (string, error) {
	return "", ErrNotConfigured
}

func (s *NoOpStore) Delete(ctx context.Context, key string) error {
	return ErrNotConfigured
}

func (s *NoOpStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	return nil, ErrNotConfigured
}
