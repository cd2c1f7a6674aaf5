package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samuel161415/BryteSpring/pkg/db/pagination"
)

// Entry is a single activity to record. Actor and request metadata
// missing from the entry are filled in from the request context.
type Entry struct {
	VerseID      *snowflake.ID
	UserID       *snowflake.ID
	Action       string
	ResourceType string
	ResourceID   *string
	Severity     string
	Details      map[string]any
}

type ListActivityRequest struct {
	pagination.Pagination
	VerseID      snowflake.ID
	Action       string
	ResourceType string
	ResourceID   string
	Severity     string
	StartAt      *time.Time
	EndAt        *time.Time
}

type ListActivityResponse struct {
	pagination.PageInfo
	Activities []ActivityLog `json:"activities"`
}

type Service interface {
	Record(ctx context.Context, entry Entry) error
	ListByVerse(ctx context.Context, req ListActivityRequest) (ListActivityResponse, error)
}

var (
	ErrInvalidVerse     = errors.New("invalid_verse")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidAction    = errors.New("invalid_action")
)
