package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Page   int
	Limit  int
	Search string
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, verse *Verse) error
	FindByID(ctx context.Context, id snowflake.ID) (*Verse, error)
	// FindActiveBySubdomain only matches verses that are not soft deleted,
	// so a subdomain is reusable once its verse is deactivated.
	FindActiveBySubdomain(ctx context.Context, subdomain string) (*Verse, error)
	Update(ctx context.Context, verse *Verse) error
	SoftDelete(ctx context.Context, id snowflake.ID) error
	List(ctx context.Context, filter ListFilter) ([]Verse, int64, error)
}
