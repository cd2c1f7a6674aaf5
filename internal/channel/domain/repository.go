package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, channel *Channel) error
	FindByID(ctx context.Context, id snowflake.ID) (*Channel, error)
	FindSibling(ctx context.Context, verseID snowflake.ID, parentID *snowflake.ID, nodeType, name string) (*Channel, error)
	ListByVerse(ctx context.Context, verseID snowflake.ID) ([]Channel, error)
	ListChildren(ctx context.Context, parentID snowflake.ID) ([]Channel, error)
	CountChildren(ctx context.Context, parentID snowflake.ID) (int64, error)
	Update(ctx context.Context, channel *Channel) error
	SoftDelete(ctx context.Context, id snowflake.ID) error
}
