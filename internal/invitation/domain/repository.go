package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, invitation *Invitation) error
	FindByID(ctx context.Context, id snowflake.ID) (*Invitation, error)
	FindByToken(ctx context.Context, token string) (*Invitation, error)
	FindPending(ctx context.Context, verseID snowflake.ID, email string) (*Invitation, error)
	FindAccepted(ctx context.Context, verseID snowflake.ID, email string) (*Invitation, error)
	Update(ctx context.Context, invitation *Invitation) error
	Delete(ctx context.Context, id snowflake.ID) error
	ListByVerse(ctx context.Context, verseID snowflake.ID) ([]Invitation, error)
	ListAcceptedExcludingVerses(ctx context.Context, email string, excluded []snowflake.ID) ([]Invitation, error)
}
