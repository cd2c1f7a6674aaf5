package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id snowflake.ID) error
	List(ctx context.Context) ([]User, error)

	// AppendJoinedVerse adds a verse id to the user's joined list if it
	// is not already present.
	AppendJoinedVerse(ctx context.Context, userID, verseID snowflake.ID) error
	UpdateLastLogin(ctx context.Context, userID snowflake.ID, at time.Time) error
}
