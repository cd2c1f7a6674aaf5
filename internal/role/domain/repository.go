package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, role *Role) error
	FindByID(ctx context.Context, id snowflake.ID) (*Role, error)
	FindByVerseAndName(ctx context.Context, verseID snowflake.ID, name string) (*Role, error)
	ListByVerse(ctx context.Context, verseID snowflake.ID) ([]Role, error)
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id snowflake.ID) error

	CreateUserRole(ctx context.Context, userRole *UserRole) error
	FindActiveUserRole(ctx context.Context, userID, verseID snowflake.ID) (*UserRole, error)
	HasUserRole(ctx context.Context, userID, verseID snowflake.ID) (bool, error)
	DeactivateUserRole(ctx context.Context, userID, verseID snowflake.ID) error
	CountActiveMembers(ctx context.Context, verseID snowflake.ID) (int64, error)
	CountAssignments(ctx context.Context, roleID snowflake.ID) (int64, error)
}
