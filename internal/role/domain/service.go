package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, actorID snowflake.ID, req CreateRoleRequest) (*Role, error)
	Get(ctx context.Context, id snowflake.ID) (*Role, error)
	ListByVerse(ctx context.Context, verseID snowflake.ID) ([]Role, error)
	Update(ctx context.Context, actorID snowflake.ID, id snowflake.ID, req UpdateRoleRequest) (*Role, error)
	Delete(ctx context.Context, actorID snowflake.ID, id snowflake.ID) error

	// EnsureAdministrator upserts the system Administrator role for a verse.
	// Repeated calls return the existing role without duplicating it.
	EnsureAdministrator(ctx context.Context, verseID snowflake.ID) (*Role, error)

	Assign(ctx context.Context, actorID snowflake.ID, req AssignRoleRequest) (*UserRole, error)
	Revoke(ctx context.Context, actorID snowflake.ID, userID, verseID snowflake.ID) error
}

type CreateRoleRequest struct {
	VerseID     snowflake.ID
	Name        string
	Description *string
	Permissions map[string]bool
}

type UpdateRoleRequest struct {
	Description *string
	Permissions map[string]bool
}

type AssignRoleRequest struct {
	UserID  snowflake.ID
	VerseID snowflake.ID
	RoleID  snowflake.ID
}

var (
	ErrNotFound           = errors.New("role_not_found")
	ErrInvalidName        = errors.New("invalid_role_name")
	ErrInvalidPermission  = errors.New("invalid_permission")
	ErrRoleExists         = errors.New("role_exists")
	ErrSystemRole         = errors.New("system_role_immutable")
	ErrAlreadyAssigned    = errors.New("role_already_assigned")
	ErrAssignmentNotFound = errors.New("role_assignment_not_found")
	ErrRoleInUse          = errors.New("role_in_use")
)
