package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// CreateInitial bootstraps a verse on behalf of its future
	// administrator: the verse row, its system Administrator role and a
	// pending invitation for the admin email. Only superadmins may call it.
	CreateInitial(ctx context.Context, actor Actor, req CreateInitialRequest) (*CreateInitialResult, error)

	// CompleteSetup finalizes a bootstrapped verse exactly once.
	CompleteSetup(ctx context.Context, actor Actor, verseID snowflake.ID, req CompleteSetupRequest) (*Verse, error)

	Get(ctx context.Context, id snowflake.ID) (*Verse, error)
	Update(ctx context.Context, actor Actor, id snowflake.ID, req UpdateVerseRequest) (*Verse, error)
	Delete(ctx context.Context, actor Actor, id snowflake.ID) error
	List(ctx context.Context, req ListVersesRequest) (ListVersesResponse, error)

	// Join converts an accepted invitation into membership: a user role
	// plus an entry in the user's joined verse list, applied in one
	// transaction. Calling it twice fails with ErrAlreadyMember.
	Join(ctx context.Context, actor Actor, verseID snowflake.ID) (*JoinResult, error)
}

type CreateInitialRequest struct {
	Name       string `json:"name" binding:"required"`
	AdminEmail string `json:"admin_email" binding:"required,email"`
}

type CreateInitialResult struct {
	Verse           *Verse `json:"verse"`
	AdminRoleID     snowflake.ID
	InvitationID    snowflake.ID
	InvitationToken string
}

type BrandingInput struct {
	LogoURL      *string `json:"logo_url"`
	PrimaryColor *string `json:"primary_color"`
	ColorName    *string `json:"color_name"`
}

type InitialChannel struct {
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required"`
	IsPublic bool   `json:"is_public"`
}

type CompleteSetupRequest struct {
	Name             *string          `json:"name"`
	Subdomain        *string          `json:"subdomain"`
	OrganizationName *string          `json:"organization_name"`
	Branding         *BrandingInput   `json:"branding"`
	Settings         map[string]any   `json:"settings"`
	InitialChannels  []InitialChannel `json:"initial_channels"`
}

type UpdateVerseRequest struct {
	Name             *string        `json:"name"`
	Subdomain        *string        `json:"subdomain"`
	OrganizationName *string        `json:"organization_name"`
	Branding         *BrandingInput `json:"branding"`
	Settings         map[string]any `json:"settings"`
}

type ListVersesRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Search string `form:"search"`
}

type ListVersesResponse struct {
	Verses []Verse `json:"verses"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

type JoinResult struct {
	Verse    *Verse       `json:"verse"`
	RoleID   snowflake.ID `json:"role_id"`
	RoleName string       `json:"role_name"`
}

var (
	ErrNotFound        = errors.New("verse_not_found")
	ErrInvalidName     = errors.New("invalid_verse_name")
	ErrForbidden       = errors.New("verse_forbidden")
	ErrAlreadyComplete = errors.New("verse_setup_already_complete")
	ErrSetupIncomplete = errors.New("verse_setup_incomplete")
	ErrSubdomainTaken  = errors.New("subdomain_taken")
	ErrAlreadyMember   = errors.New("already_member")
	ErrInactive        = errors.New("verse_inactive")
)
