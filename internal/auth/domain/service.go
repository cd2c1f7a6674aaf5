package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
)

type Service interface {
	// Register creates a user. When an invitation token is supplied the
	// invitation must be pending and unexpired, the profile is seeded
	// from it and it is marked accepted immediately. Verse membership is
	// granted later by the join flow.
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)

	// Login verifies credentials and issues a bearer token. The response
	// surfaces every accepted invitation whose verse the user has not
	// joined yet.
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)

	// Authenticate resolves a bearer token to an active user.
	Authenticate(ctx context.Context, rawToken string) (*User, error)

	Logout(ctx context.Context, userID snowflake.ID) error

	Profile(ctx context.Context, userID snowflake.ID) (*User, error)
	UpdateProfile(ctx context.Context, userID snowflake.ID, req UpdateProfileRequest) (*User, error)

	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, actorID, userID snowflake.ID) error
}

type RegisterRequest struct {
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Position        *string `json:"position"`
	InvitationToken *string `json:"invitation_token"`
}

type RegisterResponse struct {
	User       *User                        `json:"user"`
	Token      string                       `json:"token"`
	Invitation *invitationdomain.Invitation `json:"invitation,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User               *User                         `json:"user"`
	Token              string                        `json:"token"`
	PendingInvitations []invitationdomain.Invitation `json:"pending_invitations"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	AvatarURL *string `json:"avatar_url"`
	Position  *string `json:"position"`
}
