package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Create issues a pending invitation. The role must belong to the
	// target verse and at most one pending invitation may exist per
	// (verse, email) pair. Email delivery failure is not fatal.
	Create(ctx context.Context, actorID snowflake.ID, req CreateInvitationRequest) (*Invitation, error)

	// GetByToken resolves an invitation for the registration UI,
	// enriched with the verse and role names.
	GetByToken(ctx context.Context, token string) (*InvitationDetails, error)

	// AcceptByToken flips a pending invitation to accepted. It does not
	// create a user role or touch verse membership, joining happens in a
	// later step once the verse is ready.
	AcceptByToken(ctx context.Context, token string) (*Invitation, error)

	Update(ctx context.Context, requesterID, id snowflake.ID, req UpdateInvitationRequest) (*Invitation, error)
	Delete(ctx context.Context, requesterID, id snowflake.ID) error

	Get(ctx context.Context, id snowflake.ID) (*Invitation, error)
	ListByVerse(ctx context.Context, verseID snowflake.ID) ([]Invitation, error)

	// ListAwaitingJoin returns accepted invitations for an email whose
	// verse the user has not joined yet. The caller supplies the joined
	// verse ids from the user record.
	ListAwaitingJoin(ctx context.Context, email string, joined []snowflake.ID) ([]Invitation, error)
}

type CreateInvitationRequest struct {
	VerseID   snowflake.ID
	Email     string
	RoleID    snowflake.ID
	FirstName *string
	LastName  *string
	Position  *string
	TTLDays   int
}

type UpdateInvitationRequest struct {
	RoleID    *snowflake.ID
	FirstName *string
	LastName  *string
	Position  *string
}

// InvitationDetails is the public projection served to the registration
// page before the caller has an account.
type InvitationDetails struct {
	Invitation Invitation `json:"invitation"`
	VerseName  string     `json:"verse_name"`
	Subdomain  *string    `json:"subdomain,omitempty"`
	RoleName   string     `json:"role_name"`
	SetupDone  bool       `json:"verse_setup_complete"`
}

var (
	ErrNotFound         = errors.New("invitation_not_found")
	ErrExpired          = errors.New("invitation_expired")
	ErrAlreadyAccepted  = errors.New("invitation_already_accepted")
	ErrRoleMismatch     = errors.New("invitation_role_mismatch")
	ErrDuplicatePending = errors.New("invitation_pending_exists")
	ErrNotInviter       = errors.New("invitation_not_inviter")
	ErrInvalidEmail     = errors.New("invalid_email")
)
