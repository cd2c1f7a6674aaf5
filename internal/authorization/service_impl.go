// Package authorization resolves what a user may do inside a verse.
package authorization

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/samuel161415/BryteSpring/internal/auth/domain"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	// ErrNotMember means the user was never invited to the verse.
	ErrNotMember = errors.New("not_member")
	// ErrInvitePending means the user holds an unconsumed invitation and
	// can still complete the join flow.
	ErrInvitePending = errors.New("invite_pending")
)

// Membership is the resolved role of a user inside one verse.
type Membership struct {
	UserID  snowflake.ID
	VerseID snowflake.ID
	Role    *roledomain.Role
}

// Can reports whether the membership grants a capability. The
// Administrator role satisfies every capability.
func (m *Membership) Can(capability roledomain.Capability) bool {
	return m.Role != nil && m.Role.Grants(capability)
}

// EmailStatus summarizes how an email relates to a verse before the
// owner necessarily has an account.
type EmailStatus struct {
	IsMember             bool    `json:"is_member"`
	HasPendingInvitation bool    `json:"has_pending_invitation"`
	RoleName             *string `json:"role_name,omitempty"`
}

type Service interface {
	// Resolve looks up the unique active user role for (user, verse).
	// When none exists it distinguishes a pending invitation from a user
	// who was never invited.
	Resolve(ctx context.Context, userID snowflake.ID, email string, verseID snowflake.ID) (*Membership, error)

	// StatusForEmail reports membership and pending invitation state for
	// an email address, which may not belong to a registered user yet.
	StatusForEmail(ctx context.Context, email string, verseID snowflake.ID) (*EmailStatus, error)
}

type Params struct {
	fx.In

	Log      *zap.Logger
	RoleRepo roledomain.Repository
	InvRepo  invitationdomain.Repository
	AuthRepo authdomain.Repository
}

type service struct {
	log      *zap.Logger
	roleRepo roledomain.Repository
	invRepo  invitationdomain.Repository
	authRepo authdomain.Repository
}

func NewService(p Params) Service {
	return &service{
		log:      p.Log.Named("authorization.service"),
		roleRepo: p.RoleRepo,
		invRepo:  p.InvRepo,
		authRepo: p.AuthRepo,
	}
}

func (s *service) Resolve(ctx context.Context, userID snowflake.ID, email string, verseID snowflake.ID) (*Membership, error) {
	userRole, err := s.roleRepo.FindActiveUserRole(ctx, userID, verseID)
	if err != nil {
		if errors.Is(err, roledomain.ErrAssignmentNotFound) {
			return nil, s.classifyNonMember(ctx, email, verseID)
		}
		return nil, err
	}

	role, err := s.roleRepo.FindByID(ctx, userRole.RoleID)
	if err != nil {
		return nil, err
	}

	return &Membership{
		UserID:  userID,
		VerseID: verseID,
		Role:    role,
	}, nil
}

func (s *service) StatusForEmail(ctx context.Context, email string, verseID snowflake.ID) (*EmailStatus, error) {
	status := &EmailStatus{}

	user, err := s.authRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, authdomain.ErrUserNotFound) {
		return nil, err
	}
	if user != nil {
		userRole, err := s.roleRepo.FindActiveUserRole(ctx, user.ID, verseID)
		if err != nil && !errors.Is(err, roledomain.ErrAssignmentNotFound) {
			return nil, err
		}
		if userRole != nil {
			role, err := s.roleRepo.FindByID(ctx, userRole.RoleID)
			if err != nil {
				return nil, err
			}
			status.IsMember = true
			status.RoleName = &role.Name
			return status, nil
		}
	}

	invitation, err := s.invRepo.FindPending(ctx, verseID, email)
	if err != nil {
		if errors.Is(err, invitationdomain.ErrNotFound) {
			return status, nil
		}
		return nil, err
	}
	status.HasPendingInvitation = !invitation.Expired(time.Now().UTC())
	return status, nil
}

func (s *service) classifyNonMember(ctx context.Context, email string, verseID snowflake.ID) error {
	if email == "" {
		return ErrNotMember
	}
	invitation, err := s.invRepo.FindPending(ctx, verseID, email)
	if err != nil {
		if errors.Is(err, invitationdomain.ErrNotFound) {
			return ErrNotMember
		}
		return err
	}
	if invitation.Expired(time.Now().UTC()) {
		return ErrNotMember
	}
	return ErrInvitePending
}

var Module = fx.Module("authorization.service",
	fx.Provide(NewService),
)
