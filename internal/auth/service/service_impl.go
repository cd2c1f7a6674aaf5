package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	"github.com/samuel161415/BryteSpring/internal/auth/domain"
	"github.com/samuel161415/BryteSpring/internal/auth/password"
	"github.com/samuel161415/BryteSpring/internal/config"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
	"github.com/samuel161415/BryteSpring/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const minPasswordLength = 8

type Params struct {
	fx.In

	Log         *zap.Logger
	Config      config.Config
	Repo        domain.Repository
	Invitations invitationdomain.Service
	Audit       auditdomain.Service
	GenID       *snowflake.Node
}

type Service struct {
	log         *zap.Logger
	cfg         config.Config
	repo        domain.Repository
	invitations invitationdomain.Service
	audit       auditdomain.Service
	genID       *snowflake.Node
}

func NewService(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("auth.service"),
		cfg:         p.Config,
		repo:        p.Repo,
		invitations: p.Invitations,
		audit:       p.Audit,
		genID:       p.GenID,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResponse, error) {
	address, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	if _, err := s.repo.FindByEmail(ctx, address); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	// Resolve the invitation before creating the user so a bad token
	// fails the whole registration.
	var details *invitationdomain.InvitationDetails
	if req.InvitationToken != nil && strings.TrimSpace(*req.InvitationToken) != "" {
		details, err = s.invitations.GetByToken(ctx, *req.InvitationToken)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(details.Invitation.Email, address) {
			return nil, invitationdomain.ErrInvalidEmail
		}
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Email:        address,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Position:     req.Position,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if details != nil {
		if user.FirstName == nil {
			user.FirstName = details.Invitation.FirstName
		}
		if user.LastName == nil {
			user.LastName = details.Invitation.LastName
		}
		if user.Position == nil {
			user.Position = details.Invitation.Position
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}

	resp := &domain.RegisterResponse{User: user}

	auditDetails := map[string]any{"email": user.Email}
	var verseID *snowflake.ID

	// Accepting an invitation is decoupled from joining its verse: the
	// verse may not have finished setup yet. Membership is granted later
	// by the join flow.
	if details != nil {
		invitation, err := s.invitations.AcceptByToken(ctx, details.Invitation.Token)
		if err != nil {
			return nil, err
		}
		resp.Invitation = invitation
		verseID = &invitation.VerseID
		if details.SetupDone {
			auditDetails["flow"] = "user_registered_pending_verse_join"
		} else {
			auditDetails["flow"] = "admin_registered_pending_setup"
		}
	}

	token, err := issueToken(s.cfg.AuthJWTSecret, user.ID, now)
	if err != nil {
		return nil, err
	}
	resp.Token = token

	s.recordAudit(ctx, verseID, user.ID, auditdomain.ActionRegister, auditDetails)
	return resp, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	address, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("failed to update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	user.LastLoginAt = &now

	// Surface accepted invitations whose verse the user has not joined
	// yet, so a client can offer the join step.
	pending, err := s.invitations.ListAwaitingJoin(ctx, user.Email, user.JoinedVerses)
	if err != nil {
		s.log.Warn("failed to list awaiting invitations", zap.String("user_id", user.ID.String()), zap.Error(err))
		pending = nil
	}

	token, err := issueToken(s.cfg.AuthJWTSecret, user.ID, now)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, nil, user.ID, auditdomain.ActionLogin, map[string]any{"email": user.Email})

	return &domain.LoginResponse{
		User:               user,
		Token:              token,
		PendingInvitations: pending,
	}, nil
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	userID, err := parseToken(s.cfg.AuthJWTSecret, rawToken)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (s *Service) Logout(ctx context.Context, userID snowflake.ID) error {
	// Bearer tokens are stateless, logout is recorded for the audit
	// trail only.
	s.recordAudit(ctx, nil, userID, auditdomain.ActionLogout, nil)
	return nil
}

func (s *Service) Profile(ctx context.Context, userID snowflake.ID) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID snowflake.ID, req domain.UpdateProfileRequest) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = req.FirstName
	}
	if req.LastName != nil {
		user.LastName = req.LastName
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	if req.Position != nil {
		user.Position = req.Position
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	userIDStr := user.ID.String()
	s.recordAuditWithResource(ctx, nil, user.ID, auditdomain.ActionUpdate, auditdomain.ResourceUser, &userIDStr, nil)
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) DeleteUser(ctx context.Context, actorID, userID snowflake.ID) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}

	userIDStr := userID.String()
	s.recordAuditWithResource(ctx, nil, actorID, auditdomain.ActionDelete, auditdomain.ResourceUser, &userIDStr, map[string]any{
		"email": user.Email,
	})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, verseID *snowflake.ID, userID snowflake.ID, action string, details map[string]any) {
	userIDStr := userID.String()
	s.recordAuditWithResource(ctx, verseID, userID, action, auditdomain.ResourceUser, &userIDStr, details)
}

func (s *Service) recordAuditWithResource(ctx context.Context, verseID *snowflake.ID, userID snowflake.ID, action, resourceType string, resourceID *string, details map[string]any) {
	entry := auditdomain.Entry{
		VerseID:      verseID,
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}

func normalizeEmail(address string) (string, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(address))
	if err != nil {
		return "", err
	}
	return strings.ToLower(parsed.Address), nil
}
