package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	"github.com/samuel161415/BryteSpring/internal/config"
	"github.com/samuel161415/BryteSpring/internal/invitation/domain"
	"github.com/samuel161415/BryteSpring/internal/providers/email"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
	versedomain "github.com/samuel161415/BryteSpring/internal/verse/domain"
	"github.com/samuel161415/BryteSpring/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultTTLDays = 7

type Params struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Repo      domain.Repository
	RoleRepo  roledomain.Repository
	VerseRepo versedomain.Repository
	Email     email.Provider
	Audit     auditdomain.Service
	GenID     *snowflake.Node
}

type Service struct {
	log       *zap.Logger
	cfg       config.Config
	repo      domain.Repository
	roleRepo  roledomain.Repository
	verseRepo versedomain.Repository
	email     email.Provider
	audit     auditdomain.Service
	genID     *snowflake.Node
}

func NewService(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("invitation.service"),
		cfg:       p.Config,
		repo:      p.Repo,
		roleRepo:  p.RoleRepo,
		verseRepo: p.VerseRepo,
		email:     p.Email,
		audit:     p.Audit,
		genID:     p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, actorID snowflake.ID, req domain.CreateInvitationRequest) (*domain.Invitation, error) {
	address, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}

	role, err := s.roleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		if errors.Is(err, roledomain.ErrNotFound) {
			return nil, domain.ErrRoleMismatch
		}
		return nil, err
	}
	if role.VerseID != req.VerseID {
		return nil, domain.ErrRoleMismatch
	}

	verse, err := s.verseRepo.FindByID(ctx, req.VerseID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if pending, err := s.repo.FindPending(ctx, req.VerseID, address); err == nil {
		if !pending.Expired(now) {
			return nil, domain.ErrDuplicatePending
		}
		// An expired pending invitation is dead weight. Replace it so the
		// (verse, email) pending uniqueness constraint does not block the
		// new invite.
		if err := s.repo.Delete(ctx, pending.ID); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	ttl := req.TTLDays
	if ttl <= 0 {
		ttl = defaultTTLDays
	}

	invitation := &domain.Invitation{
		ID:        s.genID.Generate(),
		VerseID:   req.VerseID,
		Email:     address,
		RoleID:    req.RoleID,
		Token:     uuid.NewString(),
		InvitedBy: actorID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Position:  req.Position,
		ExpiresAt: now.AddDate(0, 0, ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, invitation); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicatePending
		}
		return nil, err
	}

	s.sendInvitationMail(ctx, invitation, verse, role.Name)

	invitationID := invitation.ID.String()
	s.recordAudit(ctx, invitation.VerseID, actorID, auditdomain.ActionInviteSent, invitationID, map[string]any{
		"email":     invitation.Email,
		"role_name": role.Name,
	})

	return invitation, nil
}

func (s *Service) GetByToken(ctx context.Context, token string) (*domain.InvitationDetails, error) {
	invitation, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if invitation.IsAccepted {
		return nil, domain.ErrAlreadyAccepted
	}
	if invitation.Expired(time.Now().UTC()) {
		return nil, domain.ErrExpired
	}

	verse, err := s.verseRepo.FindByID(ctx, invitation.VerseID)
	if err != nil {
		return nil, err
	}
	role, err := s.roleRepo.FindByID(ctx, invitation.RoleID)
	if err != nil {
		return nil, err
	}

	return &domain.InvitationDetails{
		Invitation: *invitation,
		VerseName:  verse.Name,
		Subdomain:  verse.Subdomain,
		RoleName:   role.Name,
		SetupDone:  verse.IsSetupComplete,
	}, nil
}

func (s *Service) AcceptByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	invitation, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if invitation.IsAccepted {
		return nil, domain.ErrAlreadyAccepted
	}

	now := time.Now().UTC()
	if invitation.Expired(now) {
		return nil, domain.ErrExpired
	}

	invitation.IsAccepted = true
	invitation.AcceptedAt = &now
	invitation.UpdatedAt = now
	if err := s.repo.Update(ctx, invitation); err != nil {
		return nil, err
	}

	invitationID := invitation.ID.String()
	s.recordAudit(ctx, invitation.VerseID, invitation.InvitedBy, auditdomain.ActionInviteAccepted, invitationID, map[string]any{
		"email": invitation.Email,
	})

	return invitation, nil
}

func (s *Service) Update(ctx context.Context, requesterID, id snowflake.ID, req domain.UpdateInvitationRequest) (*domain.Invitation, error) {
	invitation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invitation.InvitedBy != requesterID {
		return nil, domain.ErrNotInviter
	}
	if invitation.IsAccepted {
		return nil, domain.ErrAlreadyAccepted
	}

	if req.RoleID != nil {
		role, err := s.roleRepo.FindByID(ctx, *req.RoleID)
		if err != nil {
			if errors.Is(err, roledomain.ErrNotFound) {
				return nil, domain.ErrRoleMismatch
			}
			return nil, err
		}
		if role.VerseID != invitation.VerseID {
			return nil, domain.ErrRoleMismatch
		}
		invitation.RoleID = *req.RoleID
	}
	if req.FirstName != nil {
		invitation.FirstName = req.FirstName
	}
	if req.LastName != nil {
		invitation.LastName = req.LastName
	}
	if req.Position != nil {
		invitation.Position = req.Position
	}
	invitation.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, invitation); err != nil {
		return nil, err
	}
	return invitation, nil
}

func (s *Service) Delete(ctx context.Context, requesterID, id snowflake.ID) error {
	invitation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if invitation.InvitedBy != requesterID {
		return domain.ErrNotInviter
	}
	if invitation.IsAccepted {
		return domain.ErrAlreadyAccepted
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	invitationID := invitation.ID.String()
	s.recordAudit(ctx, invitation.VerseID, requesterID, auditdomain.ActionDelete, invitationID, map[string]any{
		"email": invitation.Email,
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Invitation, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListByVerse(ctx context.Context, verseID snowflake.ID) ([]domain.Invitation, error) {
	return s.repo.ListByVerse(ctx, verseID)
}

func (s *Service) ListAwaitingJoin(ctx context.Context, address string, joined []snowflake.ID) ([]domain.Invitation, error) {
	normalized, err := normalizeEmail(address)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	return s.repo.ListAcceptedExcludingVerses(ctx, normalized, joined)
}

func (s *Service) sendInvitationMail(ctx context.Context, invitation *domain.Invitation, verse *versedomain.Verse, roleName string) {
	toName := ""
	if invitation.FirstName != nil {
		toName = strings.TrimSpace(*invitation.FirstName)
	}

	subdomain := ""
	if verse.Subdomain != nil {
		subdomain = *verse.Subdomain
	}

	invite := email.Invitation{
		ToEmail:    invitation.Email,
		ToName:     toName,
		VerseName:  verse.Name,
		Subdomain:  subdomain,
		RoleName:   roleName,
		InviteLink: s.buildInviteLink(invitation.Token, subdomain),
		ExpiresAt:  invitation.ExpiresAt,
	}
	if err := s.email.SendInvitation(ctx, invite); err != nil {
		s.log.Warn("failed to send invitation email",
			zap.String("email", invitation.Email),
			zap.String("verse_id", invitation.VerseID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) buildInviteLink(token, subdomain string) string {
	link := fmt.Sprintf("%s/invite?token=%s", strings.TrimRight(s.cfg.InviteBaseURL, "/"), url.QueryEscape(token))
	if subdomain != "" {
		link += "&subdomain=" + url.QueryEscape(subdomain)
	}
	return link
}

func (s *Service) recordAudit(ctx context.Context, verseID, actorID snowflake.ID, action, resourceID string, details map[string]any) {
	entry := auditdomain.Entry{
		VerseID:      &verseID,
		UserID:       &actorID,
		Action:       action,
		ResourceType: auditdomain.ResourceInvitation,
		ResourceID:   &resourceID,
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
