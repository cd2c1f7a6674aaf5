package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	authdomain "github.com/samuel161415/BryteSpring/internal/auth/domain"
	channeldomain "github.com/samuel161415/BryteSpring/internal/channel/domain"
	"github.com/samuel161415/BryteSpring/internal/config"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
	"github.com/samuel161415/BryteSpring/internal/verse/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxListLimit = 100

type Params struct {
	fx.In

	Log         *zap.Logger
	DB          *gorm.DB
	Repo        domain.Repository
	RoleService roledomain.Service
	RoleRepo    roledomain.Repository
	Invitations invitationdomain.Service
	InvRepo     invitationdomain.Repository
	UserRepo    authdomain.Repository
	ChannelRepo channeldomain.Repository
	Audit       auditdomain.Service
	Defaults    *config.VerseDefaultsHolder
	GenID       *snowflake.Node
}

type Service struct {
	log         *zap.Logger
	db          *gorm.DB
	repo        domain.Repository
	roleService roledomain.Service
	roleRepo    roledomain.Repository
	invitations invitationdomain.Service
	invRepo     invitationdomain.Repository
	userRepo    authdomain.Repository
	channelRepo channeldomain.Repository
	audit       auditdomain.Service
	defaults    *config.VerseDefaultsHolder
	genID       *snowflake.Node
}

func NewService(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("verse.service"),
		db:          p.DB,
		repo:        p.Repo,
		roleService: p.RoleService,
		roleRepo:    p.RoleRepo,
		invitations: p.Invitations,
		invRepo:     p.InvRepo,
		userRepo:    p.UserRepo,
		channelRepo: p.ChannelRepo,
		audit:       p.Audit,
		defaults:    p.Defaults,
		genID:       p.GenID,
	}
}

func (s *Service) CreateInitial(ctx context.Context, actor domain.Actor, req domain.CreateInitialRequest) (*domain.CreateInitialResult, error) {
	if !actor.IsSuperadmin {
		return nil, domain.ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	adminEmail, err := normalizeEmail(req.AdminEmail)
	if err != nil {
		return nil, invitationdomain.ErrInvalidEmail
	}

	branding := s.defaults.Current().Branding
	var logoURL *string
	if branding.LogoURL != "" {
		logoURL = &branding.LogoURL
	}
	now := time.Now().UTC()
	verse := &domain.Verse{
		ID:         s.genID.Generate(),
		Name:       name,
		AdminEmail: adminEmail,
		Branding: domain.Branding{
			LogoURL:      logoURL,
			PrimaryColor: branding.PrimaryColor,
			ColorName:    branding.ColorName,
		},
		Settings:  datatypes.JSONMap{},
		IsActive:  true,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, verse); err != nil {
		return nil, err
	}

	adminRole, err := s.roleService.EnsureAdministrator(ctx, verse.ID)
	if err != nil {
		return nil, err
	}

	// Invitation creation sends the email itself, failure to deliver is
	// logged there and never aborts the bootstrap.
	invitation, err := s.invitations.Create(ctx, actor.ID, invitationdomain.CreateInvitationRequest{
		VerseID: verse.ID,
		Email:   adminEmail,
		RoleID:  adminRole.ID,
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, verse.ID, actor.ID, auditdomain.ActionCreate, map[string]any{
		"name":        verse.Name,
		"admin_email": adminEmail,
	})

	return &domain.CreateInitialResult{
		Verse:           verse,
		AdminRoleID:     adminRole.ID,
		InvitationID:    invitation.ID,
		InvitationToken: invitation.Token,
	}, nil
}

func (s *Service) CompleteSetup(ctx context.Context, actor domain.Actor, verseID snowflake.ID, req domain.CompleteSetupRequest) (*domain.Verse, error) {
	verse, err := s.activeVerse(ctx, verseID)
	if err != nil {
		return nil, err
	}

	if err := s.requireAdministrator(ctx, actor.ID, verseID); err != nil {
		return nil, err
	}

	if verse.IsSetupComplete {
		return nil, domain.ErrAlreadyComplete
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		verse.Name = strings.TrimSpace(*req.Name)
	}
	if req.OrganizationName != nil {
		verse.OrganizationName = req.OrganizationName
	}
	if req.Subdomain != nil {
		normalized, err := s.checkSubdomain(ctx, verseID, *req.Subdomain)
		if err != nil {
			return nil, err
		}
		verse.Subdomain = &normalized
	}

	s.applyBranding(verse, req.Branding)
	if req.Settings != nil {
		verse.Settings = datatypes.JSONMap(req.Settings)
	}

	now := time.Now().UTC()
	verse.IsSetupComplete = true
	verse.SetupCompletedAt = &now
	verse.SetupCompletedBy = &actor.ID
	verse.UpdatedAt = now

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, verse); err != nil {
			return err
		}
		return s.createInitialChannels(ctx, tx, actor.ID, verse.ID, req.InitialChannels)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, verse.ID, actor.ID, auditdomain.ActionSetupCompleted, map[string]any{
		"channel_count": len(req.InitialChannels),
	})
	return verse, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Verse, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, actor domain.Actor, id snowflake.ID, req domain.UpdateVerseRequest) (*domain.Verse, error) {
	verse, err := s.activeVerse(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireManageVerse(ctx, actor, id); err != nil {
		return nil, err
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		verse.Name = strings.TrimSpace(*req.Name)
	}
	if req.OrganizationName != nil {
		verse.OrganizationName = req.OrganizationName
	}
	if req.Subdomain != nil {
		normalized, err := s.checkSubdomain(ctx, id, *req.Subdomain)
		if err != nil {
			return nil, err
		}
		verse.Subdomain = &normalized
	}
	s.applyBranding(verse, req.Branding)
	if req.Settings != nil {
		verse.Settings = datatypes.JSONMap(req.Settings)
	}
	verse.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, verse); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, verse.ID, actor.ID, auditdomain.ActionUpdate, map[string]any{"name": verse.Name})
	return verse, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id snowflake.ID) error {
	if !actor.IsSuperadmin {
		return domain.ErrForbidden
	}
	if _, err := s.activeVerse(ctx, id); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, id, actor.ID, auditdomain.ActionDelete, nil)
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListVersesRequest) (domain.ListVersesResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	verses, total, err := s.repo.List(ctx, domain.ListFilter{
		Page:   page,
		Limit:  limit,
		Search: req.Search,
	})
	if err != nil {
		return domain.ListVersesResponse{}, err
	}

	return domain.ListVersesResponse{
		Verses: verses,
		Total:  total,
		Page:   page,
		Limit:  limit,
	}, nil
}

func (s *Service) Join(ctx context.Context, actor domain.Actor, verseID snowflake.ID) (*domain.JoinResult, error) {
	verse, err := s.activeVerse(ctx, verseID)
	if err != nil {
		return nil, err
	}
	if !verse.IsSetupComplete {
		return nil, domain.ErrSetupIncomplete
	}

	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	// Membership is the active role row. The joined verse list alone does
	// not count, a revoked member keeps the history entry but may rejoin.
	hasRole, err := s.roleRepo.HasUserRole(ctx, actor.ID, verseID)
	if err != nil {
		return nil, err
	}
	if hasRole {
		return nil, domain.ErrAlreadyMember
	}

	invitation, err := s.invRepo.FindAccepted(ctx, verseID, user.Email)
	if err != nil {
		if errors.Is(err, invitationdomain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}

	role, err := s.roleRepo.FindByID(ctx, invitation.RoleID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		userRole := &roledomain.UserRole{
			ID:         s.genID.Generate(),
			UserID:     actor.ID,
			VerseID:    verseID,
			RoleID:     invitation.RoleID,
			AssignedBy: &invitation.InvitedBy,
			IsActive:   true,
			CreatedAt:  now,
		}
		if err := s.roleRepo.WithTx(tx).CreateUserRole(ctx, userRole); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).AppendJoinedVerse(ctx, actor.ID, verseID)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, verseID, actor.ID, auditdomain.ActionVerseJoined, map[string]any{
		"role_id":   invitation.RoleID.String(),
		"role_name": role.Name,
	})

	return &domain.JoinResult{
		Verse:    verse,
		RoleID:   invitation.RoleID,
		RoleName: role.Name,
	}, nil
}

func (s *Service) activeVerse(ctx context.Context, id snowflake.ID) (*domain.Verse, error) {
	verse, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !verse.IsActive {
		return nil, domain.ErrNotFound
	}
	return verse, nil
}

func (s *Service) requireAdministrator(ctx context.Context, userID, verseID snowflake.ID) error {
	userRole, err := s.roleRepo.FindActiveUserRole(ctx, userID, verseID)
	if err != nil {
		if errors.Is(err, roledomain.ErrAssignmentNotFound) {
			return domain.ErrForbidden
		}
		return err
	}
	role, err := s.roleRepo.FindByID(ctx, userRole.RoleID)
	if err != nil {
		return err
	}
	if role.Name != roledomain.RoleAdministrator {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Service) requireManageVerse(ctx context.Context, actor domain.Actor, verseID snowflake.ID) error {
	if actor.IsSuperadmin {
		return nil
	}
	userRole, err := s.roleRepo.FindActiveUserRole(ctx, actor.ID, verseID)
	if err != nil {
		if errors.Is(err, roledomain.ErrAssignmentNotFound) {
			return domain.ErrForbidden
		}
		return err
	}
	role, err := s.roleRepo.FindByID(ctx, userRole.RoleID)
	if err != nil {
		return err
	}
	if !role.Grants(roledomain.CapabilityManageVerse) {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Service) checkSubdomain(ctx context.Context, verseID snowflake.ID, requested string) (string, error) {
	normalized := slug.Make(strings.TrimSpace(requested))
	if normalized == "" {
		return "", domain.ErrSubdomainTaken
	}
	existing, err := s.repo.FindActiveBySubdomain(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return normalized, nil
		}
		return "", err
	}
	if existing.ID != verseID {
		return "", domain.ErrSubdomainTaken
	}
	return normalized, nil
}

func (s *Service) applyBranding(verse *domain.Verse, input *domain.BrandingInput) {
	if input == nil {
		return
	}
	if input.LogoURL != nil {
		verse.Branding.LogoURL = input.LogoURL
	}
	if input.PrimaryColor != nil && *input.PrimaryColor != "" {
		verse.Branding.PrimaryColor = *input.PrimaryColor
	}
	if input.ColorName != nil && *input.ColorName != "" {
		verse.Branding.ColorName = *input.ColorName
	}
}

func (s *Service) createInitialChannels(ctx context.Context, tx *gorm.DB, actorID, verseID snowflake.ID, initial []domain.InitialChannel) error {
	if len(initial) == 0 {
		return nil
	}

	repo := s.channelRepo.WithTx(tx)
	now := time.Now().UTC()
	seen := map[string]struct{}{}
	for _, spec := range initial {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			continue
		}
		nodeType := spec.Type
		if !channeldomain.ValidType(nodeType) {
			return channeldomain.ErrInvalidType
		}

		key := nodeType + "\x00" + strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		channel := &channeldomain.Channel{
			ID:        s.genID.Generate(),
			VerseID:   verseID,
			Name:      name,
			Type:      nodeType,
			Path:      name,
			IsPublic:  spec.IsPublic,
			MaxDepth:  channeldomain.DefaultMaxDepth(nodeType, nil),
			CreatedBy: actorID,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.Create(ctx, channel); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, verseID, actorID snowflake.ID, action string, details map[string]any) {
	verseIDStr := verseID.String()
	entry := auditdomain.Entry{
		VerseID:      &verseID,
		UserID:       &actorID,
		Action:       action,
		ResourceType: auditdomain.ResourceVerse,
		ResourceID:   &verseIDStr,
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
