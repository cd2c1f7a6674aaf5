package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	"github.com/samuel161415/BryteSpring/internal/role/domain"
	"github.com/samuel161415/BryteSpring/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	Repo  domain.Repository
	Audit auditdomain.Service
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	repo  domain.Repository
	audit auditdomain.Service
	genID *snowflake.Node
}

func NewService(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("role.service"),
		repo:  p.Repo,
		audit: p.Audit,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, actorID snowflake.ID, req domain.CreateRoleRequest) (*domain.Role, error) {
	name := strings.TrimSpace(req.Name)
	if !domain.ValidRoleName(name) {
		return nil, domain.ErrInvalidName
	}

	perms, err := normalizePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByVerseAndName(ctx, req.VerseID, name); err == nil {
		return nil, domain.ErrRoleExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	role := &domain.Role{
		ID:          s.genID.Generate(),
		VerseID:     req.VerseID,
		Name:        name,
		Description: req.Description,
		Permissions: perms,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, role); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrRoleExists
		}
		return nil, err
	}

	s.recordAudit(ctx, role.VerseID, actorID, auditdomain.ActionCreate, auditdomain.ResourceRole, role.ID.String(), map[string]any{
		"role_name": role.Name,
	})

	return role, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Role, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListByVerse(ctx context.Context, verseID snowflake.ID) ([]domain.Role, error) {
	return s.repo.ListByVerse(ctx, verseID)
}

func (s *Service) Update(ctx context.Context, actorID snowflake.ID, id snowflake.ID, req domain.UpdateRoleRequest) (*domain.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsSystemRole {
		admin, err := s.actorIsAdministrator(ctx, actorID, role.VerseID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, domain.ErrSystemRole
		}
	}

	if req.Permissions != nil {
		perms, err := normalizePermissions(req.Permissions)
		if err != nil {
			return nil, err
		}
		role.Permissions = perms
	}
	if req.Description != nil {
		role.Description = req.Description
	}
	role.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, role); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, role.VerseID, actorID, auditdomain.ActionUpdate, auditdomain.ResourceRole, role.ID.String(), map[string]any{
		"role_name": role.Name,
	})

	return role, nil
}

func (s *Service) Delete(ctx context.Context, actorID snowflake.ID, id snowflake.ID) error {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystemRole {
		admin, err := s.actorIsAdministrator(ctx, actorID, role.VerseID)
		if err != nil {
			return err
		}
		if !admin {
			return domain.ErrSystemRole
		}
	}

	assignments, err := s.repo.CountAssignments(ctx, id)
	if err != nil {
		return err
	}
	if assignments > 0 {
		return domain.ErrRoleInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, role.VerseID, actorID, auditdomain.ActionDelete, auditdomain.ResourceRole, role.ID.String(), map[string]any{
		"role_name": role.Name,
	})

	return nil
}

func (s *Service) EnsureAdministrator(ctx context.Context, verseID snowflake.ID) (*domain.Role, error) {
	role, err := s.repo.FindByVerseAndName(ctx, verseID, domain.RoleAdministrator)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	description := "Full access to all verse features"
	role = &domain.Role{
		ID:           s.genID.Generate(),
		VerseID:      verseID,
		Name:         domain.RoleAdministrator,
		Description:  &description,
		Permissions:  domain.AdministratorPermissions(),
		IsSystemRole: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, role); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindByVerseAndName(ctx, verseID, domain.RoleAdministrator)
		}
		return nil, err
	}
	return role, nil
}

// actorIsAdministrator reports whether the actor holds the Administrator
// role in the verse. System roles are immutable for everyone else.
func (s *Service) actorIsAdministrator(ctx context.Context, actorID, verseID snowflake.ID) (bool, error) {
	userRole, err := s.repo.FindActiveUserRole(ctx, actorID, verseID)
	if err != nil {
		if errors.Is(err, domain.ErrAssignmentNotFound) {
			return false, nil
		}
		return false, err
	}
	role, err := s.repo.FindByID(ctx, userRole.RoleID)
	if err != nil {
		return false, err
	}
	return role.Name == domain.RoleAdministrator, nil
}

func (s *Service) Assign(ctx context.Context, actorID snowflake.ID, req domain.AssignRoleRequest) (*domain.UserRole, error) {
	role, err := s.repo.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if role.VerseID != req.VerseID {
		return nil, domain.ErrNotFound
	}

	exists, err := s.repo.HasUserRole(ctx, req.UserID, req.VerseID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyAssigned
	}

	userRole := &domain.UserRole{
		ID:         s.genID.Generate(),
		UserID:     req.UserID,
		VerseID:    req.VerseID,
		RoleID:     req.RoleID,
		AssignedBy: &actorID,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateUserRole(ctx, userRole); err != nil {
		return nil, err
	}

	// A previously revoked row is reactivated in place and keeps its id,
	// re-read the stored assignment instead of echoing the input.
	stored, err := s.repo.FindActiveUserRole(ctx, req.UserID, req.VerseID)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, req.VerseID, actorID, auditdomain.ActionRoleAssigned, auditdomain.ResourceUser, req.UserID.String(), map[string]any{
		"role_id":   req.RoleID.String(),
		"role_name": role.Name,
	})

	return stored, nil
}

func (s *Service) Revoke(ctx context.Context, actorID snowflake.ID, userID, verseID snowflake.ID) error {
	if err := s.repo.DeactivateUserRole(ctx, userID, verseID); err != nil {
		return err
	}

	s.recordAudit(ctx, verseID, actorID, auditdomain.ActionRoleRemoved, auditdomain.ResourceUser, userID.String(), nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, verseID, actorID snowflake.ID, action, resourceType, resourceID string, details map[string]any) {
	entry := auditdomain.Entry{
		VerseID:      &verseID,
		UserID:       &actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		Details:      details,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}

func normalizePermissions(perms map[string]bool) (datatypes.JSONMap, error) {
	out := datatypes.JSONMap{}
	for key, value := range perms {
		if !domain.ValidCapability(key) {
			return nil, domain.ErrInvalidPermission
		}
		out[key] = value
	}
	return out, nil
}
