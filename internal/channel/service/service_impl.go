package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	"github.com/samuel161415/BryteSpring/internal/channel/domain"
	versedomain "github.com/samuel161415/BryteSpring/internal/verse/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	DB        *gorm.DB
	Repo      domain.Repository
	VerseRepo versedomain.Repository
	Audit     auditdomain.Service
	GenID     *snowflake.Node
}

type Service struct {
	log       *zap.Logger
	db        *gorm.DB
	repo      domain.Repository
	verseRepo versedomain.Repository
	audit     auditdomain.Service
	genID     *snowflake.Node
}

func NewService(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("channel.service"),
		db:        p.DB,
		repo:      p.Repo,
		verseRepo: p.VerseRepo,
		audit:     p.Audit,
		genID:     p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, actorID snowflake.ID, req domain.CreateChannelRequest) (*domain.Channel, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if !domain.ValidType(req.Type) {
		return nil, domain.ErrInvalidType
	}

	if _, err := s.verseRepo.FindByID(ctx, req.VerseID); err != nil {
		return nil, err
	}

	var parent *domain.Channel
	if req.ParentID != nil {
		var err error
		parent, err = s.repo.FindByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.VerseID != req.VerseID {
			return nil, domain.ErrCrossVerseParent
		}
		if parent.Type != domain.TypeFolder && parent.Type != domain.TypeCategory {
			return nil, domain.ErrParentNotFolder
		}
		if req.Type == domain.TypeFolder && parent.MaxDepth <= 1 {
			return nil, domain.ErrMaxDepthExceeded
		}
	}

	if _, err := s.repo.FindSibling(ctx, req.VerseID, req.ParentID, req.Type, name); err == nil {
		return nil, domain.ErrDuplicateName
	} else if err != domain.ErrNotFound {
		return nil, err
	}

	isPublic, inherited, err := resolveVisibility(parent, req.IsPublic)
	if err != nil {
		return nil, err
	}

	parentPath := ""
	if parent != nil {
		parentPath = parent.Path
	}

	now := time.Now().UTC()
	channel := &domain.Channel{
		ID:                  s.genID.Generate(),
		VerseID:             req.VerseID,
		Name:                name,
		Type:                req.Type,
		ParentID:            req.ParentID,
		Path:                domain.ChildPath(parentPath, name),
		AllowedAssetTypes:   datatypes.JSONSlice[string](req.AllowedAssetTypes),
		IsPublic:            isPublic,
		InheritedFromParent: inherited,
		SubfolderPermission: req.SubfolderPermission,
		MaxDepth:            domain.DefaultMaxDepth(req.Type, parent),
		CreatedBy:           actorID,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, channel); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, channel.VerseID, actorID, auditdomain.ActionCreate, channel.ID.String(), map[string]any{
		"name": channel.Name,
		"type": channel.Type,
		"path": channel.Path,
	})
	return channel, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Channel, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, actorID snowflake.ID, id snowflake.ID, req domain.UpdateChannelRequest) (*domain.Channel, error) {
	channel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newName := channel.Name
	if req.Name != nil {
		newName = strings.TrimSpace(*req.Name)
		if newName == "" {
			return nil, domain.ErrInvalidName
		}
	}

	newParentID := channel.ParentID
	reparented := false
	switch {
	case req.ParentID != nil:
		newParentID = req.ParentID
		reparented = channel.ParentID == nil || *channel.ParentID != *req.ParentID
	case req.MoveToRoot:
		newParentID = nil
		reparented = channel.ParentID != nil
	}

	var newParent *domain.Channel
	if newParentID != nil {
		newParent, err = s.repo.FindByID(ctx, *newParentID)
		if err != nil {
			return nil, err
		}
		if newParent.VerseID != channel.VerseID {
			return nil, domain.ErrCrossVerseParent
		}
		if newParent.Type != domain.TypeFolder && newParent.Type != domain.TypeCategory {
			return nil, domain.ErrParentNotFolder
		}
		// Reparenting onto itself or into its own subtree would detach
		// the subtree into a cycle.
		if newParent.ID == channel.ID || strings.HasPrefix(newParent.Path+"/", channel.Path+"/") {
			return nil, domain.ErrCycle
		}
		if channel.Type == domain.TypeFolder && newParent.MaxDepth <= 1 {
			return nil, domain.ErrMaxDepthExceeded
		}
	}

	renamed := newName != channel.Name
	if renamed || reparented {
		if sibling, err := s.repo.FindSibling(ctx, channel.VerseID, newParentID, channel.Type, newName); err == nil {
			if sibling.ID != channel.ID {
				return nil, domain.ErrDuplicateName
			}
		} else if err != domain.ErrNotFound {
			return nil, err
		}
	}

	if req.IsPublic != nil {
		if *req.IsPublic && newParent != nil && !newParent.IsPublic {
			return nil, domain.ErrVisibilityConflict
		}
		channel.IsPublic = *req.IsPublic
		channel.InheritedFromParent = false
	} else if reparented && newParent != nil {
		if channel.InheritedFromParent {
			channel.IsPublic = newParent.IsPublic
		} else if channel.IsPublic && !newParent.IsPublic {
			// An explicitly public node cannot move into a private subtree.
			return nil, domain.ErrVisibilityConflict
		}
	}

	if req.AllowedAssetTypes != nil {
		channel.AllowedAssetTypes = datatypes.JSONSlice[string](req.AllowedAssetTypes)
	}

	oldPath := channel.Path
	channel.Name = newName
	channel.ParentID = newParentID

	parentPath := ""
	if newParent != nil {
		parentPath = newParent.Path
	}
	channel.Path = domain.ChildPath(parentPath, newName)
	channel.UpdatedAt = time.Now().UTC()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, channel); err != nil {
			return err
		}
		if channel.Path != oldPath {
			return s.rewriteDescendantPaths(ctx, repo, channel.VerseID, oldPath, channel.Path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, channel.VerseID, actorID, auditdomain.ActionUpdate, channel.ID.String(), map[string]any{
		"name":     channel.Name,
		"path":     channel.Path,
		"old_path": oldPath,
	})
	return channel, nil
}

func (s *Service) Delete(ctx context.Context, actorID snowflake.ID, id snowflake.ID) error {
	channel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return domain.ErrHasChildren
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, channel.VerseID, actorID, auditdomain.ActionDelete, channel.ID.String(), map[string]any{
		"name": channel.Name,
		"path": channel.Path,
	})
	return nil
}

func (s *Service) Structure(ctx context.Context, verseID snowflake.ID) ([]*domain.TreeNode, error) {
	channels, err := s.repo.ListByVerse(ctx, verseID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[snowflake.ID]*domain.TreeNode, len(channels))
	for i := range channels {
		nodes[channels[i].ID] = &domain.TreeNode{Channel: channels[i], Children: []*domain.TreeNode{}}
	}

	var roots []*domain.TreeNode
	for i := range channels {
		node := nodes[channels[i].ID]
		if channels[i].ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*channels[i].ParentID]
		if !ok {
			// Orphaned by a deleted parent, surface at the root rather
			// than dropping it.
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, nil
}

func (s *Service) Contents(ctx context.Context, id snowflake.ID) ([]domain.Channel, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListChildren(ctx, id)
}

func (s *Service) rewriteDescendantPaths(ctx context.Context, repo domain.Repository, verseID snowflake.ID, oldPath, newPath string) error {
	channels, err := repo.ListByVerse(ctx, verseID)
	if err != nil {
		return err
	}

	prefix := oldPath + "/"
	for i := range channels {
		if !strings.HasPrefix(channels[i].Path, prefix) {
			continue
		}
		channels[i].Path = newPath + "/" + strings.TrimPrefix(channels[i].Path, prefix)
		channels[i].UpdatedAt = time.Now().UTC()
		if err := repo.Update(ctx, &channels[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, verseID, actorID snowflake.ID, action, resourceID string, details map[string]any) {
	entry := auditdomain.Entry{
		VerseID:      &verseID,
		UserID:       &actorID,
		Action:       action,
		ResourceType: auditdomain.ResourceChannel,
		ResourceID:   &resourceID,
		Details:      details,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}

func resolveVisibility(parent *domain.Channel, requested *bool) (isPublic bool, inherited bool, err error) {
	if parent == nil {
		if requested != nil {
			return *requested, false, nil
		}
		// Root nodes default to public.
		return true, false, nil
	}

	if requested == nil {
		return parent.IsPublic, true, nil
	}
	// A private parent cannot contain a public child.
	if *requested && !parent.IsPublic {
		return false, false, domain.ErrVisibilityConflict
	}
	return *requested, false, nil
}
