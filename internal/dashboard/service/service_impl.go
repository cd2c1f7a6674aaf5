package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	"github.com/samuel161415/BryteSpring/internal/authorization"
	channeldomain "github.com/samuel161415/BryteSpring/internal/channel/domain"
	"github.com/samuel161415/BryteSpring/internal/dashboard/domain"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
	versedomain "github.com/samuel161415/BryteSpring/internal/verse/domain"
	"github.com/samuel161415/BryteSpring/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const recentActivityLimit = 20

type Params struct {
	fx.In

	Log       *zap.Logger
	Authz     authorization.Service
	VerseRepo versedomain.Repository
	RoleRepo  roledomain.Repository
	InvRepo   invitationdomain.Repository
	Channels  channeldomain.Service
	Audit     auditdomain.Service
}

type Service struct {
	log       *zap.Logger
	authz     authorization.Service
	verseRepo versedomain.Repository
	roleRepo  roledomain.Repository
	invRepo   invitationdomain.Repository
	channels  channeldomain.Service
	audit     auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("dashboard.service"),
		authz:     p.Authz,
		verseRepo: p.VerseRepo,
		roleRepo:  p.RoleRepo,
		invRepo:   p.InvRepo,
		channels:  p.Channels,
		audit:     p.Audit,
	}
}

func (s *Service) Get(ctx context.Context, userID snowflake.ID, email string, verseID snowflake.ID) (*domain.View, error) {
	membership, err := s.authz.Resolve(ctx, userID, email, verseID)
	if err != nil {
		return nil, err
	}

	verse, err := s.verseRepo.FindByID(ctx, verseID)
	if err != nil {
		return nil, err
	}

	tree, err := s.channels.Structure(ctx, verseID)
	if err != nil {
		return nil, err
	}

	memberCount, err := s.roleRepo.CountActiveMembers(ctx, verseID)
	if err != nil {
		return nil, err
	}

	view := &domain.View{
		Verse:        verse,
		RoleName:     membership.Role.Name,
		Permissions:  capabilityMap(membership),
		MemberCount:  memberCount,
		ChannelCount: countNodes(tree),
		Channels:     tree,
	}

	switch membership.Role.Name {
	case roledomain.RoleAdministrator:
		invitations, err := s.pendingInvitations(ctx, verseID)
		if err != nil {
			s.log.Warn("failed to load pending invitations", zap.String("verse_id", verseID.String()), zap.Error(err))
		} else {
			view.Invitations = invitations
		}

		activity, err := s.audit.ListByVerse(ctx, auditdomain.ListActivityRequest{
			Pagination: pagination.Pagination{PageSize: recentActivityLimit},
			VerseID:    verseID,
		})
		if err != nil {
			s.log.Warn("failed to load recent activity", zap.String("verse_id", verseID.String()), zap.Error(err))
		} else {
			view.Activity = activity.Activities
		}
	case roledomain.RoleEditor:
		activity, err := s.contentActivity(ctx, verseID)
		if err != nil {
			s.log.Warn("failed to load content activity", zap.String("verse_id", verseID.String()), zap.Error(err))
		} else {
			view.ContentActivity = activity
		}
	case roledomain.RoleExpert:
		view.AccessibleChannels = publicNodes(tree)
	}

	return view, nil
}

// contentActivity returns the latest channel and upload events for the
// Editor dashboard, newest first.
func (s *Service) contentActivity(ctx context.Context, verseID snowflake.ID) ([]auditdomain.ActivityLog, error) {
	merged := make([]auditdomain.ActivityLog, 0, 2*recentActivityLimit)
	for _, resource := range []string{auditdomain.ResourceChannel, auditdomain.ResourceUpload} {
		page, err := s.audit.ListByVerse(ctx, auditdomain.ListActivityRequest{
			Pagination:   pagination.Pagination{PageSize: recentActivityLimit},
			VerseID:      verseID,
			ResourceType: resource,
		})
		if err != nil {
			return nil, err
		}
		merged = append(merged, page.Activities...)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if len(merged) > recentActivityLimit {
		merged = merged[:recentActivityLimit]
	}
	return merged, nil
}

// publicNodes prunes private nodes from the tree. A private node never has
// a public descendant, so its whole subtree goes with it.
func publicNodes(tree []*channeldomain.TreeNode) []*channeldomain.TreeNode {
	out := make([]*channeldomain.TreeNode, 0, len(tree))
	for _, node := range tree {
		if !node.Channel.IsPublic {
			continue
		}
		visible := *node
		visible.Children = publicNodes(node.Children)
		out = append(out, &visible)
	}
	return out
}

func (s *Service) pendingInvitations(ctx context.Context, verseID snowflake.ID) ([]invitationdomain.Invitation, error) {
	all, err := s.invRepo.ListByVerse(ctx, verseID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pending := make([]invitationdomain.Invitation, 0, len(all))
	for _, invitation := range all {
		if invitation.IsAccepted || invitation.Expired(now) {
			continue
		}
		pending = append(pending, invitation)
	}
	return pending, nil
}

func capabilityMap(membership *authorization.Membership) map[string]bool {
	out := make(map[string]bool, len(roledomain.AllCapabilities()))
	for _, capability := range roledomain.AllCapabilities() {
		out[string(capability)] = membership.Can(capability)
	}
	return out
}

func countNodes(tree []*channeldomain.TreeNode) int {
	total := 0
	for _, node := range tree {
		total += 1 + countNodes(node.Children)
	}
	return total
}
