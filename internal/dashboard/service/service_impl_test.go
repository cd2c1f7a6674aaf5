package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	auditrepo "github.com/samuel161415/BryteSpring/internal/audit/repository"
	auditservice "github.com/samuel161415/BryteSpring/internal/audit/service"
	authdomain "github.com/samuel161415/BryteSpring/internal/auth/domain"
	authrepo "github.com/samuel161415/BryteSpring/internal/auth/repository"
	"github.com/samuel161415/BryteSpring/internal/authorization"
	channeldomain "github.com/samuel161415/BryteSpring/internal/channel/domain"
	channelrepo "github.com/samuel161415/BryteSpring/internal/channel/repository"
	channelservice "github.com/samuel161415/BryteSpring/internal/channel/service"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
	invitationrepo "github.com/samuel161415/BryteSpring/internal/invitation/repository"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
	rolerepo "github.com/samuel161415/BryteSpring/internal/role/repository"
	versedomain "github.com/samuel161415/BryteSpring/internal/verse/domain"
	verserepo "github.com/samuel161415/BryteSpring/internal/verse/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc      *Service
	channels channeldomain.Service
	db       *gorm.DB
	node     *snowflake.Node
	roleRepo roledomain.Repository
	verseID  snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&authdomain.User{},
		&versedomain.Verse{},
		&roledomain.Role{},
		&roledomain.UserRole{},
		&invitationdomain.Invitation{},
		&channeldomain.Channel{},
		&auditdomain.ActivityLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	roleRepository := rolerepo.NewRepository(db)
	invRepository := invitationrepo.NewRepository(db)
	verseRepository := verserepo.NewRepository(db)
	userRepository := authrepo.NewRepository(db)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	channelSvc := channelservice.NewService(channelservice.Params{
		Log:       log,
		DB:        db,
		Repo:      channelrepo.NewRepository(db),
		VerseRepo: verseRepository,
		Audit:     auditSvc,
		GenID:     node,
	})
	authz := authorization.NewService(authorization.Params{
		Log:      log,
		RoleRepo: roleRepository,
		InvRepo:  invRepository,
		AuthRepo: userRepository,
	})

	svc := NewService(Params{
		Log:       log,
		Authz:     authz,
		VerseRepo: verseRepository,
		RoleRepo:  roleRepository,
		InvRepo:   invRepository,
		Channels:  channelSvc,
		Audit:     auditSvc,
	}).(*Service)

	verseID := node.Generate()
	require.NoError(t, db.Create(&versedomain.Verse{
		ID:         verseID,
		Name:       "Acme",
		AdminEmail: "admin@acme.test",
		IsActive:   true,
		CreatedBy:  node.Generate(),
	}).Error)

	return &fixture{
		svc:      svc,
		channels: channelSvc,
		db:       db,
		node:     node,
		roleRepo: roleRepository,
		verseID:  verseID,
	}
}

// member creates a user holding the named role in the fixture verse.
func (f *fixture) member(t *testing.T, roleName string, perms map[string]any) *authdomain.User {
	t.Helper()
	ctx := context.Background()

	user := &authdomain.User{
		ID:           f.node.Generate(),
		Email:        fmt.Sprintf("%s@example.test", roleName),
		PasswordHash: "irrelevant",
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(user).Error)

	role := &roledomain.Role{
		ID:          f.node.Generate(),
		VerseID:     f.verseID,
		Name:        roleName,
		Permissions: perms,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(role).Error)
	require.NoError(t, f.roleRepo.CreateUserRole(ctx, &roledomain.UserRole{
		ID:       f.node.Generate(),
		UserID:   user.ID,
		VerseID:  f.verseID,
		RoleID:   role.ID,
		IsActive: true,
	}))
	return user
}

func TestGetRejectsNonMember(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), f.node.Generate(), "stranger@example.test", f.verseID)
	assert.ErrorIs(t, err, authorization.ErrNotMember)
}

func TestGetAdministratorDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.member(t, roledomain.RoleAdministrator, roledomain.AdministratorPermissions())

	require.NoError(t, f.db.Create(&invitationdomain.Invitation{
		ID:        f.node.Generate(),
		VerseID:   f.verseID,
		Email:     "invited@example.test",
		RoleID:    f.node.Generate(),
		Token:     "pending-token",
		InvitedBy: admin.ID,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}).Error)

	_, err := f.channels.Create(ctx, admin.ID, channeldomain.CreateChannelRequest{
		VerseID: f.verseID,
		Name:    "General",
		Type:    channeldomain.TypeChannel,
	})
	require.NoError(t, err)

	view, err := f.svc.Get(ctx, admin.ID, admin.Email, f.verseID)
	require.NoError(t, err)
	assert.Equal(t, roledomain.RoleAdministrator, view.RoleName)
	assert.True(t, view.Permissions[string(roledomain.CapabilityManageVerse)])
	assert.Equal(t, int64(1), view.MemberCount)
	assert.Equal(t, 1, view.ChannelCount)
	require.Len(t, view.Invitations, 1)
	assert.Equal(t, "invited@example.test", view.Invitations[0].Email)
	assert.NotEmpty(t, view.Activity)
	assert.Empty(t, view.ContentActivity)
	assert.Empty(t, view.AccessibleChannels)
}

func TestGetEditorDashboardListsContentActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	editor := f.member(t, roledomain.RoleEditor, map[string]any{
		string(roledomain.CapabilityManageChannels): true,
	})

	_, err := f.channels.Create(ctx, editor.ID, channeldomain.CreateChannelRequest{
		VerseID: f.verseID,
		Name:    "Articles",
		Type:    channeldomain.TypeChannel,
	})
	require.NoError(t, err)

	view, err := f.svc.Get(ctx, editor.ID, editor.Email, f.verseID)
	require.NoError(t, err)
	assert.Equal(t, roledomain.RoleEditor, view.RoleName)
	require.NotEmpty(t, view.ContentActivity)
	assert.Equal(t, auditdomain.ResourceChannel, view.ContentActivity[0].ResourceType)
	assert.Empty(t, view.Invitations)
	assert.Empty(t, view.Activity)
}

func TestGetExpertDashboardPrunesPrivateChannels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expert := f.member(t, roledomain.RoleExpert, map[string]any{})
	isPrivate := false

	_, err := f.channels.Create(ctx, expert.ID, channeldomain.CreateChannelRequest{
		VerseID: f.verseID,
		Name:    "Public Stage",
		Type:    channeldomain.TypeChannel,
	})
	require.NoError(t, err)
	_, err = f.channels.Create(ctx, expert.ID, channeldomain.CreateChannelRequest{
		VerseID:  f.verseID,
		Name:     "Back Office",
		Type:     channeldomain.TypeFolder,
		IsPublic: &isPrivate,
	})
	require.NoError(t, err)

	view, err := f.svc.Get(ctx, expert.ID, expert.Email, f.verseID)
	require.NoError(t, err)
	assert.Equal(t, roledomain.RoleExpert, view.RoleName)
	assert.Equal(t, 2, view.ChannelCount)
	require.Len(t, view.AccessibleChannels, 1)
	assert.Equal(t, "Public Stage", view.AccessibleChannels[0].Channel.Name)
	assert.Empty(t, view.Activity)
	assert.Empty(t, view.Invitations)
}
