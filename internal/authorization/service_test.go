package authorization

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	authdomain "github.com/samuel161415/BryteSpring/internal/auth/domain"
	authrepo "github.com/samuel161415/BryteSpring/internal/auth/repository"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
	invitationrepo "github.com/samuel161415/BryteSpring/internal/invitation/repository"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
	rolerepo "github.com/samuel161415/BryteSpring/internal/role/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	svc  Service
	db   *gorm.DB
	node *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&roledomain.Role{},
		&roledomain.UserRole{},
		&invitationdomain.Invitation{},
		&authdomain.User{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		Log:      zap.NewNop(),
		RoleRepo: rolerepo.NewRepository(db),
		InvRepo:  invitationrepo.NewRepository(db),
		AuthRepo: authrepo.NewRepository(db),
	})

	return &fixture{svc: svc, db: db, node: node}
}

func (f *fixture) seedMember(t *testing.T, verseID snowflake.ID, email, roleName string, perms datatypes.JSONMap) snowflake.ID {
	t.Helper()

	userID := f.node.Generate()
	require.NoError(t, f.db.Create(&authdomain.User{
		ID:           userID,
		Email:        email,
		PasswordHash: "irrelevant",
		IsActive:     true,
	}).Error)

	roleID := f.node.Generate()
	require.NoError(t, f.db.Create(&roledomain.Role{
		ID:          roleID,
		VerseID:     verseID,
		Name:        roleName,
		Permissions: perms,
	}).Error)
	require.NoError(t, f.db.Create(&roledomain.UserRole{
		ID:       f.node.Generate(),
		UserID:   userID,
		VerseID:  verseID,
		RoleID:   roleID,
		IsActive: true,
	}).Error)
	return userID
}

func TestResolveAdministratorGrantsEverything(t *testing.T) {
	f := newFixture(t)
	verseID := f.node.Generate()

	// Deliberately empty permission map, the name alone must win.
	userID := f.seedMember(t, verseID, "admin@example.test", roledomain.RoleAdministrator, datatypes.JSONMap{})

	membership, err := f.svc.Resolve(context.Background(), userID, "admin@example.test", verseID)
	require.NoError(t, err)
	for _, capability := range roledomain.AllCapabilities() {
		assert.True(t, membership.Can(capability), string(capability))
	}
}

func TestResolveCapabilityDenied(t *testing.T) {
	f := newFixture(t)
	verseID := f.node.Generate()

	userID := f.seedMember(t, verseID, "editor@example.test", roledomain.RoleEditor, datatypes.JSONMap{
		string(roledomain.CapabilityManageChannels): true,
		string(roledomain.CapabilityManageVerse):    false,
	})

	membership, err := f.svc.Resolve(context.Background(), userID, "editor@example.test", verseID)
	require.NoError(t, err)
	assert.True(t, membership.Can(roledomain.CapabilityManageChannels))
	assert.False(t, membership.Can(roledomain.CapabilityManageVerse))
	assert.False(t, membership.Can(roledomain.CapabilityManageUsers))
}

func TestResolveDistinguishesPendingInviteFromStranger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	verseID := f.node.Generate()
	userID := f.node.Generate()

	_, err := f.svc.Resolve(ctx, userID, "nobody@example.test", verseID)
	assert.ErrorIs(t, err, ErrNotMember)

	require.NoError(t, f.db.Create(&invitationdomain.Invitation{
		ID:        f.node.Generate(),
		VerseID:   verseID,
		Email:     "invited@example.test",
		RoleID:    f.node.Generate(),
		Token:     "pending-token",
		InvitedBy: f.node.Generate(),
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}).Error)

	_, err = f.svc.Resolve(ctx, userID, "invited@example.test", verseID)
	assert.ErrorIs(t, err, ErrInvitePending)
}

func TestResolveExpiredInviteCountsAsStranger(t *testing.T) {
	f := newFixture(t)
	verseID := f.node.Generate()

	require.NoError(t, f.db.Create(&invitationdomain.Invitation{
		ID:        f.node.Generate(),
		VerseID:   verseID,
		Email:     "late@example.test",
		RoleID:    f.node.Generate(),
		Token:     "expired-token",
		InvitedBy: f.node.Generate(),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}).Error)

	_, err := f.svc.Resolve(context.Background(), f.node.Generate(), "late@example.test", verseID)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestStatusForEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	verseID := f.node.Generate()

	f.seedMember(t, verseID, "member@example.test", roledomain.RoleEditor, datatypes.JSONMap{})

	status, err := f.svc.StatusForEmail(ctx, "member@example.test", verseID)
	require.NoError(t, err)
	assert.True(t, status.IsMember)
	assert.False(t, status.HasPendingInvitation)
	require.NotNil(t, status.RoleName)
	assert.Equal(t, roledomain.RoleEditor, *status.RoleName)

	require.NoError(t, f.db.Create(&invitationdomain.Invitation{
		ID:        f.node.Generate(),
		VerseID:   verseID,
		Email:     "invited@example.test",
		RoleID:    f.node.Generate(),
		Token:     "status-token",
		InvitedBy: f.node.Generate(),
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}).Error)

	status, err = f.svc.StatusForEmail(ctx, "invited@example.test", verseID)
	require.NoError(t, err)
	assert.False(t, status.IsMember)
	assert.True(t, status.HasPendingInvitation)
	assert.Nil(t, status.RoleName)

	status, err = f.svc.StatusForEmail(ctx, "unknown@example.test", verseID)
	require.NoError(t, err)
	assert.False(t, status.IsMember)
	assert.False(t, status.HasPendingInvitation)
}
