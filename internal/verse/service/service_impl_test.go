package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	authdomain "github.com/samuel161415/BryteSpring/internal/auth/domain"
	authrepo "github.com/samuel161415/BryteSpring/internal/auth/repository"
	channeldomain "github.com/samuel161415/BryteSpring/internal/channel/domain"
	channelrepo "github.com/samuel161415/BryteSpring/internal/channel/repository"
	"github.com/samuel161415/BryteSpring/internal/config"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
	invitationrepo "github.com/samuel161415/BryteSpring/internal/invitation/repository"
	invitationservice "github.com/samuel161415/BryteSpring/internal/invitation/service"
	"github.com/samuel161415/BryteSpring/internal/providers/email"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
	rolerepo "github.com/samuel161415/BryteSpring/internal/role/repository"
	roleservice "github.com/samuel161415/BryteSpring/internal/role/service"
	"github.com/samuel161415/BryteSpring/internal/verse/domain"
	verserepo "github.com/samuel161415/BryteSpring/internal/verse/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubAudit struct{}

func (s *stubAudit) Record(ctx context.Context, entry auditdomain.Entry) error { return nil }

func (s *stubAudit) ListByVerse(ctx context.Context, req auditdomain.ListActivityRequest) (auditdomain.ListActivityResponse, error) {
	return auditdomain.ListActivityResponse{}, nil
}

type fixture struct {
	svc      *Service
	db       *gorm.DB
	node     *snowflake.Node
	roleRepo roledomain.Repository
	invRepo  invitationdomain.Repository
	userRepo authdomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Verse{},
		&roledomain.Role{},
		&roledomain.UserRole{},
		&invitationdomain.Invitation{},
		&authdomain.User{},
		&channeldomain.Channel{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{InviteBaseURL: "https://app.example.test"}
	audit := &stubAudit{}
	log := zap.NewNop()

	roleRepository := rolerepo.NewRepository(db)
	invRepository := invitationrepo.NewRepository(db)
	verseRepository := verserepo.NewRepository(db)
	userRepository := authrepo.NewRepository(db)

	roleSvc := roleservice.NewService(roleservice.Params{
		Log:   log,
		Repo:  roleRepository,
		Audit: audit,
		GenID: node,
	})
	invitationSvc := invitationservice.NewService(invitationservice.Params{
		Log:       log,
		Config:    cfg,
		Repo:      invRepository,
		RoleRepo:  roleRepository,
		VerseRepo: verseRepository,
		Email:     &email.NoOpProvider{},
		Audit:     audit,
		GenID:     node,
	})

	defaults, err := config.NewVerseDefaultsHolder()
	require.NoError(t, err)

	svc := NewService(Params{
		Log:         log,
		DB:          db,
		Repo:        verseRepository,
		RoleService: roleSvc,
		RoleRepo:    roleRepository,
		Invitations: invitationSvc,
		InvRepo:     invRepository,
		UserRepo:    userRepository,
		ChannelRepo: channelrepo.NewRepository(db),
		Audit:       audit,
		Defaults:    defaults,
		GenID:       node,
	}).(*Service)

	return &fixture{
		svc:      svc,
		db:       db,
		node:     node,
		roleRepo: roleRepository,
		invRepo:  invRepository,
		userRepo: userRepository,
	}
}

func (f *fixture) superadmin() domain.Actor {
	return domain.Actor{ID: f.node.Generate(), Email: "root@example.test", IsSuperadmin: true}
}

// bootstrap creates a verse with its admin user already holding the
// Administrator role, mirroring the state after the admin registered
// and joined.
func (f *fixture) bootstrap(t *testing.T, adminEmail string) (*domain.CreateInitialResult, *authdomain.User) {
	t.Helper()
	ctx := context.Background()

	result, err := f.svc.CreateInitial(ctx, f.superadmin(), domain.CreateInitialRequest{
		Name:       "Acme",
		AdminEmail: adminEmail,
	})
	require.NoError(t, err)

	admin := &authdomain.User{
		ID:           f.node.Generate(),
		Email:        adminEmail,
		PasswordHash: "irrelevant",
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(admin).Error)
	require.NoError(t, f.roleRepo.CreateUserRole(ctx, &roledomain.UserRole{
		ID:       f.node.Generate(),
		UserID:   admin.ID,
		VerseID:  result.Verse.ID,
		RoleID:   result.AdminRoleID,
		IsActive: true,
	}))
	return result, admin
}

func TestCreateInitialBootstrapsRoleAndInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.CreateInitial(ctx, f.superadmin(), domain.CreateInitialRequest{
		Name:       "Acme",
		AdminEmail: "Admin@Acme.Test",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@acme.test", result.Verse.AdminEmail)
	assert.False(t, result.Verse.IsSetupComplete)
	assert.NotEmpty(t, result.InvitationToken)

	// Default branding, no logo configured means none stored.
	assert.Nil(t, result.Verse.Branding.LogoURL)
	assert.Equal(t, "#3B82F6", result.Verse.Branding.PrimaryColor)

	role, err := f.roleRepo.FindByID(ctx, result.AdminRoleID)
	require.NoError(t, err)
	assert.Equal(t, roledomain.RoleAdministrator, role.Name)
	assert.True(t, role.IsSystemRole)

	invitation, err := f.invRepo.FindPending(ctx, result.Verse.ID, "admin@acme.test")
	require.NoError(t, err)
	assert.Equal(t, result.AdminRoleID, invitation.RoleID)
}

func TestCreateInitialRequiresSuperadmin(t *testing.T) {
	f := newFixture(t)

	actor := domain.Actor{ID: f.node.Generate(), Email: "user@example.test"}
	_, err := f.svc.CreateInitial(context.Background(), actor, domain.CreateInitialRequest{
		Name:       "Acme",
		AdminEmail: "admin@acme.test",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCompleteSetupRunsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, admin := f.bootstrap(t, "admin@acme.test")
	actor := domain.Actor{ID: admin.ID, Email: admin.Email}

	subdomain := "Acme Corp"
	verse, err := f.svc.CompleteSetup(ctx, actor, result.Verse.ID, domain.CompleteSetupRequest{
		Subdomain: &subdomain,
		InitialChannels: []domain.InitialChannel{
			{Name: "General", Type: channeldomain.TypeChannel, IsPublic: true},
			{Name: "general", Type: channeldomain.TypeChannel},
		},
	})
	require.NoError(t, err)
	assert.True(t, verse.IsSetupComplete)
	require.NotNil(t, verse.Subdomain)
	assert.Equal(t, "acme-corp", *verse.Subdomain)
	require.NotNil(t, verse.SetupCompletedBy)
	assert.Equal(t, admin.ID, *verse.SetupCompletedBy)

	// Duplicate initial channel names collapse to one row.
	var channels int64
	require.NoError(t, f.db.Model(&channeldomain.Channel{}).
		Where("verse_id = ?", result.Verse.ID).Count(&channels).Error)
	assert.Equal(t, int64(1), channels)

	_, err = f.svc.CompleteSetup(ctx, actor, result.Verse.ID, domain.CompleteSetupRequest{})
	assert.ErrorIs(t, err, domain.ErrAlreadyComplete)
}

func TestCompleteSetupRequiresAdministrator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, _ := f.bootstrap(t, "admin@acme.test")

	outsider := domain.Actor{ID: f.node.Generate(), Email: "outsider@example.test"}
	_, err := f.svc.CompleteSetup(ctx, outsider, result.Verse.ID, domain.CompleteSetupRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestJoinConvertsAcceptedInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, admin := f.bootstrap(t, "admin@acme.test")
	adminActor := domain.Actor{ID: admin.ID, Email: admin.Email}
	_, err := f.svc.CompleteSetup(ctx, adminActor, result.Verse.ID, domain.CompleteSetupRequest{})
	require.NoError(t, err)

	member := &authdomain.User{
		ID:           f.node.Generate(),
		Email:        "member@example.test",
		PasswordHash: "irrelevant",
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(member).Error)

	now := time.Now().UTC()
	require.NoError(t, f.db.Create(&invitationdomain.Invitation{
		ID:         f.node.Generate(),
		VerseID:    result.Verse.ID,
		Email:      member.Email,
		RoleID:     result.AdminRoleID,
		Token:      "member-token",
		InvitedBy:  admin.ID,
		IsAccepted: true,
		AcceptedAt: &now,
		ExpiresAt:  now.Add(24 * time.Hour),
	}).Error)

	actor := domain.Actor{ID: member.ID, Email: member.Email}
	joined, err := f.svc.Join(ctx, actor, result.Verse.ID)
	require.NoError(t, err)
	assert.Equal(t, roledomain.RoleAdministrator, joined.RoleName)

	user, err := f.userRepo.FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, user.HasJoined(result.Verse.ID))

	_, err = f.svc.Join(ctx, actor, result.Verse.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)
}

func TestJoinWithoutAcceptedInvitationForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, admin := f.bootstrap(t, "admin@acme.test")
	adminActor := domain.Actor{ID: admin.ID, Email: admin.Email}
	_, err := f.svc.CompleteSetup(ctx, adminActor, result.Verse.ID, domain.CompleteSetupRequest{})
	require.NoError(t, err)

	stranger := &authdomain.User{
		ID:           f.node.Generate(),
		Email:        "stranger@example.test",
		PasswordHash: "irrelevant",
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(stranger).Error)

	_, err = f.svc.Join(ctx, domain.Actor{ID: stranger.ID, Email: stranger.Email}, result.Verse.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestJoinRequiresCompletedSetup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, admin := f.bootstrap(t, "admin@acme.test")

	_, err := f.svc.Join(ctx, domain.Actor{ID: admin.ID, Email: admin.Email}, result.Verse.ID)
	assert.ErrorIs(t, err, domain.ErrSetupIncomplete)
}

func TestRevokedMemberCanRejoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, admin := f.bootstrap(t, "admin@acme.test")
	adminActor := domain.Actor{ID: admin.ID, Email: admin.Email}
	_, err := f.svc.CompleteSetup(ctx, adminActor, result.Verse.ID, domain.CompleteSetupRequest{})
	require.NoError(t, err)

	member := &authdomain.User{
		ID:           f.node.Generate(),
		Email:        "returning@example.test",
		PasswordHash: "irrelevant",
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(member).Error)

	now := time.Now().UTC()
	require.NoError(t, f.db.Create(&invitationdomain.Invitation{
		ID:         f.node.Generate(),
		VerseID:    result.Verse.ID,
		Email:      member.Email,
		RoleID:     result.AdminRoleID,
		Token:      "returning-token",
		InvitedBy:  admin.ID,
		IsAccepted: true,
		AcceptedAt: &now,
		ExpiresAt:  now.Add(24 * time.Hour),
	}).Error)

	actor := domain.Actor{ID: member.ID, Email: member.Email}
	_, err = f.svc.Join(ctx, actor, result.Verse.ID)
	require.NoError(t, err)

	require.NoError(t, f.roleRepo.DeactivateUserRole(ctx, member.ID, result.Verse.ID))

	joined, err := f.svc.Join(ctx, actor, result.Verse.ID)
	require.NoError(t, err)
	assert.Equal(t, roledomain.RoleAdministrator, joined.RoleName)
}

func TestDeleteRequiresSuperadmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, admin := f.bootstrap(t, "admin@acme.test")

	// Even the verse Administrator cannot delete it.
	err := f.svc.Delete(ctx, domain.Actor{ID: admin.ID, Email: admin.Email}, result.Verse.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, f.superadmin(), result.Verse.ID))
}

func TestSubdomainFreedAfterSoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.superadmin()

	first, err := f.svc.CreateInitial(ctx, root, domain.CreateInitialRequest{
		Name:       "First",
		AdminEmail: "first@example.test",
	})
	require.NoError(t, err)
	second, err := f.svc.CreateInitial(ctx, root, domain.CreateInitialRequest{
		Name:       "Second",
		AdminEmail: "second@example.test",
	})
	require.NoError(t, err)

	subdomain := "shared"
	_, err = f.svc.Update(ctx, root, first.Verse.ID, domain.UpdateVerseRequest{Subdomain: &subdomain})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, root, second.Verse.ID, domain.UpdateVerseRequest{Subdomain: &subdomain})
	assert.ErrorIs(t, err, domain.ErrSubdomainTaken)

	require.NoError(t, f.svc.Delete(ctx, root, first.Verse.ID))

	_, err = f.svc.Update(ctx, root, second.Verse.ID, domain.UpdateVerseRequest{Subdomain: &subdomain})
	assert.NoError(t, err)
}

func TestDeleteHidesVerse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.superadmin()

	result, err := f.svc.CreateInitial(ctx, root, domain.CreateInitialRequest{
		Name:       "Ephemeral",
		AdminEmail: "gone@example.test",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, root, result.Verse.ID))

	err = f.svc.Delete(ctx, root, result.Verse.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.svc.List(ctx, domain.ListVersesRequest{})
	require.NoError(t, err)
	for _, v := range list.Verses {
		assert.NotEqual(t, result.Verse.ID, v.ID)
	}
}
