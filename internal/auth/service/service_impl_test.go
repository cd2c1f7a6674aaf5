package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	"github.com/samuel161415/BryteSpring/internal/auth/domain"
	authrepo "github.com/samuel161415/BryteSpring/internal/auth/repository"
	"github.com/samuel161415/BryteSpring/internal/config"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
	invitationrepo "github.com/samuel161415/BryteSpring/internal/invitation/repository"
	invitationservice "github.com/samuel161415/BryteSpring/internal/invitation/service"
	"github.com/samuel161415/BryteSpring/internal/providers/email"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
	rolerepo "github.com/samuel161415/BryteSpring/internal/role/repository"
	versedomain "github.com/samuel161415/BryteSpring/internal/verse/domain"
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
	svc     *Service
	db      *gorm.DB
	node    *snowflake.Node
	verseID snowflake.ID
	roleID  snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&invitationdomain.Invitation{},
		&roledomain.Role{},
		&versedomain.Verse{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{
		AuthJWTSecret: "unit-test-secret",
		InviteBaseURL: "https://app.example.test",
	}
	audit := &stubAudit{}

	invitations := invitationservice.NewService(invitationservice.Params{
		Log:       zap.NewNop(),
		Config:    cfg,
		Repo:      invitationrepo.NewRepository(db),
		RoleRepo:  rolerepo.NewRepository(db),
		VerseRepo: verserepo.NewRepository(db),
		Email:     &email.NoOpProvider{},
		Audit:     audit,
		GenID:     node,
	})

	svc := NewService(Params{
		Log:         zap.NewNop(),
		Config:      cfg,
		Repo:        authrepo.NewRepository(db),
		Invitations: invitations,
		Audit:       audit,
		GenID:       node,
	}).(*Service)

	verseID := node.Generate()
	require.NoError(t, db.Create(&versedomain.Verse{
		ID:         verseID,
		Name:       "Acme",
		AdminEmail: "admin@acme.test",
		IsActive:   true,
		CreatedBy:  node.Generate(),
	}).Error)

	roleID := node.Generate()
	require.NoError(t, db.Create(&roledomain.Role{
		ID:          roleID,
		VerseID:     verseID,
		Name:        roledomain.RoleEditor,
		Permissions: roledomain.AdministratorPermissions(),
	}).Error)

	return &fixture{svc: svc, db: db, node: node, verseID: verseID, roleID: roleID}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, domain.RegisterRequest{
		Email:    "Jo.Doe@Example.Test",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "jo.doe@example.test", resp.User.Email)
	assert.NotEmpty(t, resp.Token)
	assert.Nil(t, resp.Invitation)

	login, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "jo.doe@example.test",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	require.NotNil(t, login.User.LastLoginAt)

	_, err = f.svc.Login(ctx, domain.LoginRequest{
		Email:    "jo.doe@example.test",
		Password: "wrong password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, domain.RegisterRequest{
		Email:    "taken@example.test",
		Password: "first password",
	})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, domain.RegisterRequest{
		Email:    "Taken@Example.Test",
		Password: "second password",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "short@example.test",
		Password: "tiny",
	})
	assert.ErrorIs(t, err, domain.ErrWeakPassword)
}

func TestRegisterWithInvitationToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	firstName := "Maya"
	require.NoError(t, f.db.Create(&invitationdomain.Invitation{
		ID:        f.node.Generate(),
		VerseID:   f.verseID,
		Email:     "maya@example.test",
		RoleID:    f.roleID,
		Token:     "welcome-token",
		InvitedBy: f.node.Generate(),
		FirstName: &firstName,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}).Error)

	token := "welcome-token"
	resp, err := f.svc.Register(ctx, domain.RegisterRequest{
		Email:           "maya@example.test",
		Password:        "long enough password",
		InvitationToken: &token,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Invitation)
	assert.True(t, resp.Invitation.IsAccepted)
	require.NotNil(t, resp.User.FirstName)
	assert.Equal(t, "Maya", *resp.User.FirstName)

	// The invitation email must match the registering address.
	otherToken := "welcome-token"
	_, err = f.svc.Register(ctx, domain.RegisterRequest{
		Email:           "not.maya@example.test",
		Password:        "long enough password",
		InvitationToken: &otherToken,
	})
	assert.Error(t, err)
}

func TestAuthenticateRejectsTamperedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, domain.RegisterRequest{
		Email:    "secure@example.test",
		Password: "long enough password",
	})
	require.NoError(t, err)

	user, err := f.svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)

	// Flip the last character of the signature.
	tampered := resp.Token[:len(resp.Token)-1]
	if strings.HasSuffix(resp.Token, "A") {
		tampered += "B"
	} else {
		tampered += "A"
	}
	_, err = f.svc.Authenticate(ctx, tampered)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, domain.RegisterRequest{
		Email:    "forged@example.test",
		Password: "long enough password",
	})
	require.NoError(t, err)

	forged, err := issueToken("some-other-secret", resp.User.ID, time.Now().UTC())
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLoginInactiveUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, domain.RegisterRequest{
		Email:    "gone@example.test",
		Password: "long enough password",
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&domain.User{}).
		Where("id = ?", resp.User.ID).
		Update("is_active", false).Error)

	_, err = f.svc.Login(ctx, domain.LoginRequest{
		Email:    "gone@example.test",
		Password: "long enough password",
	})
	assert.ErrorIs(t, err, domain.ErrUserInactive)

	_, err = f.svc.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLoginSurfacesAcceptedInvitationsAwaitingJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	acceptedAt := now.Add(-time.Hour)
	require.NoError(t, f.db.Create(&invitationdomain.Invitation{
		ID:         f.node.Generate(),
		VerseID:    f.verseID,
		Email:      "pending@example.test",
		RoleID:     f.roleID,
		Token:      "accepted-token",
		InvitedBy:  f.node.Generate(),
		IsAccepted: true,
		AcceptedAt: &acceptedAt,
		ExpiresAt:  now.Add(24 * time.Hour),
	}).Error)

	_, err := f.svc.Register(ctx, domain.RegisterRequest{
		Email:    "pending@example.test",
		Password: "long enough password",
	})
	require.NoError(t, err)

	login, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "pending@example.test",
		Password: "long enough password",
	})
	require.NoError(t, err)
	require.Len(t, login.PendingInvitations, 1)
	assert.Equal(t, f.verseID, login.PendingInvitations[0].VerseID)
}
