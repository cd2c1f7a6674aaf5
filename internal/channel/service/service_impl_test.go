package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	"github.com/samuel161415/BryteSpring/internal/channel/domain"
	channelrepo "github.com/samuel161415/BryteSpring/internal/channel/repository"
	versedomain "github.com/samuel161415/BryteSpring/internal/verse/domain"
	verserepo "github.com/samuel161415/BryteSpring/internal/verse/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubAudit struct {
	entries []auditdomain.Entry
}

func (s *stubAudit) Record(ctx context.Context, entry auditdomain.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubAudit) ListByVerse(ctx context.Context, req auditdomain.ListActivityRequest) (auditdomain.ListActivityResponse, error) {
	return auditdomain.ListActivityResponse{}, nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *snowflake.Node, snowflake.ID) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Channel{}, &versedomain.Verse{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		Log:       zap.NewNop(),
		DB:        db,
		Repo:      channelrepo.NewRepository(db),
		VerseRepo: verserepo.NewRepository(db),
		Audit:     &stubAudit{},
		GenID:     node,
	}).(*Service)

	verseID := node.Generate()
	require.NoError(t, db.Create(&versedomain.Verse{
		ID:         verseID,
		Name:       "Acme",
		AdminEmail: "admin@acme.test",
		IsActive:   true,
		CreatedBy:  node.Generate(),
	}).Error)

	return svc, db, node, verseID
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func TestCreatePathsAndInheritedVisibility(t *testing.T) {
	svc, _, node, verseID := newTestService(t)
	ctx := context.Background()
	actor := node.Generate()

	folder, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID:  verseID,
		Name:     "Marketing",
		Type:     domain.TypeFolder,
		IsPublic: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Marketing", folder.Path)
	assert.True(t, folder.IsPublic)
	assert.False(t, folder.InheritedFromParent)

	child, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID:  verseID,
		Name:     "Campaigns",
		Type:     domain.TypeChannel,
		ParentID: &folder.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Marketing/Campaigns", child.Path)
	assert.True(t, child.IsPublic)
	assert.True(t, child.InheritedFromParent)
}

func TestCreateRootDefaultsToPublic(t *testing.T) {
	svc, _, node, verseID := newTestService(t)
	ctx := context.Background()
	actor := node.Generate()

	root, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID,
		Name:    "Town Square",
		Type:    domain.TypeChannel,
	})
	require.NoError(t, err)
	assert.True(t, root.IsPublic)
	assert.False(t, root.InheritedFromParent)

	hidden, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID:  verseID,
		Name:     "Drafts",
		Type:     domain.TypeChannel,
		IsPublic: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, hidden.IsPublic)
}

func TestCreateRejectsPublicChildOfPrivateParent(t *testing.T) {
	svc, _, node, verseID := newTestService(t)
	ctx := context.Background()
	actor := node.Generate()

	parent, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID:  verseID,
		Name:     "Internal",
		Type:     domain.TypeFolder,
		IsPublic: boolPtr(false),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID:  verseID,
		Name:     "Leaks",
		Type:     domain.TypeChannel,
		ParentID: &parent.ID,
		IsPublic: boolPtr(true),
	})
	assert.ErrorIs(t, err, domain.ErrVisibilityConflict)
}

func TestCreateSiblingNameConflictIsCaseInsensitive(t *testing.T) {
	svc, _, node, verseID := newTestService(t)
	ctx := context.Background()
	actor := node.Generate()

	_, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID,
		Name:    "News",
		Type:    domain.TypeChannel,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID,
		Name:    "news",
		Type:    domain.TypeChannel,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	// Same name under a different parent is fine.
	folder, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID,
		Name:    "Archive",
		Type:    domain.TypeFolder,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID:  verseID,
		Name:     "News",
		Type:     domain.TypeChannel,
		ParentID: &folder.ID,
	})
	assert.NoError(t, err)
}

func TestRenameRewritesDescendantPaths(t *testing.T) {
	svc, db, node, verseID := newTestService(t)
	ctx := context.Background()
	actor := node.Generate()

	root, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID, Name: "Projects", Type: domain.TypeFolder,
	})
	require.NoError(t, err)
	mid, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID, Name: "Alpha", Type: domain.TypeFolder, ParentID: &root.ID,
	})
	require.NoError(t, err)
	leaf, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID, Name: "Docs", Type: domain.TypeChannel, ParentID: &mid.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Projects/Alpha/Docs", leaf.Path)

	_, err = svc.Update(ctx, actor, root.ID, domain.UpdateChannelRequest{Name: strPtr("Work")})
	require.NoError(t, err)

	var got domain.Channel
	require.NoError(t, db.First(&got, "id = ?", leaf.ID).Error)
	assert.Equal(t, "Work/Alpha/Docs", got.Path)
	var gotMid domain.Channel
	require.NoError(t, db.First(&gotMid, "id = ?", mid.ID).Error)
	assert.Equal(t, "Work/Alpha", gotMid.Path)
}

func TestReparentIntoOwnSubtreeRejected(t *testing.T) {
	svc, _, node, verseID := newTestService(t)
	ctx := context.Background()
	actor := node.Generate()

	root, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID, Name: "Top", Type: domain.TypeFolder,
	})
	require.NoError(t, err)
	child, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID, Name: "Inner", Type: domain.TypeFolder, ParentID: &root.ID,
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, actor, root.ID, domain.UpdateChannelRequest{ParentID: &child.ID})
	assert.ErrorIs(t, err, domain.ErrCycle)

	_, err = svc.Update(ctx, actor, root.ID, domain.UpdateChannelRequest{ParentID: &root.ID})
	assert.ErrorIs(t, err, domain.ErrCycle)
}

func TestReparentVisibilityRules(t *testing.T) {
	svc, _, node, verseID := newTestService(t)
	ctx := context.Background()
	actor := node.Generate()

	private, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID:  verseID,
		Name:     "Vault",
		Type:     domain.TypeFolder,
		IsPublic: boolPtr(false),
	})
	require.NoError(t, err)
	open, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID:  verseID,
		Name:     "Open Floor",
		Type:     domain.TypeFolder,
		IsPublic: boolPtr(true),
	})
	require.NoError(t, err)

	// An explicitly public node cannot move under a private parent.
	loud, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID:  verseID,
		Name:     "Announcements",
		Type:     domain.TypeChannel,
		IsPublic: boolPtr(true),
	})
	require.NoError(t, err)
	_, err = svc.Update(ctx, actor, loud.ID, domain.UpdateChannelRequest{ParentID: &private.ID})
	assert.ErrorIs(t, err, domain.ErrVisibilityConflict)

	// An inheriting node follows its new parent's visibility.
	follower, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID:  verseID,
		Name:     "Notes",
		Type:     domain.TypeChannel,
		ParentID: &open.ID,
	})
	require.NoError(t, err)
	assert.True(t, follower.IsPublic)

	moved, err := svc.Update(ctx, actor, follower.ID, domain.UpdateChannelRequest{ParentID: &private.ID})
	require.NoError(t, err)
	assert.False(t, moved.IsPublic)
	assert.True(t, moved.InheritedFromParent)
}

func TestDeleteRequiresLeaf(t *testing.T) {
	svc, _, node, verseID := newTestService(t)
	ctx := context.Background()
	actor := node.Generate()

	folder, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID, Name: "Assets", Type: domain.TypeFolder,
	})
	require.NoError(t, err)
	child, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID, Name: "Images", Type: domain.TypeChannel, ParentID: &folder.ID,
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, actor, folder.ID)
	assert.ErrorIs(t, err, domain.ErrHasChildren)

	require.NoError(t, svc.Delete(ctx, actor, child.ID))
	require.NoError(t, svc.Delete(ctx, actor, folder.ID))

	_, err = svc.Get(ctx, folder.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStructureBuildsTree(t *testing.T) {
	svc, _, node, verseID := newTestService(t)
	ctx := context.Background()
	actor := node.Generate()

	root, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID, Name: "Root", Type: domain.TypeFolder,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID, Name: "Nested", Type: domain.TypeChannel, ParentID: &root.ID,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: verseID, Name: "Loose", Type: domain.TypeChannel,
	})
	require.NoError(t, err)

	tree, err := svc.Structure(ctx, verseID)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	byName := map[string]int{}
	for _, n := range tree {
		byName[n.Channel.Name] = len(n.Children)
	}
	assert.Equal(t, 1, byName["Root"])
	assert.Equal(t, 0, byName["Loose"])
}

func TestCreateCrossVerseParentRejected(t *testing.T) {
	svc, db, node, verseID := newTestService(t)
	ctx := context.Background()
	actor := node.Generate()

	otherVerse := node.Generate()
	require.NoError(t, db.Create(&versedomain.Verse{
		ID:         otherVerse,
		Name:       "Other",
		AdminEmail: "admin@other.test",
		IsActive:   true,
		CreatedBy:  actor,
	}).Error)

	parent, err := svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID: otherVerse, Name: "Foreign", Type: domain.TypeFolder,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, actor, domain.CreateChannelRequest{
		VerseID:  verseID,
		Name:     "Stray",
		Type:     domain.TypeChannel,
		ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, domain.ErrCrossVerseParent)
}
