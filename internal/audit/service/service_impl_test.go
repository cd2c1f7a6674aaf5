package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/samuel161415/BryteSpring/internal/audit/domain"
	auditrepo "github.com/samuel161415/BryteSpring/internal/audit/repository"
	"github.com/samuel161415/BryteSpring/internal/auditcontext"
	"github.com/samuel161415/BryteSpring/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ActivityLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	}).(*Service)
	return svc, db, node
}

func TestRecordRejectsUnknownAction(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Record(context.Background(), domain.Entry{Action: "reboot_universe"})
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestRecordMasksSecretsAndEnrichesFromContext(t *testing.T) {
	svc, db, node := newTestService(t)

	actorID := node.Generate()
	verseID := node.Generate()
	ctx := auditcontext.WithActorID(context.Background(), actorID.String())
	ctx = auditcontext.WithRequestID(ctx, "req-123")
	ctx = auditcontext.WithIPAddress(ctx, "203.0.113.7")
	ctx = auditcontext.WithUserAgent(ctx, "test-agent/1.0")

	require.NoError(t, svc.Record(ctx, domain.Entry{
		VerseID:      &verseID,
		Action:       domain.ActionLogin,
		ResourceType: domain.ResourceUser,
		Details: map[string]any{
			"password": "hunter42secret",
			"note":     "left intact",
		},
	}))

	var row domain.ActivityLog
	require.NoError(t, db.First(&row, "action = ?", domain.ActionLogin).Error)

	require.NotNil(t, row.UserID)
	assert.Equal(t, actorID, *row.UserID)
	assert.Equal(t, domain.SeverityInfo, row.Severity)
	require.NotNil(t, row.IPAddress)
	assert.Equal(t, "203.0.113.7", *row.IPAddress)
	require.NotNil(t, row.UserAgent)
	assert.Equal(t, "test-agent/1.0", *row.UserAgent)

	assert.Equal(t, "left intact", row.Details["note"])
	assert.Equal(t, "req-123", row.Details["request_id"])
	masked, _ := row.Details["password"].(string)
	assert.NotContains(t, masked, "hunter42")
	assert.Contains(t, masked, "****")
}

func TestListByVerseValidation(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	_, err := svc.ListByVerse(ctx, domain.ListActivityRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidVerse)

	start := time.Now().UTC()
	end := start.Add(-time.Hour)
	_, err = svc.ListByVerse(ctx, domain.ListActivityRequest{
		VerseID: node.Generate(),
		StartAt: &start,
		EndAt:   &end,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	_, err = svc.ListByVerse(ctx, domain.ListActivityRequest{
		VerseID:    node.Generate(),
		Pagination: pagination.Pagination{PageToken: "not base64!"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestListByVerseCursorPagination(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()
	verseID := node.Generate()

	// Whole second timestamps so the RFC3339 cursor round trip is exact.
	base := time.Now().UTC().Truncate(time.Second).Add(-time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&domain.ActivityLog{
			ID:           node.Generate(),
			VerseID:      &verseID,
			Action:       domain.ActionUpdate,
			ResourceType: domain.ResourceVerse,
			Severity:     domain.SeverityInfo,
			Details:      datatypes.JSONMap{},
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}).Error)
	}

	first, err := svc.ListByVerse(ctx, domain.ListActivityRequest{
		VerseID:    verseID,
		Pagination: pagination.Pagination{PageSize: 2},
	})
	require.NoError(t, err)
	require.Len(t, first.Activities, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)
	// Newest first.
	assert.True(t, first.Activities[0].CreatedAt.After(first.Activities[1].CreatedAt))

	second, err := svc.ListByVerse(ctx, domain.ListActivityRequest{
		VerseID:    verseID,
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.Activities, 1)
	assert.False(t, second.HasMore)
	assert.True(t, first.Activities[1].CreatedAt.After(second.Activities[0].CreatedAt))
}
