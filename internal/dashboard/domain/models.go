package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	channeldomain "github.com/samuel161415/BryteSpring/internal/channel/domain"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
	versedomain "github.com/samuel161415/BryteSpring/internal/verse/domain"
)

// View is the role-branched dashboard projection. Administrators
// additionally receive pending invitations and recent activity, Editors a
// recent content activity block and Experts the channels visible to them.
type View struct {
	Verse              *versedomain.Verse            `json:"verse"`
	RoleName           string                        `json:"role_name"`
	Permissions        map[string]bool               `json:"permissions"`
	MemberCount        int64                         `json:"member_count"`
	ChannelCount       int                           `json:"channel_count"`
	Channels           []*channeldomain.TreeNode     `json:"channels"`
	Invitations        []invitationdomain.Invitation `json:"invitations,omitempty"`
	Activity           []auditdomain.ActivityLog     `json:"activity,omitempty"`
	ContentActivity    []auditdomain.ActivityLog     `json:"content_activity,omitempty"`
	AccessibleChannels []*channeldomain.TreeNode     `json:"accessible_channels,omitempty"`
}

type Service interface {
	Get(ctx context.Context, userID snowflake.ID, email string, verseID snowflake.ID) (*View, error)
}

var ErrNotFound = errors.New("dashboard_not_found")
