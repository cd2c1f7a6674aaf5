package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionDelete         = "delete"
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionRegister       = "register"
	ActionInviteSent     = "invite_sent"
	ActionInviteAccepted = "invite_accepted"
	ActionVerseJoined    = "verse_joined"
	ActionSetupCompleted = "verse_setup_completed"
	ActionRoleAssigned   = "role_assigned"
	ActionRoleRemoved    = "role_removed"
	ActionUpload         = "upload"
)

const (
	ResourceUser       = "user"
	ResourceVerse      = "verse"
	ResourceInvitation = "invitation"
	ResourceRole       = "role"
	ResourceChannel    = "channel"
	ResourceUpload     = "upload"
	ResourceDashboard  = "dashboard"
)

const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

var knownActions = map[string]struct{}{
	ActionCreate:         {},
	ActionUpdate:         {},
	ActionDelete:         {},
	ActionLogin:          {},
	ActionLogout:         {},
	ActionRegister:       {},
	ActionInviteSent:     {},
	ActionInviteAccepted: {},
	ActionVerseJoined:    {},
	ActionSetupCompleted: {},
	ActionRoleAssigned:   {},
	ActionRoleRemoved:    {},
	ActionUpload:         {},
}

var knownSeverities = map[string]struct{}{
	SeverityInfo:     {},
	SeverityWarning:  {},
	SeverityError:    {},
	SeverityCritical: {},
}

func ValidAction(action string) bool {
	_, ok := knownActions[action]
	return ok
}

func ValidSeverity(severity string) bool {
	_, ok := knownSeverities[severity]
	return ok
}

// ActivityLog is append only. Rows are never updated or deleted.
type ActivityLog struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	VerseID      *snowflake.ID     `gorm:"index" json:"verse_id,omitempty"`
	UserID       *snowflake.ID     `gorm:"index" json:"user_id,omitempty"`
	Action       string            `gorm:"size:64;not null" json:"action"`
	ResourceType string            `gorm:"size:64;not null" json:"resource_type"`
	ResourceID   *string           `gorm:"size:64" json:"resource_id,omitempty"`
	Severity     string            `gorm:"size:16;not null;default:info" json:"severity"`
	Details      datatypes.JSONMap `gorm:"type:jsonb" json:"details,omitempty"`
	IPAddress    *string           `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent    *string           `gorm:"size:512" json:"user_agent,omitempty"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

type ActivityCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	VerseID      snowflake.ID
	Action       string
	ResourceType string
	ResourceID   string
	Severity     string
	StartAt      *time.Time
	EndAt        *time.Time
	Cursor       *ActivityCursor
	Limit        int
}
