package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Invitation is a one time token granting a prospective member a
// pre-assigned role in a verse. The token is the sole credential needed
// to resolve verse and role during registration.
type Invitation struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	VerseID    snowflake.ID  `gorm:"not null;index" json:"verse_id"`
	Email      string        `gorm:"size:255;not null;index" json:"email"`
	RoleID     snowflake.ID  `gorm:"not null" json:"role_id"`
	Token      string        `gorm:"size:64;not null;uniqueIndex" json:"-"`
	InvitedBy  snowflake.ID  `gorm:"not null" json:"invited_by"`
	FirstName  *string       `gorm:"size:128" json:"first_name,omitempty"`
	LastName   *string       `gorm:"size:128" json:"last_name,omitempty"`
	Position   *string       `gorm:"size:128" json:"position,omitempty"`
	IsAccepted bool          `gorm:"not null;default:false" json:"is_accepted"`
	AcceptedAt *time.Time    `json:"accepted_at,omitempty"`
	ExpiresAt  time.Time     `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (Invitation) TableName() string {
	return "invitations"
}

// Expired is derived lazily. There is no background sweep.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
