// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// User represents a system user account. The joined verse list is only
// mutated by the join flow, membership details live in user_roles.
type User struct {
	ID           snowflake.ID                      `gorm:"primaryKey" json:"id"`
	Email        string                            `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string                            `gorm:"type:text;not null" json:"-"`
	FirstName    *string                           `gorm:"size:128" json:"first_name,omitempty"`
	LastName     *string                           `gorm:"size:128" json:"last_name,omitempty"`
	AvatarURL    *string                           `gorm:"size:512" json:"avatar_url,omitempty"`
	Position     *string                           `gorm:"size:128" json:"position,omitempty"`
	IsSuperadmin bool                              `gorm:"not null;default:false" json:"is_superadmin"`
	IsActive     bool                              `gorm:"not null;default:true" json:"is_active"`
	JoinedVerses datatypes.JSONSlice[snowflake.ID] `gorm:"type:jsonb" json:"joined_verses"`
	LastLoginAt  *time.Time                        `json:"last_login_at,omitempty"`
	CreatedAt    time.Time                         `json:"created_at"`
	UpdatedAt    time.Time                         `json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

func (u *User) HasJoined(verseID snowflake.ID) bool {
	for _, id := range u.JoinedVerses {
		if id == verseID {
			return true
		}
	}
	return false
}

func (u *User) FullName() string {
	first, last := "", ""
	if u.FirstName != nil {
		first = *u.FirstName
	}
	if u.LastName != nil {
		last = *u.LastName
	}
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	default:
		return last
	}
}
