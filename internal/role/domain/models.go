// Package domain contains verse-scoped role and membership types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	RoleAdministrator = "Administrator"
	RoleEditor        = "Editor"
	RoleExpert        = "Expert"
)

// Capability is a closed enumeration of verse-level permissions.
type Capability string

const (
	CapabilityManageUsers    Capability = "manage_users"
	CapabilityManageAssets   Capability = "manage_assets"
	CapabilityManageChannels Capability = "manage_channels"
	CapabilityManageVerse    Capability = "manage_verse"
	CapabilityInviteUsers    Capability = "invite_users"
)

// AllCapabilities lists every known capability.
func AllCapabilities() []Capability {
	return []Capability{
		CapabilityManageUsers,
		CapabilityManageAssets,
		CapabilityManageChannels,
		CapabilityManageVerse,
		CapabilityInviteUsers,
	}
}

// ValidCapability reports whether raw names a known capability.
func ValidCapability(raw string) bool {
	switch Capability(raw) {
	case CapabilityManageUsers, CapabilityManageAssets, CapabilityManageChannels,
		CapabilityManageVerse, CapabilityInviteUsers:
		return true
	default:
		return false
	}
}

// ValidRoleName reports whether name is one of the allowed role names.
func ValidRoleName(name string) bool {
	switch name {
	case RoleAdministrator, RoleEditor, RoleExpert:
		return true
	default:
		return false
	}
}

// AdministratorPermissions returns the capability map granted to the
// bootstrap Administrator role.
func AdministratorPermissions() datatypes.JSONMap {
	perms := datatypes.JSONMap{}
	for _, capability := range AllCapabilities() {
		perms[string(capability)] = true
	}
	return perms
}

// Role is a named permission bundle scoped to exactly one verse.
type Role struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	VerseID      snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_roles_verse_name,priority:1" json:"verse_id"`
	Name         string            `gorm:"type:text;not null;uniqueIndex:ux_roles_verse_name,priority:2" json:"name"`
	Description  *string           `gorm:"type:text" json:"description,omitempty"`
	Permissions  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"permissions"`
	IsSystemRole bool              `gorm:"column:is_system_role;not null;default:false" json:"is_system_role"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Role) TableName() string { return "roles" }

// Grants reports whether the role grants the capability. The Administrator
// role satisfies every capability regardless of the stored permission map.
func (r *Role) Grants(capability Capability) bool {
	if r == nil {
		return false
	}
	if r.Name == RoleAdministrator {
		return true
	}
	granted, ok := r.Permissions[string(capability)].(bool)
	return ok && granted
}

// UserRole grants a user a role inside a specific verse.
type UserRole struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID     snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_user_roles_user_verse,priority:1" json:"user_id"`
	VerseID    snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_user_roles_user_verse,priority:2" json:"verse_id"`
	RoleID     snowflake.ID  `gorm:"not null;index" json:"role_id"`
	AssignedBy *snowflake.ID `gorm:"column:assigned_by" json:"assigned_by,omitempty"`
	IsActive   bool          `gorm:"column:is_active;not null;default:true" json:"is_active"`
	ExpiresAt  *time.Time    `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (UserRole) TableName() string { return "user_roles" }
