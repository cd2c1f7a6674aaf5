package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Branding is stored inline on the verse row.
type Branding struct {
	LogoURL      *string `gorm:"column:logo_url;size:512" json:"logo_url,omitempty"`
	PrimaryColor string  `gorm:"column:primary_color;size:16" json:"primary_color"`
	ColorName    string  `gorm:"column:color_name;size:64" json:"color_name"`
}

type Verse struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name             string            `gorm:"size:255;not null" json:"name"`
	AdminEmail       string            `gorm:"size:255;not null" json:"admin_email"`
	Subdomain        *string           `gorm:"size:63;index" json:"subdomain,omitempty"`
	OrganizationName *string           `gorm:"size:255" json:"organization_name,omitempty"`
	Branding         Branding          `gorm:"embedded;embeddedPrefix:branding_" json:"branding"`
	Settings         datatypes.JSONMap `gorm:"type:jsonb" json:"settings,omitempty"`
	IsSetupComplete  bool              `gorm:"not null;default:false" json:"is_setup_complete"`
	SetupCompletedAt *time.Time        `json:"setup_completed_at,omitempty"`
	SetupCompletedBy *snowflake.ID     `json:"setup_completed_by,omitempty"`
	IsActive         bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedBy        snowflake.ID      `gorm:"not null" json:"created_by"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (Verse) TableName() string {
	return "verses"
}

// Actor identifies the authenticated caller of a verse operation without
// pulling the full user record across package boundaries.
type Actor struct {
	ID           snowflake.ID
	Email        string
	IsSuperadmin bool
}
