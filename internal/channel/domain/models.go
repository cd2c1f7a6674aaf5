package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	TypeChannel = "channel"
	TypeFolder  = "folder"

	// Legacy node types kept for imported data.
	TypeCategory = "category"
	TypeVoice    = "voice"
	TypeText     = "text"
)

var knownTypes = map[string]struct{}{
	TypeChannel:  {},
	TypeFolder:   {},
	TypeCategory: {},
	TypeVoice:    {},
	TypeText:     {},
}

func ValidType(t string) bool {
	_, ok := knownTypes[t]
	return ok
}

const (
	defaultFolderMaxDepth  = 5
	defaultChannelMaxDepth = 10
)

// DefaultMaxDepth bounds how deep a subtree under the node may grow.
// Nested folders get one level less than their parent so the overall
// tree height stays bounded.
func DefaultMaxDepth(nodeType string, parent *Channel) int {
	if nodeType != TypeFolder {
		return defaultChannelMaxDepth
	}
	if parent == nil {
		return defaultFolderMaxDepth
	}
	depth := parent.MaxDepth - 1
	if depth < 1 {
		depth = 1
	}
	return depth
}

// Channel is a node in the per-verse content tree. Path is materialized
// from the root: a root node's path is its own name, a child's path is
// the parent path plus "/" plus its name.
type Channel struct {
	ID                  snowflake.ID                `gorm:"primaryKey" json:"id"`
	VerseID             snowflake.ID                `gorm:"not null;index" json:"verse_id"`
	Name                string                      `gorm:"size:255;not null" json:"name"`
	Type                string                      `gorm:"size:32;not null" json:"type"`
	ParentID            *snowflake.ID               `gorm:"index" json:"parent_id,omitempty"`
	Path                string                      `gorm:"size:2048;not null" json:"path"`
	AllowedAssetTypes   datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"allowed_asset_types,omitempty"`
	IsPublic            bool                        `gorm:"not null;default:false" json:"is_public"`
	InheritedFromParent bool                        `gorm:"not null;default:false" json:"inherited_from_parent"`
	SubfolderPermission *string                     `gorm:"size:64" json:"subfolder_permission,omitempty"`
	MaxDepth            int                         `gorm:"not null;default:5" json:"max_depth"`
	CreatedBy           snowflake.ID                `gorm:"not null" json:"created_by"`
	IsActive            bool                        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

func (Channel) TableName() string {
	return "channels"
}

// ChildPath joins a parent path with a node name.
func ChildPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + "/" + name
}

// SameName compares sibling names case-insensitively.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// TreeNode is one node of the hierarchical structure projection.
type TreeNode struct {
	Channel  Channel     `json:"channel"`
	Children []*TreeNode `json:"children"`
}
