package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, actorID snowflake.ID, req CreateChannelRequest) (*Channel, error)
	Get(ctx context.Context, id snowflake.ID) (*Channel, error)

	// Update handles rename, reparent and visibility changes. Rename and
	// reparent recompute the materialized path of the node and every
	// descendant. Reparenting onto the node itself or one of its
	// descendants fails with ErrCycle.
	Update(ctx context.Context, actorID snowflake.ID, id snowflake.ID, req UpdateChannelRequest) (*Channel, error)

	// Delete soft deletes a leaf node. Nodes with children must be
	// emptied first.
	Delete(ctx context.Context, actorID snowflake.ID, id snowflake.ID) error

	// Structure returns the full tree of active nodes for a verse.
	Structure(ctx context.Context, verseID snowflake.ID) ([]*TreeNode, error)

	// Contents returns the direct children of a node.
	Contents(ctx context.Context, id snowflake.ID) ([]Channel, error)
}

type CreateChannelRequest struct {
	VerseID             snowflake.ID
	Name                string
	Type                string
	ParentID            *snowflake.ID
	AllowedAssetTypes   []string
	IsPublic            *bool
	SubfolderPermission *string
}

type UpdateChannelRequest struct {
	Name     *string
	ParentID *snowflake.ID
	// MoveToRoot detaches the node from its parent. ParentID wins when
	// both are set.
	MoveToRoot        bool
	AllowedAssetTypes []string
	IsPublic          *bool
}

var (
	ErrNotFound           = errors.New("channel_not_found")
	ErrInvalidType        = errors.New("invalid_channel_type")
	ErrInvalidName        = errors.New("invalid_channel_name")
	ErrDuplicateName      = errors.New("channel_name_taken")
	ErrVisibilityConflict = errors.New("channel_visibility_conflict")
	ErrParentNotFolder    = errors.New("channel_parent_not_folder")
	ErrCrossVerseParent   = errors.New("channel_parent_other_verse")
	ErrMaxDepthExceeded   = errors.New("channel_max_depth_exceeded")
	ErrHasChildren        = errors.New("channel_has_children")
	ErrCycle              = errors.New("channel_reparent_cycle")
)
