package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	channeldomain "github.com/samuel161415/BryteSpring/internal/channel/domain"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
)

type createChannelBody struct {
	VerseID             string   `json:"verse_id" binding:"required"`
	Name                string   `json:"name" binding:"required"`
	Type                string   `json:"type" binding:"required"`
	ParentID            *string  `json:"parent_id"`
	AllowedAssetTypes   []string `json:"allowed_asset_types"`
	IsPublic            *bool    `json:"is_public"`
	SubfolderPermission *string  `json:"subfolder_permission"`
}

func (s *Server) CreateChannel(c *gin.Context) {
	var body createChannelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	verseID, err := snowflake.ParseString(body.VerseID)
	if err != nil {
		AbortWithError(c, newValidationError("verse_id", "invalid_id", "invalid identifier"))
		return
	}

	req := channeldomain.CreateChannelRequest{
		VerseID:             verseID,
		Name:                body.Name,
		Type:                body.Type,
		AllowedAssetTypes:   body.AllowedAssetTypes,
		IsPublic:            body.IsPublic,
		SubfolderPermission: body.SubfolderPermission,
	}
	if body.ParentID != nil && *body.ParentID != "" {
		parentID, err := snowflake.ParseString(*body.ParentID)
		if err != nil {
			AbortWithError(c, newValidationError("parent_id", "invalid_id", "invalid identifier"))
			return
		}
		req.ParentID = &parentID
	}

	user, ok := s.requireCapability(c, verseID, roledomain.CapabilityManageChannels)
	if !ok {
		return
	}

	created, err := s.channelSvc.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetChannel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	channel, err := s.channelSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, ok := s.requireMembership(c, channel.VerseID); !ok {
		return
	}

	c.JSON(http.StatusOK, channel)
}

func (s *Server) GetChannelContents(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	channel, err := s.channelSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, ok := s.requireMembership(c, channel.VerseID); !ok {
		return
	}

	contents, err := s.channelSvc.Contents(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel": channel, "contents": contents})
}

func (s *Server) GetChannelStructure(c *gin.Context) {
	verseID, ok := parseIDParam(c, "verse_id")
	if !ok {
		return
	}

	if _, ok := s.requireMembership(c, verseID); !ok {
		return
	}

	tree, err := s.channelSvc.Structure(c.Request.Context(), verseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"structure": tree})
}

type updateChannelBody struct {
	Name              *string  `json:"name"`
	ParentID          *string  `json:"parent_id"`
	MoveToRoot        bool     `json:"move_to_root"`
	AllowedAssetTypes []string `json:"allowed_asset_types"`
	IsPublic          *bool    `json:"is_public"`
}

func (s *Server) UpdateChannel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	channel, err := s.channelSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, ok := s.requireCapability(c, channel.VerseID, roledomain.CapabilityManageChannels)
	if !ok {
		return
	}

	var body updateChannelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := channeldomain.UpdateChannelRequest{
		Name:              body.Name,
		MoveToRoot:        body.MoveToRoot,
		AllowedAssetTypes: body.AllowedAssetTypes,
		IsPublic:          body.IsPublic,
	}
	if body.ParentID != nil && *body.ParentID != "" {
		parentID, err := snowflake.ParseString(*body.ParentID)
		if err != nil {
			AbortWithError(c, newValidationError("parent_id", "invalid_id", "invalid identifier"))
			return
		}
		req.ParentID = &parentID
	}

	updated, err := s.channelSvc.Update(c.Request.Context(), user.ID, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeleteChannel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	channel, err := s.channelSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, ok := s.requireCapability(c, channel.VerseID, roledomain.CapabilityManageChannels)
	if !ok {
		return
	}

	if err := s.channelSvc.Delete(c.Request.Context(), user.ID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
