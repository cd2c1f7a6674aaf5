package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
)

type createRoleBody struct {
	VerseID     string          `json:"verse_id" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description"`
	Permissions map[string]bool `json:"permissions"`
}

func (s *Server) CreateRole(c *gin.Context) {
	var body createRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	verseID, err := snowflake.ParseString(body.VerseID)
	if err != nil {
		AbortWithError(c, newValidationError("verse_id", "invalid_id", "invalid identifier"))
		return
	}

	user, ok := s.requireCapability(c, verseID, roledomain.CapabilityManageUsers)
	if !ok {
		return
	}

	role, err := s.roleSvc.Create(c.Request.Context(), user.ID, roledomain.CreateRoleRequest{
		VerseID:     verseID,
		Name:        body.Name,
		Description: body.Description,
		Permissions: body.Permissions,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, role)
}

func (s *Server) ListRolesByVerse(c *gin.Context) {
	verseID, ok := parseIDParam(c, "verse_id")
	if !ok {
		return
	}

	if _, ok := s.requireMembership(c, verseID); !ok {
		return
	}

	roles, err := s.roleSvc.ListByVerse(c.Request.Context(), verseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (s *Server) GetRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	role, err := s.roleSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, ok := s.requireMembership(c, role.VerseID); !ok {
		return
	}

	c.JSON(http.StatusOK, role)
}

func (s *Server) UpdateRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	role, err := s.roleSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, ok := s.requireCapability(c, role.VerseID, roledomain.CapabilityManageUsers)
	if !ok {
		return
	}

	var req roledomain.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.roleSvc.Update(c.Request.Context(), user.ID, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeleteRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	role, err := s.roleSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, ok := s.requireCapability(c, role.VerseID, roledomain.CapabilityManageUsers)
	if !ok {
		return
	}

	if err := s.roleSvc.Delete(c.Request.Context(), user.ID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type assignRoleBody struct {
	UserID  string `json:"user_id" binding:"required"`
	VerseID string `json:"verse_id" binding:"required"`
	RoleID  string `json:"role_id" binding:"required"`
}

func (s *Server) AssignRole(c *gin.Context) {
	var body assignRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := snowflake.ParseString(body.UserID)
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_id", "invalid identifier"))
		return
	}
	verseID, err := snowflake.ParseString(body.VerseID)
	if err != nil {
		AbortWithError(c, newValidationError("verse_id", "invalid_id", "invalid identifier"))
		return
	}
	roleID, err := snowflake.ParseString(body.RoleID)
	if err != nil {
		AbortWithError(c, newValidationError("role_id", "invalid_id", "invalid identifier"))
		return
	}

	actor, ok := s.requireCapability(c, verseID, roledomain.CapabilityManageUsers)
	if !ok {
		return
	}

	userRole, err := s.roleSvc.Assign(c.Request.Context(), actor.ID, roledomain.AssignRoleRequest{
		UserID:  userID,
		VerseID: verseID,
		RoleID:  roleID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userRole)
}

type revokeRoleBody struct {
	UserID  string `json:"user_id" binding:"required"`
	VerseID string `json:"verse_id" binding:"required"`
}

func (s *Server) RevokeRole(c *gin.Context) {
	var body revokeRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := snowflake.ParseString(body.UserID)
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_id", "invalid identifier"))
		return
	}
	verseID, err := snowflake.ParseString(body.VerseID)
	if err != nil {
		AbortWithError(c, newValidationError("verse_id", "invalid_id", "invalid identifier"))
		return
	}

	actor, ok := s.requireCapability(c, verseID, roledomain.CapabilityManageUsers)
	if !ok {
		return
	}

	if err := s.roleSvc.Revoke(c.Request.Context(), actor.ID, userID, verseID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
