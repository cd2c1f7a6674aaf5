package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
)

type createInvitationBody struct {
	VerseID   string  `json:"verse_id" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	RoleID    string  `json:"role_id" binding:"required"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Position  *string `json:"position"`
	TTLDays   int     `json:"ttl_days"`
}

func (s *Server) CreateInvitation(c *gin.Context) {
	var body createInvitationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
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

	user, ok := s.requireCapability(c, verseID, roledomain.CapabilityInviteUsers)
	if !ok {
		return
	}

	invitation, err := s.invitationSvc.Create(c.Request.Context(), user.ID, invitationdomain.CreateInvitationRequest{
		VerseID:   verseID,
		Email:     body.Email,
		RoleID:    roleID,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Position:  body.Position,
		TTLDays:   body.TTLDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

func (s *Server) GetInvitationByToken(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	details, err := s.invitationSvc.GetByToken(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

func (s *Server) GetInvitation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invitation, err := s.invitationSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, ok := s.requireMembership(c, invitation.VerseID); !ok {
		return
	}

	c.JSON(http.StatusOK, invitation)
}

type updateInvitationBody struct {
	RoleID    *string `json:"role_id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Position  *string `json:"position"`
}

func (s *Server) UpdateInvitation(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body updateInvitationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invitationdomain.UpdateInvitationRequest{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Position:  body.Position,
	}
	if body.RoleID != nil {
		roleID, err := snowflake.ParseString(*body.RoleID)
		if err != nil {
			AbortWithError(c, newValidationError("role_id", "invalid_id", "invalid identifier"))
			return
		}
		req.RoleID = &roleID
	}

	invitation, err := s.invitationSvc.Update(c.Request.Context(), user.ID, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invitation)
}

func (s *Server) DeleteInvitation(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := s.invitationSvc.Delete(c.Request.Context(), user.ID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) CheckMembership(c *gin.Context) {
	verseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	email := strings.TrimSpace(c.Param("email"))
	if email == "" {
		AbortWithError(c, newValidationError("email", "required", "email is required"))
		return
	}

	if _, ok := s.requireCapability(c, verseID, roledomain.CapabilityInviteUsers); !ok {
		return
	}

	status, err := s.authzSvc.StatusForEmail(c.Request.Context(), email, verseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
