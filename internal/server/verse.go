package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	versedomain "github.com/samuel161415/BryteSpring/internal/verse/domain"
)

func (s *Server) CreateInitialVerse(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req versedomain.CreateInitialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.verseSvc.CreateInitial(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"verse":         result.Verse,
		"admin_role_id": result.AdminRoleID.String(),
		"invitation_id": result.InvitationID.String(),
	})
}

type completeSetupBody struct {
	VerseID string `json:"verse_id" binding:"required"`
	versedomain.CompleteSetupRequest
}

func (s *Server) CompleteVerseSetup(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var body completeSetupBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	verseID, err := snowflake.ParseString(body.VerseID)
	if err != nil {
		AbortWithError(c, newValidationError("verse_id", "invalid_id", "invalid identifier"))
		return
	}

	verse, err := s.verseSvc.CompleteSetup(c.Request.Context(), actor, verseID, body.CompleteSetupRequest)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, verse)
}

func (s *Server) ListVerses(c *gin.Context) {
	var req versedomain.ListVersesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.verseSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) GetVerse(c *gin.Context) {
	verseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, ok := s.requireMembership(c, verseID); !ok {
		return
	}

	verse, err := s.verseSvc.Get(c.Request.Context(), verseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, verse)
}

func (s *Server) UpdateVerse(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	verseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req versedomain.UpdateVerseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	verse, err := s.verseSvc.Update(c.Request.Context(), actor, verseID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, verse)
}

func (s *Server) DeleteVerse(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	verseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := s.verseSvc.Delete(c.Request.Context(), actor, verseID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) JoinVerse(c *gin.Context) {
	actor, ok := s.actor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	verseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := s.verseSvc.Join(c.Request.Context(), actor, verseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
