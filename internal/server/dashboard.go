package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetDashboard(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	verseID, ok := parseIDParam(c, "verse_id")
	if !ok {
		return
	}

	view, err := s.dashboardSvc.Get(c.Request.Context(), user.ID, user.Email, verseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
