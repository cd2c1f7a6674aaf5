package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
	"github.com/samuel161415/BryteSpring/pkg/db/pagination"
)

type listActivityQuery struct {
	PageToken    string `form:"page_token"`
	PageSize     int    `form:"page_size"`
	Action       string `form:"action"`
	ResourceType string `form:"resource_type"`
	ResourceID   string `form:"resource_id"`
	Severity     string `form:"severity"`
	StartAt      string `form:"start_at"`
	EndAt        string `form:"end_at"`
}

func (s *Server) ListVerseActivity(c *gin.Context) {
	verseID, ok := parseIDParam(c, "verse_id")
	if !ok {
		return
	}

	if _, ok := s.requireCapability(c, verseID, roledomain.CapabilityManageVerse); !ok {
		return
	}

	var query listActivityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := auditdomain.ListActivityRequest{
		Pagination: pagination.Pagination{
			PageToken: query.PageToken,
			PageSize:  query.PageSize,
		},
		VerseID:      verseID,
		Action:       query.Action,
		ResourceType: query.ResourceType,
		ResourceID:   query.ResourceID,
		Severity:     query.Severity,
	}

	startAt, ok := parseTimeQuery(c, "start_at", query.StartAt)
	if !ok {
		return
	}
	req.StartAt = startAt

	endAt, ok := parseTimeQuery(c, "end_at", query.EndAt)
	if !ok {
		return
	}
	req.EndAt = endAt

	result, err := s.auditSvc.ListByVerse(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTimeQuery(c *gin.Context, field, raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		AbortWithError(c, newValidationError(field, "invalid_time", "expected RFC3339 timestamp"))
		return nil, false
	}
	return &at, true
}
