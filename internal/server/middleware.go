package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/samuel161415/BryteSpring/internal/auditcontext"
	authdomain "github.com/samuel161415/BryteSpring/internal/auth/domain"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
	versedomain "github.com/samuel161415/BryteSpring/internal/verse/domain"
)

const contextUserKey = "current_user"

// AuthRequired resolves the bearer token to an active user and stores
// it in the gin context for downstream handlers.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := auditcontext.WithActorID(c.Request.Context(), user.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func (s *Server) RequireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := s.currentUser(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !user.IsSuperadmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) currentUser(c *gin.Context) (*authdomain.User, bool) {
	raw, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := raw.(*authdomain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

func (s *Server) actor(c *gin.Context) (versedomain.Actor, bool) {
	user, ok := s.currentUser(c)
	if !ok {
		return versedomain.Actor{}, false
	}
	return versedomain.Actor{
		ID:           user.ID,
		Email:        user.Email,
		IsSuperadmin: user.IsSuperadmin,
	}, true
}

// requireCapability checks membership in a verse and that the resolved
// role grants the capability. Superadmins bypass the check.
func (s *Server) requireCapability(c *gin.Context, verseID snowflake.ID, capability roledomain.Capability) (*authdomain.User, bool) {
	user, ok := s.currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return nil, false
	}
	if user.IsSuperadmin {
		return user, true
	}

	membership, err := s.authzSvc.Resolve(c.Request.Context(), user.ID, user.Email, verseID)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	if !membership.Can(capability) {
		AbortWithError(c, ErrForbidden)
		return nil, false
	}
	return user, true
}

// requireMembership checks the caller holds any active role in the verse.
func (s *Server) requireMembership(c *gin.Context, verseID snowflake.ID) (*authdomain.User, bool) {
	user, ok := s.currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return nil, false
	}
	if user.IsSuperadmin {
		return user, true
	}

	if _, err := s.authzSvc.Resolve(c.Request.Context(), user.ID, user.Email, verseID); err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	return user, true
}

func parseIDParam(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil {
		AbortWithError(c, newValidationError(name, "invalid_id", "invalid identifier"))
		return 0, false
	}
	return id, true
}
