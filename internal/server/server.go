package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samuel161415/BryteSpring/internal/audit"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	"github.com/samuel161415/BryteSpring/internal/auth"
	authdomain "github.com/samuel161415/BryteSpring/internal/auth/domain"
	"github.com/samuel161415/BryteSpring/internal/authorization"
	"github.com/samuel161415/BryteSpring/internal/channel"
	channeldomain "github.com/samuel161415/BryteSpring/internal/channel/domain"
	"github.com/samuel161415/BryteSpring/internal/config"
	"github.com/samuel161415/BryteSpring/internal/dashboard"
	dashboarddomain "github.com/samuel161415/BryteSpring/internal/dashboard/domain"
	"github.com/samuel161415/BryteSpring/internal/invitation"
	invitationdomain "github.com/samuel161415/BryteSpring/internal/invitation/domain"
	"github.com/samuel161415/BryteSpring/internal/observability"
	obsmiddleware "github.com/samuel161415/BryteSpring/internal/observability/logger"
	obsmetrics "github.com/samuel161415/BryteSpring/internal/observability/metrics"
	obstracing "github.com/samuel161415/BryteSpring/internal/observability/tracing"
	"github.com/samuel161415/BryteSpring/internal/providers"
	"github.com/samuel161415/BryteSpring/internal/providers/storage"
	"github.com/samuel161415/BryteSpring/internal/role"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
	"github.com/samuel161415/BryteSpring/internal/verse"
	versedomain "github.com/samuel161415/BryteSpring/internal/verse/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	providers.Module,
	audit.Module,
	role.Module,
	invitation.Module,
	auth.Module,
	authorization.Module,
	verse.Module,
	channel.Module,
	dashboard.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	defaults      *config.VerseDefaultsHolder
	authsvc       authdomain.Service
	authzSvc      authorization.Service
	auditSvc      auditdomain.Service
	verseSvc      versedomain.Service
	invitationSvc invitationdomain.Service
	roleSvc       roledomain.Service
	channelSvc    channeldomain.Service
	dashboardSvc  dashboarddomain.Service
	objectStore   storage.ObjectStore
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Defaults      *config.VerseDefaultsHolder
	Authsvc       authdomain.Service
	AuthzSvc      authorization.Service
	AuditSvc      auditdomain.Service
	VerseSvc      versedomain.Service
	InvitationSvc invitationdomain.Service
	RoleSvc       roledomain.Service
	ChannelSvc    channeldomain.Service
	DashboardSvc  dashboarddomain.Service
	ObjectStore   storage.ObjectStore
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		defaults:      p.Defaults,
		authsvc:       p.Authsvc,
		authzSvc:      p.AuthzSvc,
		auditSvc:      p.AuditSvc,
		verseSvc:      p.VerseSvc,
		invitationSvc: p.InvitationSvc,
		roleSvc:       p.RoleSvc,
		channelSvc:    p.ChannelSvc,
		dashboardSvc:  p.DashboardSvc,
		objectStore:   p.ObjectStore,
	}

	svc.registerAuthRoutes()
	svc.registerVerseRoutes()
	svc.registerInvitationRoutes()
	svc.registerRoleRoutes()
	svc.registerChannelRoutes()
	svc.registerDashboardRoutes()
	svc.registerUploadRoutes()
	svc.registerActivityRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	r := s.engine.Group("/")

	r.POST("/register", s.Register)
	r.POST("/login", s.Login)
	r.POST("/logout", s.AuthRequired(), s.Logout)
	r.GET("/profile", s.AuthRequired(), s.GetProfile)
	r.PUT("/profile", s.AuthRequired(), s.UpdateProfile)

	r.GET("/users", s.AuthRequired(), s.RequireSuperadmin(), s.ListUsers)
	r.DELETE("/user/:id", s.AuthRequired(), s.RequireSuperadmin(), s.DeleteUser)
}

func (s *Server) registerVerseRoutes() {
	verse := s.engine.Group("/verse", s.AuthRequired())

	verse.POST("/create-initial", s.RequireSuperadmin(), s.CreateInitialVerse)
	verse.POST("/complete-setup", s.CompleteVerseSetup)
	verse.GET("", s.RequireSuperadmin(), s.ListVerses)
	verse.GET("/:id", s.GetVerse)
	verse.PUT("/:id", s.UpdateVerse)
	verse.DELETE("/:id", s.DeleteVerse)
	verse.POST("/:id/join", s.JoinVerse)
	verse.GET("/:id/check-membership/:email", s.CheckMembership)
}

func (s *Server) registerInvitationRoutes() {
	inv := s.engine.Group("/invitation")

	// Token lookup is public so the registration page can render the
	// invite before the visitor has an account.
	inv.GET("/:token", s.GetInvitationByToken)

	inv.POST("", s.AuthRequired(), s.CreateInvitation)
	inv.PUT("/:id", s.AuthRequired(), s.UpdateInvitation)
	inv.DELETE("/:id", s.AuthRequired(), s.DeleteInvitation)

	// The id read lives under a separate prefix because gin cannot mix a
	// static segment with the token wildcard on the same GET subtree.
	s.engine.GET("/invitations/:id", s.AuthRequired(), s.GetInvitation)
}

func (s *Server) registerRoleRoutes() {
	role := s.engine.Group("/role", s.AuthRequired())

	role.POST("", s.CreateRole)
	role.GET("/:id", s.GetRole)
	role.PUT("/:id", s.UpdateRole)
	role.DELETE("/:id", s.DeleteRole)
	role.POST("/assign", s.AssignRole)
	role.POST("/revoke", s.RevokeRole)

	s.engine.GET("/roles/verse/:verse_id", s.AuthRequired(), s.ListRolesByVerse)
}

func (s *Server) registerChannelRoutes() {
	channel := s.engine.Group("/channel", s.AuthRequired())

	channel.POST("/create", s.CreateChannel)
	channel.GET("/:id", s.GetChannel)
	channel.GET("/:id/contents", s.GetChannelContents)
	channel.PUT("/:id", s.UpdateChannel)
	channel.DELETE("/:id", s.DeleteChannel)

	s.engine.GET("/channels/verse/:verse_id/structure", s.AuthRequired(), s.GetChannelStructure)
}

func (s *Server) registerDashboardRoutes() {
	s.engine.GET("/dashboard/:verse_id", s.AuthRequired(), s.GetDashboard)
}

func (s *Server) registerUploadRoutes() {
	upload := s.engine.Group("/upload", s.AuthRequired())

	upload.POST("/single", s.UploadSingle)
	upload.POST("/multiple", s.UploadMultiple)
	upload.DELETE("", s.DeleteUpload)
}

func (s *Server) registerActivityRoutes() {
	s.engine.GET("/activity/verse/:verse_id", s.AuthRequired(), s.ListVerseActivity)
}
