// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/planner/internal/auth/http"
	authUseCase "github.com/allisson/planner/internal/auth/usecase"
	"github.com/allisson/planner/internal/config"
	identityHTTP "github.com/allisson/planner/internal/identity/http"
	"github.com/allisson/planner/internal/metrics"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
	relationshipHTTP "github.com/allisson/planner/internal/relationship/http"
)

// auditReadPermission is the role permission required to list the audit log.
const auditReadPermission = "audit.read"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the HTTP handlers mounted under /v1.
type Handlers struct {
	Auth          *authHTTP.AuthHandler
	Settings      *authHTTP.SettingHandler
	Relationships *relationshipHTTP.RelationshipHandler
	Organizations *identityHTTP.OrganizationHandler
	AuditLogs     *identityHTTP.AuditLogHandler
}

// Guards holds the collaborators the access middleware consults.
type Guards struct {
	Auth       authUseCase.AuthUseCase
	RateLimits authHTTP.RateLimitStore
	Roles      authHTTP.RoleChecker
}

// Server represents the HTTP server
type Server struct {
	db     *sql.DB
	cache  Pinger
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The router is built by SetupRouter.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// WithCache makes the readiness check check the session cache as well.
func (s *Server) WithCache(cache Pinger) *Server {
	s.cache = cache
	return s
}

// SetupRouter mounts every route. ctx bounds the background cleanup of the IP throttle.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers Handlers,
	guards Guards,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(
			metricsProvider.MeterProvider(),
			cfg.MetricsNamespace,
			"/health", "/ready",
		))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	requireAuth := authHTTP.RequireAuth(guards.Auth, s.logger)

	s.mountAuthRoutes(ctx, v1, cfg, handlers, guards, requireAuth)

	settings := v1.Group("/settings", requireAuth)
	{
		settings.GET("", handlers.Settings.ListHandler)
		settings.GET("/:key", handlers.Settings.GetHandler)
		settings.PUT("/:key", handlers.Settings.PutHandler)
		settings.DELETE("/:key", handlers.Settings.DeleteHandler)
	}

	for _, resourceType := range []relationshipDomain.ResourceType{
		relationshipDomain.ResourceOrganization,
		relationshipDomain.ResourceTeam,
		relationshipDomain.ResourceProject,
		relationshipDomain.ResourceBoard,
	} {
		s.mountResourceRoutes(v1, resourceType, handlers.Relationships, guards.Auth, requireAuth)
	}

	orgParam := "/:" + authHTTP.ResourceParam(relationshipDomain.ResourceOrganization)
	orgs := v1.Group("/organizations", requireAuth)
	{
		orgs.POST("", handlers.Organizations.CreateHandler)
		orgs.GET(orgParam,
			s.requireOrganization(guards.Auth, relationshipDomain.PermissionView),
			handlers.Organizations.GetHandler)
		orgs.DELETE(orgParam,
			s.requireOrganization(guards.Auth, relationshipDomain.PermissionDelete),
			handlers.Organizations.DeleteHandler)

		manage := s.requireOrganization(guards.Auth, relationshipDomain.PermissionManageMembers)
		orgs.POST(orgParam+"/groups", manage, handlers.Organizations.CreateGroupHandler)
		orgs.POST(orgParam+"/groups/:groupId/roles", manage, handlers.Organizations.CreateRoleHandler)
		orgs.PUT(orgParam+"/members/:userId/role", manage, handlers.Organizations.AssignRoleHandler)
		orgs.GET(orgParam+"/audit-logs",
			s.requireOrganization(guards.Auth, relationshipDomain.PermissionView),
			authHTTP.RequireRolePermission(guards.Roles, auditReadPermission, s.logger),
			handlers.AuditLogs.ListHandler,
		)
	}

	s.router = router
}

func (s *Server) mountAuthRoutes(
	ctx context.Context,
	v1 *gin.RouterGroup,
	cfg *config.Config,
	handlers Handlers,
	guards Guards,
	requireAuth gin.HandlerFunc,
) {
	auth := v1.Group("/auth")

	anonymous := auth.Group("")
	if cfg.IPThrottleEnabled {
		anonymous.Use(authHTTP.IPThrottleMiddleware(
			ctx,
			cfg.IPThrottleRequestsPerSec,
			cfg.IPThrottleBurst,
			s.logger,
		))
	}
	{
		// Login counts attempts itself, keyed by client IP.
		anonymous.POST("/login", handlers.Auth.LoginHandler)
		anonymous.POST("/register",
			authHTTP.RateLimit(guards.RateLimits, "register", cfg.AuthRateLimitMax, cfg.AuthRateLimitWindow, s.logger),
			handlers.Auth.RegisterHandler)
		anonymous.POST("/external",
			authHTTP.RateLimit(
				guards.RateLimits,
				"external_login",
				cfg.AuthRateLimitMax,
				cfg.AuthRateLimitWindow,
				s.logger,
			),
			handlers.Auth.ExternalLoginHandler)
	}

	authenticated := auth.Group("", requireAuth)
	{
		authenticated.POST("/logout", handlers.Auth.LogoutHandler)
		authenticated.GET("/me", handlers.Auth.MeHandler)
		authenticated.DELETE("/sessions", handlers.Auth.RevokeSessionsHandler)
	}
}

// mountResourceRoutes registers the lookup, parent link and tuple management routes of
// one resource type, e.g. GET /v1/boards and /v1/boards/:boardId/relationships.
func (s *Server) mountResourceRoutes(
	v1 *gin.RouterGroup,
	resourceType relationshipDomain.ResourceType,
	handler *relationshipHTTP.RelationshipHandler,
	auth authUseCase.AuthUseCase,
	requireAuth gin.HandlerFunc,
) {
	base := "/" + collectionName(resourceType)
	v1.GET(base, requireAuth, handler.LookupHandler(resourceType))

	if resourceType != relationshipDomain.ResourceOrganization {
		// A new resource has no tuples, so create on the named parent is the only gate.
		v1.POST(base+"/:"+authHTTP.ResourceParam(resourceType)+"/parent", requireAuth,
			handler.AttachParentHandler(resourceType))
	}

	tuples := v1.Group(
		base+"/:"+authHTTP.ResourceParam(resourceType)+"/relationships",
		requireAuth,
		authHTTP.RequirePermission(auth, resourceType, relationshipDomain.PermissionManageMembers, s.logger),
	)
	{
		tuples.GET("", handler.ListHandler(resourceType))
		tuples.POST("", handler.CreateHandler(resourceType))
		tuples.DELETE("", handler.DeleteHandler(resourceType))
	}
}

func (s *Server) requireOrganization(
	auth authUseCase.AuthUseCase,
	permission relationshipDomain.Permission,
) gin.HandlerFunc {
	return authHTTP.RequirePermission(auth, relationshipDomain.ResourceOrganization, permission, s.logger)
}

func collectionName(resourceType relationshipDomain.ResourceType) string {
	return string(resourceType) + "s"
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not initialized: call SetupRouter first")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports liveness only.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler checks the database and, when configured, the session cache.
// A cache outage is reported but does not fail readiness.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	components := gin.H{"database": "ok"}
	ready := true

	if s.db == nil || s.db.PingContext(ctx) != nil {
		components["database"] = "error"
		ready = false
	}

	if s.cache != nil {
		components["cache"] = "ok"
		if err := s.cache.Ping(ctx); err != nil {
			s.logger.Warn("session cache not reachable", slog.Any("error", err))
			components["cache"] = "error"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
