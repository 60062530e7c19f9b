package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/allisson/planner/internal/auth/domain"
	authUseCase "github.com/allisson/planner/internal/auth/usecase"
	cacheDomain "github.com/allisson/planner/internal/cache/domain"
	"github.com/allisson/planner/internal/httputil"
	identityDomain "github.com/allisson/planner/internal/identity/domain"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

// Credential headers.
const (
	SessionIDHeader     = "X-Session-Id"
	AuthorizationHeader = "Authorization"
)

// Rate limit response headers.
const (
	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
)

// subjectIDKey is the gin key under which RequireAuth exposes the subject to request logging.
const subjectIDKey = "subject_id"

// RateLimitStore counts attempts per identifier and action.
type RateLimitStore interface {
	CheckRateLimit(
		ctx context.Context,
		identifier, action string,
		max int,
		window time.Duration,
	) (*cacheDomain.RateLimitResult, error)
}

// RoleChecker resolves flat role permissions of a user inside an organization.
type RoleChecker interface {
	HasRolePermission(
		ctx context.Context,
		userID, organizationID uuid.UUID,
		permission string,
	) (*identityDomain.RoleCheck, error)
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// ResourceParam is the route parameter carrying the id of resourceType, e.g. boardId.
func ResourceParam(resourceType relationshipDomain.ResourceType) string {
	return string(resourceType) + "Id"
}

// RequireAuth validates the session id and bearer token headers and stores the session
// in the request context. Every failure produces the same 401 response.
//
// Usage:
//
//	router.GET("/v1/auth/me", RequireAuth(authUseCase, logger), handler.MeHandler)
func RequireAuth(auth authUseCase.AuthUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(SessionIDHeader))
		token := bearerToken(c.GetHeader(AuthorizationHeader))

		session, err := auth.ValidateSession(c.Request.Context(), sessionID, token)
		if err != nil {
			logger.Debug("authentication failed", slog.Any("error", err))
			httputil.AbortUnauthorized(c)
			return
		}

		c.Request = c.Request.WithContext(WithSession(c.Request.Context(), session))
		c.Set(subjectIDKey, session.SubjectID)
		c.Next()
	}
}

// RequirePermission checks that the authenticated subject holds permission on the
// resource named by the <resourceType>Id route parameter. It must run after RequireAuth.
// A missing parameter is a 400; a denied or failed check is a 403.
func RequirePermission(
	auth authUseCase.AuthUseCase,
	resourceType relationshipDomain.ResourceType,
	permission relationshipDomain.Permission,
	logger *slog.Logger,
) gin.HandlerFunc {
	param := ResourceParam(resourceType)

	return func(c *gin.Context) {
		session, ok := GetSession(c.Request.Context())
		if !ok {
			httputil.AbortUnauthorized(c)
			return
		}

		resourceID := strings.TrimSpace(c.Param(param))
		if resourceID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, httputil.ErrorResponse{
				Error:   "bad_request",
				Message: "missing route parameter " + param,
			})
			return
		}

		if !auth.Authorize(c.Request.Context(), session.SubjectID, permission, resourceType, resourceID) {
			logger.Debug("permission denied",
				slog.String("subject_id", session.SubjectID),
				slog.String("permission", string(permission)),
				slog.String("resource", string(resourceType)+":"+resourceID),
			)
			httputil.AbortForbidden(c)
			return
		}

		c.Request = c.Request.WithContext(WithGrantedPermission(c.Request.Context(), GrantedPermission{
			ResourceType: string(resourceType),
			ResourceID:   resourceID,
			Permission:   string(permission),
		}))
		c.Next()
	}
}

// RequireRolePermission gates organization routes on a flat role permission such as
// "audit.read". Only a role of the organization named by the organizationId route
// parameter counts. Errors deny.
func RequireRolePermission(roles RoleChecker, permission string, logger *slog.Logger) gin.HandlerFunc {
	param := ResourceParam(relationshipDomain.ResourceOrganization)
	return func(c *gin.Context) {
		session, ok := GetSession(c.Request.Context())
		if !ok {
			httputil.AbortUnauthorized(c)
			return
		}

		organizationID, err := uuid.Parse(c.Param(param))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, httputil.ErrorResponse{
				Error:   "bad_request",
				Message: "invalid route parameter " + param,
			})
			return
		}

		userID, err := uuid.Parse(session.SubjectID)
		if err != nil {
			httputil.AbortForbidden(c)
			return
		}

		check, err := roles.HasRolePermission(c.Request.Context(), userID, organizationID, permission)
		if err != nil || check == nil || !check.Allowed {
			if err != nil {
				logger.Warn("role permission check failed, denying",
					slog.String("subject_id", session.SubjectID),
					slog.String("permission", permission),
					slog.Any("error", err),
				)
			}
			httputil.AbortForbidden(c)
			return
		}
		c.Next()
	}
}

// RateLimit counts requests per action in a fixed window. Authenticated requests are
// keyed by subject, anonymous ones by client IP. When the counter store cannot be
// reached the request is let through.
func RateLimit(
	store RateLimitStore,
	action string,
	max int,
	window time.Duration,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := "ip:" + c.ClientIP()
		if session, ok := GetSession(c.Request.Context()); ok {
			identifier = "user:" + session.SubjectID
		}

		result, err := store.CheckRateLimit(c.Request.Context(), identifier, action, max, window)
		if err != nil {
			logger.Warn("rate limit store unavailable, allowing request",
				slog.String("action", action),
				slog.String("identifier", identifier),
				slog.Any("error", err),
			)
			c.Next()
			return
		}

		c.Header(RateLimitLimitHeader, strconv.Itoa(result.Limit))
		c.Header(RateLimitRemainingHeader, strconv.Itoa(result.Remaining))
		c.Header(RateLimitResetHeader, result.ResetAt.UTC().Format(time.RFC3339))

		if !result.Allowed {
			httputil.HandleErrorGin(c, authDomain.NewRateLimitedError(result.ResetAt), logger)
			c.Abort()
			return
		}
		c.Next()
	}
}
