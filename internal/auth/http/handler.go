package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/planner/internal/auth/domain"
	"github.com/allisson/planner/internal/auth/http/dto"
	authUseCase "github.com/allisson/planner/internal/auth/usecase"
	"github.com/allisson/planner/internal/httputil"
	customValidation "github.com/allisson/planner/internal/validation"
)

// IdentityProviderSecretHeader authenticates the identity provider on the external login endpoint.
const IdentityProviderSecretHeader = "X-Identity-Provider-Secret" //nolint:gosec // header name

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	authUseCase    authUseCase.AuthUseCase
	providerSecret string
	logger         *slog.Logger
}

// NewAuthHandler creates a new auth handler. providerSecret is the shared secret the
// identity provider presents on external logins; an empty value rejects every external login.
func NewAuthHandler(
	authUseCase authUseCase.AuthUseCase,
	providerSecret string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUseCase:    authUseCase,
		providerSecret: providerSecret,
		logger:         logger,
	}
}

// requestMeta collects the request attributes recorded on sessions and audit entries.
func requestMeta(c *gin.Context) authDomain.RequestMeta {
	return authDomain.RequestMeta{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: requestid.Get(c),
	}
}

func (h *AuthHandler) bindJSON(c *gin.Context, req interface{ Validate() error }) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return false
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return false
	}
	return true
}

// RegisterHandler creates a local account with its default organization.
// POST /v1/auth/register - No authentication required. Returns 201 Created.
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	input := req.ToInput()
	profile, err := h.authUseCase.Register(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapProfileToResponse(profile))
}

// LoginHandler exchanges local credentials for a session.
// POST /v1/auth/login - No authentication required.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	output, err := h.authUseCase.Login(c.Request.Context(), &authDomain.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Meta:     requestMeta(c),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapLoginOutputToResponse(output))
}

// ExternalLoginHandler opens a session for an identity provider account.
// POST /v1/auth/external - Requires the identity provider shared secret.
func (h *AuthHandler) ExternalLoginHandler(c *gin.Context) {
	presented := c.GetHeader(IdentityProviderSecretHeader)
	if h.providerSecret == "" ||
		subtle.ConstantTimeCompare([]byte(presented), []byte(h.providerSecret)) != 1 {
		httputil.AbortUnauthorized(c)
		return
	}

	var req dto.ExternalLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	output, err := h.authUseCase.FindOrCreateExternalUser(c.Request.Context(), req.ToExternalUser(), requestMeta(c))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapLoginOutputToResponse(output))
}

// LogoutHandler deletes the current session.
// POST /v1/auth/logout - Requires authentication. Returns 204 No Content.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	session, ok := GetSession(c.Request.Context())
	if !ok {
		httputil.AbortUnauthorized(c)
		return
	}

	if err := h.authUseCase.Logout(c.Request.Context(), session.ID, requestMeta(c)); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// MeHandler returns the profile of the authenticated user.
// GET /v1/auth/me - Requires authentication.
func (h *AuthHandler) MeHandler(c *gin.Context) {
	session, ok := GetSession(c.Request.Context())
	if !ok {
		httputil.AbortUnauthorized(c)
		return
	}

	profile, err := h.authUseCase.GetProfile(c.Request.Context(), session.SubjectID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProfileToResponse(profile))
}

// RevokeSessionsHandler deletes every session of the authenticated user, the current
// one included.
// DELETE /v1/auth/sessions - Requires authentication.
func (h *AuthHandler) RevokeSessionsHandler(c *gin.Context) {
	session, ok := GetSession(c.Request.Context())
	if !ok {
		httputil.AbortUnauthorized(c)
		return
	}

	revoked, err := h.authUseCase.RevokeAllSessions(c.Request.Context(), session.SubjectID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RevokeSessionsResponse{Revoked: revoked})
}
