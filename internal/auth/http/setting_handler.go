package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/planner/internal/auth/http/dto"
	authUseCase "github.com/allisson/planner/internal/auth/usecase"
	"github.com/allisson/planner/internal/httputil"
	identityDomain "github.com/allisson/planner/internal/identity/domain"
	customValidation "github.com/allisson/planner/internal/validation"
)

// SettingHandler serves the settings of the authenticated user.
type SettingHandler struct {
	settingUseCase authUseCase.SettingUseCase
	logger         *slog.Logger
}

// NewSettingHandler creates a new setting handler.
func NewSettingHandler(settingUseCase authUseCase.SettingUseCase, logger *slog.Logger) *SettingHandler {
	return &SettingHandler{
		settingUseCase: settingUseCase,
		logger:         logger,
	}
}

// keyParam returns the caller's id and the validated :key parameter.
func (h *SettingHandler) keyParam(c *gin.Context) (string, string, bool) {
	session, ok := GetSession(c.Request.Context())
	if !ok {
		httputil.AbortUnauthorized(c)
		return "", "", false
	}

	key := c.Param("key")
	if err := dto.ValidateSettingKey(key); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return "", "", false
	}
	return session.SubjectID, key, true
}

// ListHandler returns every setting of the caller.
// GET /v1/settings - Requires authentication.
func (h *SettingHandler) ListHandler(c *gin.Context) {
	session, ok := GetSession(c.Request.Context())
	if !ok {
		httputil.AbortUnauthorized(c)
		return
	}

	values, err := h.settingUseCase.ListSettings(c.Request.Context(), identityDomain.EntityUser, session.SubjectID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ListSettingsResponse{Data: values})
}

// GetHandler returns one setting.
// GET /v1/settings/:key - Requires authentication.
func (h *SettingHandler) GetHandler(c *gin.Context) {
	subjectID, key, ok := h.keyParam(c)
	if !ok {
		return
	}

	value, err := h.settingUseCase.GetSetting(c.Request.Context(), identityDomain.EntityUser, subjectID, key)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.SettingResponse{Key: key, Value: value})
}

// PutHandler stores one setting.
// PUT /v1/settings/:key - Requires authentication.
func (h *SettingHandler) PutHandler(c *gin.Context) {
	subjectID, key, ok := h.keyParam(c)
	if !ok {
		return
	}

	var req dto.SetSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	err := h.settingUseCase.SetSetting(c.Request.Context(), identityDomain.EntityUser, subjectID, key, req.Value)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.SettingResponse{Key: key, Value: req.Value})
}

// DeleteHandler removes one setting.
// DELETE /v1/settings/:key - Requires authentication. Returns 204 No Content.
func (h *SettingHandler) DeleteHandler(c *gin.Context) {
	subjectID, key, ok := h.keyParam(c)
	if !ok {
		return
	}

	if err := h.settingUseCase.DeleteSetting(c.Request.Context(), identityDomain.EntityUser, subjectID, key); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
