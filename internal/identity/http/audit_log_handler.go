package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/planner/internal/httputil"
	"github.com/allisson/planner/internal/identity/domain"
	"github.com/allisson/planner/internal/identity/http/dto"
	identityUseCase "github.com/allisson/planner/internal/identity/usecase"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

// AuditLogHandler handles HTTP requests for audit log operations.
type AuditLogHandler struct {
	auditLogUseCase identityUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler with required dependencies.
func NewAuditLogHandler(
	auditLogUseCase identityUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// ListHandler retrieves the audit logs of one organization newest first.
// GET /v1/organizations/:organizationId/audit-logs?offset=0&limit=50&created_at_from=2026-02-01T00:00:00Z
// Requires the audit.read permission from a role of that organization. Both time
// bounds are optional and inclusive.
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	organizationID, err := uuid.Parse(c.Param("organizationId"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid organization id: %w", err), h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	createdAtFrom, createdAtTo, err := httputil.ParseTimeRange(c, "created_at_from", "created_at_to")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	auditLogs, err := h.auditLogUseCase.List(c.Request.Context(), offset, limit, domain.AuditLogFilter{
		ResourceType:  string(relationshipDomain.ResourceOrganization),
		ResourceID:    organizationID.String(),
		CreatedAtFrom: createdAtFrom,
		CreatedAtTo:   createdAtTo,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditLogsToListResponse(auditLogs))
}
