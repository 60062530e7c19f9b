// Package http provides HTTP handlers for the organization hierarchy and the audit log.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/planner/internal/auth/http"
	"github.com/allisson/planner/internal/httputil"
	"github.com/allisson/planner/internal/identity/http/dto"
	identityUseCase "github.com/allisson/planner/internal/identity/usecase"
	customValidation "github.com/allisson/planner/internal/validation"
)

// OrganizationHandler handles HTTP requests for organizations, groups and roles.
type OrganizationHandler struct {
	organizationUseCase identityUseCase.OrganizationUseCase
	logger              *slog.Logger
}

// NewOrganizationHandler creates a new organization handler with required dependencies.
func NewOrganizationHandler(
	organizationUseCase identityUseCase.OrganizationUseCase,
	logger *slog.Logger,
) *OrganizationHandler {
	return &OrganizationHandler{
		organizationUseCase: organizationUseCase,
		logger:              logger,
	}
}

func (h *OrganizationHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid %s format: must be a valid UUID", name),
			h.logger)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes and validates a request body, writing the error response on failure.
func (h *OrganizationHandler) bindJSON(c *gin.Context, req interface{ Validate() error }) bool {
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

// CreateHandler creates an organization owned by the caller.
// POST /v1/organizations - Requires authentication. Returns 201 Created.
func (h *OrganizationHandler) CreateHandler(c *gin.Context) {
	session, ok := authHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.AbortUnauthorized(c)
		return
	}
	ownerID, err := uuid.Parse(session.SubjectID)
	if err != nil {
		httputil.AbortUnauthorized(c)
		return
	}

	var req dto.CreateOrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	org, err := h.organizationUseCase.CreateOrganization(c.Request.Context(), ownerID, req.Name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapOrganizationToResponse(org))
}

// GetHandler returns one organization.
// GET /v1/organizations/:organizationId - Requires view on the organization.
func (h *OrganizationHandler) GetHandler(c *gin.Context) {
	orgID, ok := h.uuidParam(c, "organizationId")
	if !ok {
		return
	}

	org, err := h.organizationUseCase.GetOrganization(c.Request.Context(), orgID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrganizationToResponse(org))
}

// DeleteHandler removes an organization with its groups, roles and tuples.
// DELETE /v1/organizations/:organizationId - Requires delete on the organization.
// Returns 204 No Content.
func (h *OrganizationHandler) DeleteHandler(c *gin.Context) {
	orgID, ok := h.uuidParam(c, "organizationId")
	if !ok {
		return
	}

	if err := h.organizationUseCase.DeleteOrganization(c.Request.Context(), orgID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// CreateGroupHandler adds a group to the organization.
// POST /v1/organizations/:organizationId/groups - Requires manage_members on the organization.
func (h *OrganizationHandler) CreateGroupHandler(c *gin.Context) {
	orgID, ok := h.uuidParam(c, "organizationId")
	if !ok {
		return
	}

	var req dto.CreateGroupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	group, err := h.organizationUseCase.CreateGroup(c.Request.Context(), orgID, req.Name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapGroupToResponse(group))
}

// CreateRoleHandler adds a role to a group of the organization.
// POST /v1/organizations/:organizationId/groups/:groupId/roles - Requires manage_members
// on the organization.
func (h *OrganizationHandler) CreateRoleHandler(c *gin.Context) {
	orgID, ok := h.uuidParam(c, "organizationId")
	if !ok {
		return
	}
	groupID, ok := h.uuidParam(c, "groupId")
	if !ok {
		return
	}

	var req dto.CreateRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	role, err := h.organizationUseCase.CreateRole(c.Request.Context(), &identityUseCase.CreateRoleInput{
		OrganizationID: orgID,
		GroupID:        groupID,
		Name:           req.Name,
		Permissions:    req.Permissions,
		Priority:       req.Priority,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapRoleToResponse(role))
}

// AssignRoleHandler sets a member's group and role.
// PUT /v1/organizations/:organizationId/members/:userId/role - Requires manage_members
// on the organization. Returns 204 No Content.
func (h *OrganizationHandler) AssignRoleHandler(c *gin.Context) {
	orgID, ok := h.uuidParam(c, "organizationId")
	if !ok {
		return
	}
	userID, ok := h.uuidParam(c, "userId")
	if !ok {
		return
	}

	var req dto.AssignRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.organizationUseCase.AssignRole(c.Request.Context(), &identityUseCase.AssignRoleInput{
		OrganizationID: orgID,
		UserID:         userID,
		GroupID:        uuid.MustParse(req.GroupID),
		RoleID:         uuid.MustParse(req.RoleID),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
