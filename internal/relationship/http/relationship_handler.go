// Package http provides HTTP handlers for reading and managing relationship tuples
// and for listing the resources a user can access.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/allisson/planner/internal/auth/http"
	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/httputil"
	"github.com/allisson/planner/internal/relationship/domain"
	"github.com/allisson/planner/internal/relationship/http/dto"
	relationshipUseCase "github.com/allisson/planner/internal/relationship/usecase"
	customValidation "github.com/allisson/planner/internal/validation"
)

// RelationshipHandler handles HTTP requests for relationship tuples.
// Routes using it are expected to sit behind RequireAuth and, for a single resource,
// RequirePermission.
type RelationshipHandler struct {
	relationshipUseCase relationshipUseCase.RelationshipUseCase
	logger              *slog.Logger
}

// NewRelationshipHandler creates a new relationship handler.
func NewRelationshipHandler(
	relationshipUseCase relationshipUseCase.RelationshipUseCase,
	logger *slog.Logger,
) *RelationshipHandler {
	return &RelationshipHandler{
		relationshipUseCase: relationshipUseCase,
		logger:              logger,
	}
}

// LookupHandler lists the resources of resourceType the caller can view.
// GET /v1/boards - Requires authentication. A failed lookup is a denial, never a 5xx.
func (h *RelationshipHandler) LookupHandler(resourceType domain.ResourceType) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := authHTTP.GetSession(c.Request.Context())
		if !ok {
			httputil.AbortUnauthorized(c)
			return
		}

		permission := domain.Permission(c.DefaultQuery("permission", string(domain.PermissionView)))
		ids, err := h.relationshipUseCase.LookupResources(
			c.Request.Context(),
			session.SubjectID,
			permission,
			resourceType,
		)
		if apperrors.Is(err, apperrors.ErrInvalidInput) {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
		if err != nil {
			h.logger.Warn("resource lookup failed",
				slog.String("resource_type", string(resourceType)),
				slog.Any("error", err))
			httputil.AbortForbidden(c)
			return
		}

		c.JSON(http.StatusOK, dto.MapIDsToLookupResponse(ids))
	}
}

// ListHandler lists the tuples on one resource, optionally filtered by ?relation=.
// GET /v1/boards/:boardId/relationships - Requires manage_members on the resource.
func (h *RelationshipHandler) ListHandler(resourceType domain.ResourceType) gin.HandlerFunc {
	return func(c *gin.Context) {
		tuples, err := h.relationshipUseCase.ReadRelationships(
			c.Request.Context(),
			resourceType,
			c.Param(authHTTP.ResourceParam(resourceType)),
			c.Query("relation"),
		)
		if err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}

		c.JSON(http.StatusOK, dto.MapTuplesToListResponse(tuples))
	}
}

// CreateHandler writes a tuple on the resource.
// POST /v1/boards/:boardId/relationships - Requires manage_members on the resource.
// Linking a parent also requires create on the parent.
func (h *RelationshipHandler) CreateHandler(resourceType domain.ResourceType) gin.HandlerFunc {
	return func(c *gin.Context) {
		tuple, ok := h.bindTuple(c, resourceType)
		if !ok {
			return
		}

		if tuple.IsParentLink() && !h.canCreateUnder(c, tuple.Parent()) {
			return
		}

		if err := h.relationshipUseCase.WriteRelationship(c.Request.Context(), tuple); err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}

		c.JSON(http.StatusCreated, dto.MapTupleToResponse(&tuple))
	}
}

// AttachParentHandler links a resource with no tuples to its parent.
// POST /v1/boards/:boardId/parent - Requires create on the parent.
func (h *RelationshipHandler) AttachParentHandler(resourceType domain.ResourceType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ParentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
		if err := req.Validate(); err != nil {
			httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
			return
		}

		tuple := req.ToTuple(resourceType, c.Param(authHTTP.ResourceParam(resourceType)))
		if !h.canCreateUnder(c, tuple.Parent()) {
			return
		}

		if err := h.relationshipUseCase.AttachParent(c.Request.Context(), tuple); err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}

		c.JSON(http.StatusCreated, dto.MapTupleToResponse(&tuple))
	}
}

// DeleteHandler removes a tuple from the resource.
// DELETE /v1/boards/:boardId/relationships - Requires manage_members on the resource.
func (h *RelationshipHandler) DeleteHandler(resourceType domain.ResourceType) gin.HandlerFunc {
	return func(c *gin.Context) {
		tuple, ok := h.bindTuple(c, resourceType)
		if !ok {
			return
		}

		if err := h.relationshipUseCase.DeleteRelationship(c.Request.Context(), tuple); err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}

		c.Data(http.StatusNoContent, "application/json", nil)
	}
}

func (h *RelationshipHandler) bindTuple(c *gin.Context, resourceType domain.ResourceType) (domain.Tuple, bool) {
	var req dto.RelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return domain.Tuple{}, false
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return domain.Tuple{}, false
	}
	return req.ToTuple(resourceType, c.Param(authHTTP.ResourceParam(resourceType))), true
}

func (h *RelationshipHandler) canCreateUnder(c *gin.Context, parent domain.ResourceRef) bool {
	session, ok := authHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.AbortUnauthorized(c)
		return false
	}

	allowed, err := h.relationshipUseCase.CheckPermission(
		c.Request.Context(),
		session.SubjectID,
		domain.PermissionCreate,
		parent.Type,
		parent.ID,
	)
	if err != nil {
		h.logger.Warn("parent permission check failed",
			slog.String("parent", parent.String()),
			slog.Any("error", err))
	}
	if err != nil || !allowed {
		httputil.AbortForbidden(c)
		return false
	}
	return true
}
