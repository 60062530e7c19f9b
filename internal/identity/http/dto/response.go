package dto

import (
	"encoding/json"
	"time"

	"github.com/allisson/planner/internal/identity/domain"
)

// OrganizationResponse represents an organization in API responses.
type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// MapOrganizationToResponse converts a domain organization to an API response.
func MapOrganizationToResponse(org *domain.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		CreatedAt: org.CreatedAt,
	}
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// MapGroupToResponse converts a domain group to an API response.
func MapGroupToResponse(group *domain.Group) GroupResponse {
	return GroupResponse{
		ID:             group.ID.String(),
		OrganizationID: group.OrganizationID.String(),
		Name:           group.Name,
		CreatedAt:      group.CreatedAt,
	}
}

// RoleResponse represents a role in API responses.
type RoleResponse struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

// MapRoleToResponse converts a domain role to an API response.
func MapRoleToResponse(role *domain.Role) RoleResponse {
	permissions := role.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	return RoleResponse{
		ID:          role.ID.String(),
		GroupID:     role.GroupID.String(),
		Name:        role.Name,
		Permissions: permissions,
		Priority:    role.Priority,
		CreatedAt:   role.CreatedAt,
	}
}

// AuditLogResponse represents an audit log entry in API responses.
type AuditLogResponse struct {
	ID           string          `json:"id"`
	SubjectID    *string         `json:"subject_id"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type,omitempty"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Before       json.RawMessage `json:"before,omitempty"`
	After        json.RawMessage `json:"after,omitempty"`
	IPAddress    *string         `json:"ip_address,omitempty"`
	UserAgent    *string         `json:"user_agent,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// MapAuditLogToResponse converts a domain audit log to an API response.
func MapAuditLogToResponse(auditLog *domain.AuditLog) AuditLogResponse {
	var subjectID *string
	if auditLog.SubjectID != nil {
		id := auditLog.SubjectID.String()
		subjectID = &id
	}
	return AuditLogResponse{
		ID:           auditLog.ID.String(),
		SubjectID:    subjectID,
		Action:       auditLog.Action,
		ResourceType: auditLog.ResourceType,
		ResourceID:   auditLog.ResourceID,
		Before:       auditLog.Before,
		After:        auditLog.After,
		IPAddress:    auditLog.IPAddress,
		UserAgent:    auditLog.UserAgent,
		RequestID:    auditLog.RequestID,
		CreatedAt:    auditLog.CreatedAt,
	}
}

// ListAuditLogsResponse represents a paginated list of audit logs in API responses.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogsToListResponse converts a slice of domain audit logs to a list API response.
func MapAuditLogsToListResponse(auditLogs []*domain.AuditLog) ListAuditLogsResponse {
	auditLogResponses := make([]AuditLogResponse, 0, len(auditLogs))
	for _, auditLog := range auditLogs {
		auditLogResponses = append(auditLogResponses, MapAuditLogToResponse(auditLog))
	}
	return ListAuditLogsResponse{
		Data: auditLogResponses,
	}
}
