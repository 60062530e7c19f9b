// Package dto provides data transfer objects for organization and audit log HTTP
// requests and responses.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/planner/internal/validation"
)

// CreateOrganizationRequest contains the parameters for creating an organization.
type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

// Validate checks if the create organization request is valid.
func (r *CreateOrganizationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
	)
}

// CreateGroupRequest contains the parameters for creating a group.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// Validate checks if the create group request is valid.
func (r *CreateGroupRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
	)
}

// CreateRoleRequest contains the parameters for creating a role.
type CreateRoleRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Priority    int      `json:"priority"`
}

// Validate checks if the create role request is valid.
func (r *CreateRoleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&r.Permissions, validation.Each(validation.Required, customValidation.Permission)),
		validation.Field(&r.Priority, validation.Min(0), validation.Max(1000)),
	)
}

// AssignRoleRequest places a user in a group with a role.
type AssignRoleRequest struct {
	GroupID string `json:"group_id"`
	RoleID  string `json:"role_id"`
}

// Validate checks if the assign role request is valid.
func (r *AssignRoleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.GroupID, validation.Required, customValidation.UUID),
		validation.Field(&r.RoleID, validation.Required, customValidation.UUID),
	)
}
