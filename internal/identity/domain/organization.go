package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the root of the role hierarchy.
type Organization struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Group belongs to exactly one organization.
type Group struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	CreatedAt      time.Time
}

// Role belongs to exactly one group and carries a permission set.
type Role struct {
	ID          uuid.UUID
	GroupID     uuid.UUID
	Name        string
	Permissions []string
	// Priority orders roles for display; a higher value ranks first.
	Priority  int
	CreatedAt time.Time
}

// PermissionSet returns the role's permissions as a matcher.
func (r *Role) PermissionSet() PermissionSet {
	return NewPermissionSet(r.Permissions)
}

// RoleCheck is the outcome of matching a permission against a user's role.
type RoleCheck struct {
	Allowed  bool
	Match    MatchKind
	RoleID   *uuid.UUID
	RoleName string
	Priority int
}

// RoleAssignment sets a user's position in the hierarchy. Nil fields clear the reference.
type RoleAssignment struct {
	OrganizationID *uuid.UUID
	GroupID        *uuid.UUID
	RoleID         *uuid.UUID
}
