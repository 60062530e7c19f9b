// Package usecase implements the organization hierarchy and audit log operations
// on top of the durable identity records.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/planner/internal/identity/domain"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

// UserRepository persists users. Implementations join the transaction carried by ctx.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	AssignRole(ctx context.Context, userID uuid.UUID, role domain.RoleAssignment) error
	ClearOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error)
}

// OrganizationRepository persists organizations, groups and roles.
type OrganizationRepository interface {
	CreateOrganization(ctx context.Context, org *domain.Organization) error
	GetOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	DeleteOrganization(ctx context.Context, id uuid.UUID) error
	CreateGroup(ctx context.Context, group *domain.Group) error
	GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error)
	DeleteGroupsByOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error)
	CreateRole(ctx context.Context, role *domain.Role) error
	GetRole(ctx context.Context, id uuid.UUID) (*domain.Role, error)
	DeleteRolesByOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error)
}

// AuditLogRepository persists audit log entries.
type AuditLogRepository interface {
	Create(ctx context.Context, auditLog *domain.AuditLog) error
	List(ctx context.Context, offset, limit int, filter domain.AuditLogFilter) ([]*domain.AuditLog, error)
	// ListBetween returns entries with start <= created_at < end oldest first.
	ListBetween(ctx context.Context, start, end time.Time, offset, limit int) ([]*domain.AuditLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// AuditSigner signs audit log entries and verifies stored signatures.
type AuditSigner interface {
	Sign(log *domain.AuditLog) ([]byte, error)
	Verify(log *domain.AuditLog) error
}

// SettingRepository holds the authoritative copy of settings.
type SettingRepository interface {
	Get(ctx context.Context, entityType, entityID, key string) (*domain.Setting, error)
	Upsert(ctx context.Context, setting *domain.Setting) error
	Delete(ctx context.Context, entityType, entityID, key string) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*domain.Setting, error)
}

// RelationshipStore is the part of the relationship store the organization hierarchy
// reads and keeps in sync.
type RelationshipStore interface {
	CheckPermission(
		ctx context.Context,
		subjectID string,
		permission relationshipDomain.Permission,
		resourceType relationshipDomain.ResourceType,
		resourceID string,
	) (bool, error)
	WriteRelationship(ctx context.Context, tuple relationshipDomain.Tuple) error
	DeleteResource(ctx context.Context, ref relationshipDomain.ResourceRef) (int64, error)
}

// CreateRoleInput describes a new role inside a group.
type CreateRoleInput struct {
	OrganizationID uuid.UUID
	GroupID        uuid.UUID
	Name           string
	Permissions    []string
	Priority       int
}

// AssignRoleInput places a user in a group with a role.
type AssignRoleInput struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	GroupID        uuid.UUID
	RoleID         uuid.UUID
}

// OrganizationUseCase manages the organization, group and role hierarchy.
type OrganizationUseCase interface {
	// CreateOrganization creates an organization and makes ownerID its admin in the
	// relationship store.
	CreateOrganization(ctx context.Context, ownerID uuid.UUID, name string) (*domain.Organization, error)

	// GetOrganization returns ErrOrganizationNotFound for unknown ids.
	GetOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error)

	// CreateGroup adds a group to an existing organization.
	CreateGroup(ctx context.Context, organizationID uuid.UUID, name string) (*domain.Group, error)

	// CreateRole adds a role to a group. The group must belong to the organization.
	CreateRole(ctx context.Context, input *CreateRoleInput) (*domain.Role, error)

	// AssignRole sets the user's organization, group and role, and records the user as
	// an organization member in the relationship store. The user must already hold a
	// relation on the organization.
	AssignRole(ctx context.Context, input *AssignRoleInput) error

	// DeleteOrganization removes the organization with its groups and roles in one
	// transaction. Users keep their accounts with the references cleared, and every
	// tuple on the organization is removed.
	DeleteOrganization(ctx context.Context, id uuid.UUID) error

	// HasRolePermission matches permission against the user's role. Roles of other
	// organizations never match.
	HasRolePermission(
		ctx context.Context,
		userID, organizationID uuid.UUID,
		permission string,
	) (*domain.RoleCheck, error)
}

// AuditLogUseCase records and queries audit log entries.
type AuditLogUseCase interface {
	Create(ctx context.Context, auditLog *domain.AuditLog) error
	// List returns the entries recorded against one resource.
	List(ctx context.Context, offset, limit int, filter domain.AuditLogFilter) ([]*domain.AuditLog, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
	// VerifyBatch checks the signature of every entry created in [start, end). It fails
	// with domain.ErrAuditSigningDisabled when no signing key is configured.
	VerifyBatch(ctx context.Context, start, end time.Time) (*domain.VerificationReport, error)
}
