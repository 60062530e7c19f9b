package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/planner/internal/database"
	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/identity/domain"
)

// MySQLOrganizationRepository handles organizations, groups and roles for MySQL.
type MySQLOrganizationRepository struct {
	db *sql.DB
}

// NewMySQLOrganizationRepository creates a new MySQLOrganizationRepository.
func NewMySQLOrganizationRepository(db *sql.DB) *MySQLOrganizationRepository {
	return &MySQLOrganizationRepository{db: db}
}

// CreateOrganization inserts a new organization.
func (m *MySQLOrganizationRepository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO organizations (id, name, created_at) VALUES (?, ?, ?)`

	if _, err := querier.ExecContext(ctx, query, uuidBytes(org.ID), org.Name, org.CreatedAt); err != nil {
		return apperrors.Wrap(err, "failed to create organization")
	}
	return nil
}

// GetOrganization retrieves an organization by ID.
func (m *MySQLOrganizationRepository) GetOrganization(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Organization, error) {
	querier := database.GetTx(ctx, m.db)

	var org domain.Organization
	var idBytes []byte
	query := `SELECT id, name, created_at FROM organizations WHERE id = ?`

	err := querier.QueryRowContext(ctx, query, uuidBytes(id)).Scan(&idBytes, &org.Name, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get organization")
	}

	if err := org.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal organization id")
	}
	return &org, nil
}

// DeleteOrganization removes the organization row.
func (m *MySQLOrganizationRepository) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, uuidBytes(id))
	if err != nil {
		return apperrors.Wrap(err, "failed to delete organization")
	}
	return requireAffected(result, domain.ErrOrganizationNotFound)
}

// CreateGroup inserts a new group.
func (m *MySQLOrganizationRepository) CreateGroup(ctx context.Context, group *domain.Group) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO org_groups (id, organization_id, name, created_at) VALUES (?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		uuidBytes(group.ID),
		uuidBytes(group.OrganizationID),
		group.Name,
		group.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create group")
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (m *MySQLOrganizationRepository) GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	querier := database.GetTx(ctx, m.db)

	var group domain.Group
	var idBytes, orgIDBytes []byte
	query := `SELECT id, organization_id, name, created_at FROM org_groups WHERE id = ?`

	err := querier.QueryRowContext(ctx, query, uuidBytes(id)).Scan(
		&idBytes, &orgIDBytes, &group.Name, &group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get group")
	}

	if err := group.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal group id")
	}
	if err := group.OrganizationID.UnmarshalBinary(orgIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal group organization id")
	}
	return &group, nil
}

// DeleteGroupsByOrganization removes every group of the organization.
func (m *MySQLOrganizationRepository) DeleteGroupsByOrganization(
	ctx context.Context,
	organizationID uuid.UUID,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM org_groups WHERE organization_id = ?`,
		uuidBytes(organizationID),
	)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete groups")
	}
	return result.RowsAffected()
}

// CreateRole inserts a new role.
func (m *MySQLOrganizationRepository) CreateRole(ctx context.Context, role *domain.Role) error {
	querier := database.GetTx(ctx, m.db)

	permissions, err := json.Marshal(permissionsOrEmpty(role.Permissions))
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role permissions")
	}

	query := `INSERT INTO org_roles (id, group_id, name, permissions, priority, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		uuidBytes(role.ID),
		uuidBytes(role.GroupID),
		role.Name,
		permissions,
		role.Priority,
		role.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create role")
	}
	return nil
}

// GetRole retrieves a role by ID.
func (m *MySQLOrganizationRepository) GetRole(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	var role domain.Role
	var idBytes, groupIDBytes, permissions []byte
	query := `SELECT id, group_id, name, permissions, priority, created_at FROM org_roles WHERE id = ?`

	err := querier.QueryRowContext(ctx, query, uuidBytes(id)).Scan(
		&idBytes, &groupIDBytes, &role.Name, &permissions, &role.Priority, &role.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get role")
	}

	if err := role.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role id")
	}
	if err := role.GroupID.UnmarshalBinary(groupIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role group id")
	}
	if err := json.Unmarshal(permissions, &role.Permissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role permissions")
	}
	return &role, nil
}

// DeleteRolesByOrganization removes every role in every group of the organization.
func (m *MySQLOrganizationRepository) DeleteRolesByOrganization(
	ctx context.Context,
	organizationID uuid.UUID,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE org_roles FROM org_roles
			  INNER JOIN org_groups ON org_groups.id = org_roles.group_id
			  WHERE org_groups.organization_id = ?`

	result, err := querier.ExecContext(ctx, query, uuidBytes(organizationID))
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete roles")
	}
	return result.RowsAffected()
}
