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

// PostgreSQLOrganizationRepository handles organizations, groups and roles for PostgreSQL.
type PostgreSQLOrganizationRepository struct {
	db *sql.DB
}

// NewPostgreSQLOrganizationRepository creates a new PostgreSQLOrganizationRepository.
func NewPostgreSQLOrganizationRepository(db *sql.DB) *PostgreSQLOrganizationRepository {
	return &PostgreSQLOrganizationRepository{db: db}
}

// CreateOrganization inserts a new organization.
func (r *PostgreSQLOrganizationRepository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO organizations (id, name, created_at) VALUES ($1, $2, $3)`

	if _, err := querier.ExecContext(ctx, query, org.ID, org.Name, org.CreatedAt); err != nil {
		return apperrors.Wrap(err, "failed to create organization")
	}
	return nil
}

// GetOrganization retrieves an organization by ID.
func (r *PostgreSQLOrganizationRepository) GetOrganization(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Organization, error) {
	querier := database.GetTx(ctx, r.db)

	var org domain.Organization
	query := `SELECT id, name, created_at FROM organizations WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get organization")
	}
	return &org, nil
}

// DeleteOrganization removes the organization row.
func (r *PostgreSQLOrganizationRepository) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete organization")
	}
	return requireAffected(result, domain.ErrOrganizationNotFound)
}

// CreateGroup inserts a new group.
func (r *PostgreSQLOrganizationRepository) CreateGroup(ctx context.Context, group *domain.Group) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO org_groups (id, organization_id, name, created_at) VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(ctx, query, group.ID, group.OrganizationID, group.Name, group.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create group")
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (r *PostgreSQLOrganizationRepository) GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	querier := database.GetTx(ctx, r.db)

	var group domain.Group
	query := `SELECT id, organization_id, name, created_at FROM org_groups WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&group.ID, &group.OrganizationID, &group.Name, &group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get group")
	}
	return &group, nil
}

// DeleteGroupsByOrganization removes every group of the organization.
func (r *PostgreSQLOrganizationRepository) DeleteGroupsByOrganization(
	ctx context.Context,
	organizationID uuid.UUID,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM org_groups WHERE organization_id = $1`, organizationID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete groups")
	}
	return result.RowsAffected()
}

// CreateRole inserts a new role.
func (r *PostgreSQLOrganizationRepository) CreateRole(ctx context.Context, role *domain.Role) error {
	querier := database.GetTx(ctx, r.db)

	permissions, err := json.Marshal(permissionsOrEmpty(role.Permissions))
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role permissions")
	}

	query := `INSERT INTO org_roles (id, group_id, name, permissions, priority, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = querier.ExecContext(
		ctx,
		query,
		role.ID,
		role.GroupID,
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
func (r *PostgreSQLOrganizationRepository) GetRole(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	querier := database.GetTx(ctx, r.db)

	var role domain.Role
	var permissions []byte
	query := `SELECT id, group_id, name, permissions, priority, created_at FROM org_roles WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&role.ID, &role.GroupID, &role.Name, &permissions, &role.Priority, &role.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get role")
	}

	if err := json.Unmarshal(permissions, &role.Permissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role permissions")
	}
	return &role, nil
}

// DeleteRolesByOrganization removes every role in every group of the organization.
func (r *PostgreSQLOrganizationRepository) DeleteRolesByOrganization(
	ctx context.Context,
	organizationID uuid.UUID,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM org_roles
			  WHERE group_id IN (SELECT id FROM org_groups WHERE organization_id = $1)`

	result, err := querier.ExecContext(ctx, query, organizationID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete roles")
	}
	return result.RowsAffected()
}
