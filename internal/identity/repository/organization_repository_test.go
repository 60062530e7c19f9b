package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/planner/internal/identity/domain"
)

func TestPostgreSQLOrganizationRepository_Roles(t *testing.T) {
	ctx := context.Background()
	roleID := uuid.Must(uuid.NewV7())
	groupID := uuid.Must(uuid.NewV7())
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Success_CreateRoleStoresEmptyPermissionsAsArray", func(t *testing.T) {
		db, mock := newSQLMock(t)

		mock.ExpectExec("INSERT INTO org_roles").
			WithArgs(roleID, groupID, "viewer", []byte("[]"), 1, created).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewPostgreSQLOrganizationRepository(db).CreateRole(ctx, &domain.Role{
			ID: roleID, GroupID: groupID, Name: "viewer", Priority: 1, CreatedAt: created,
		})
		assert.NoError(t, err)
	})

	t.Run("Success_GetRole", func(t *testing.T) {
		db, mock := newSQLMock(t)

		mock.ExpectQuery("FROM org_roles WHERE id").
			WithArgs(roleID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "name", "permissions", "priority", "created_at"}).
				AddRow(roleID.String(), groupID.String(), "editor", []byte(`["tasks.*","audit.read"]`), 5, created))

		role, err := NewPostgreSQLOrganizationRepository(db).GetRole(ctx, roleID)
		require.NoError(t, err)
		assert.Equal(t, groupID, role.GroupID)
		assert.Equal(t, []string{"tasks.*", "audit.read"}, role.Permissions)
		assert.True(t, role.PermissionSet().Has("tasks.create"))
	})

	t.Run("Error_RoleNotFound", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectQuery("FROM org_roles WHERE id").WillReturnError(sql.ErrNoRows)

		_, err := NewPostgreSQLOrganizationRepository(db).GetRole(ctx, roleID)
		assert.ErrorIs(t, err, domain.ErrRoleNotFound)
	})
}

func TestPostgreSQLOrganizationRepository_Cascade(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.Must(uuid.NewV7())

	db, mock := newSQLMock(t)
	repo := NewPostgreSQLOrganizationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM org_roles WHERE group_id IN (SELECT id FROM org_groups WHERE organization_id = $1)")).
		WithArgs(orgID).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM org_groups WHERE organization_id = $1")).
		WithArgs(orgID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM organizations WHERE id = $1")).
		WithArgs(orgID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	roles, err := repo.DeleteRolesByOrganization(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), roles)

	groups, err := repo.DeleteGroupsByOrganization(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), groups)

	err = repo.DeleteOrganization(ctx, orgID)
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
}

func TestMySQLOrganizationRepository_GetGroup(t *testing.T) {
	ctx := context.Background()
	groupID := uuid.Must(uuid.NewV7())
	orgID := uuid.Must(uuid.NewV7())

	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM org_groups WHERE id = ?")).
		WithArgs(uuidBytes(groupID)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name", "created_at"}).
			AddRow(uuidBytes(groupID), uuidBytes(orgID), "engineering", time.Now().UTC()))

	group, err := NewMySQLOrganizationRepository(db).GetGroup(ctx, groupID)
	require.NoError(t, err)
	assert.Equal(t, groupID, group.ID)
	assert.Equal(t, orgID, group.OrganizationID)
	assert.Equal(t, "engineering", group.Name)
}

func TestMySQLOrganizationRepository_DeleteRolesByOrganization(t *testing.T) {
	orgID := uuid.Must(uuid.NewV7())
	db, mock := newSQLMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE org_roles FROM org_roles")).
		WithArgs(uuidBytes(orgID)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := NewMySQLOrganizationRepository(db).DeleteRolesByOrganization(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
