package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/planner/internal/relationship/domain"
)

func TestMySQLTupleRepository_Touch(t *testing.T) {
	_, repo, mock := newMockDB(t)
	tuple := testTuple()

	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE relation = relation")).
		WithArgs("board", "b1", "viewer", "user", "u1", tuple.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Touch(context.Background(), tuple))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTupleRepository_DeleteByResource(t *testing.T) {
	_, repo, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("OR (subject_type = ? AND subject_id = ?)")).
		WithArgs("project", "p1", "project", "p1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteByResource(context.Background(), domain.ResourceRef{Type: domain.ResourceProject, ID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMySQLTupleRepository_List(t *testing.T) {
	_, repo, mock := newMockDB(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE resource_type = ? AND resource_id = ?")).
		WithArgs("organization", "o1").
		WillReturnRows(
			sqlmock.NewRows([]string{"resource_type", "resource_id", "relation", "subject_type", "subject_id", "created_at"}).
				AddRow("organization", "o1", "admin", "user", "u1", created),
		)

	tuples, err := repo.List(context.Background(), domain.Filter{ResourceType: domain.ResourceOrganization, ResourceID: "o1"})
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.Equal(t, domain.ResourceOrganization, tuples[0].ResourceType)
	assert.Equal(t, created, tuples[0].CreatedAt)
}

func TestMySQLTupleRepository_Children(t *testing.T) {
	_, repo, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE relation = ? AND subject_type = ? AND subject_id = ?")).
		WithArgs("parent", "team", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"resource_type", "resource_id"}).AddRow("project", "p1"))

	children, err := repo.Children(context.Background(), domain.ResourceRef{Type: domain.ResourceTeam, ID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ResourceRef{{Type: domain.ResourceProject, ID: "p1"}}, children)
}

func TestBuildFilter(t *testing.T) {
	where, args := buildFilter(domain.Filter{}, postgresPlaceholder)
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = buildFilter(domain.Filter{ResourceType: domain.ResourceBoard, SubjectID: "u1"}, postgresPlaceholder)
	assert.Equal(t, " WHERE resource_type = $1 AND subject_id = $2", where)
	assert.Equal(t, []any{"board", "u1"}, args)

	where, _ = buildFilter(domain.Filter{ResourceType: domain.ResourceBoard, SubjectID: "u1"}, mysqlPlaceholder)
	assert.Equal(t, " WHERE resource_type = ? AND subject_id = ?", where)
}
