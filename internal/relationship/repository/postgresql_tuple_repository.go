package repository

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/allisson/planner/internal/database"
	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/relationship/domain"
)

// PostgreSQLTupleRepository implements tuple persistence for PostgreSQL.
type PostgreSQLTupleRepository struct {
	db *sql.DB
}

// NewPostgreSQLTupleRepository creates a new PostgreSQL tuple repository.
func NewPostgreSQLTupleRepository(db *sql.DB) *PostgreSQLTupleRepository {
	return &PostgreSQLTupleRepository{db: db}
}

func postgresPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// Touch inserts the tuple unless it already exists.
func (p *PostgreSQLTupleRepository) Touch(ctx context.Context, tuple *domain.Tuple) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO relationship_tuples (` + tupleColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT DO NOTHING`

	_, err := querier.ExecContext(
		ctx,
		query,
		string(tuple.ResourceType),
		tuple.ResourceID,
		tuple.Relation,
		tuple.SubjectType,
		tuple.SubjectID,
		tuple.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to write relationship")
	}
	return nil
}

// Delete removes the tuple. Removing an absent tuple is not an error.
func (p *PostgreSQLTupleRepository) Delete(ctx context.Context, tuple *domain.Tuple) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM relationship_tuples
			  WHERE resource_type = $1 AND resource_id = $2 AND relation = $3
			  AND subject_type = $4 AND subject_id = $5`

	_, err := querier.ExecContext(
		ctx,
		query,
		string(tuple.ResourceType),
		tuple.ResourceID,
		tuple.Relation,
		tuple.SubjectType,
		tuple.SubjectID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete relationship")
	}
	return nil
}

// DeleteByResource removes every tuple on the resource and every tuple naming it as subject.
func (p *PostgreSQLTupleRepository) DeleteByResource(ctx context.Context, ref domain.ResourceRef) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM relationship_tuples
			  WHERE (resource_type = $1 AND resource_id = $2)
			  OR (subject_type = $1 AND subject_id = $2)`

	result, err := querier.ExecContext(ctx, query, string(ref.Type), ref.ID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete resource relationships")
	}
	return result.RowsAffected()
}

// List returns the tuples matching filter.
func (p *PostgreSQLTupleRepository) List(ctx context.Context, filter domain.Filter) ([]*domain.Tuple, error) {
	querier := database.GetTx(ctx, p.db)

	where, args := buildFilter(filter, postgresPlaceholder)
	query := `SELECT ` + tupleColumns + ` FROM relationship_tuples` + where +
		` ORDER BY resource_type, resource_id, relation, subject_type, subject_id`

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list relationships")
	}
	defer func() {
		_ = rows.Close()
	}()

	tuples, err := scanTuples(rows)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan relationships")
	}
	return tuples, nil
}

// SubjectRelations returns the relations the subject holds directly on the resource.
func (p *PostgreSQLTupleRepository) SubjectRelations(
	ctx context.Context,
	resource domain.ResourceRef,
	subjectType, subjectID string,
) ([]string, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT relation FROM relationship_tuples
			  WHERE resource_type = $1 AND resource_id = $2 AND subject_type = $3 AND subject_id = $4`

	rows, err := querier.QueryContext(ctx, query, string(resource.Type), resource.ID, subjectType, subjectID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read subject relations")
	}
	defer func() {
		_ = rows.Close()
	}()

	relations, err := scanStrings(rows)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan subject relations")
	}
	return relations, nil
}

// Parents returns the resources the given resource links to with a parent tuple.
func (p *PostgreSQLTupleRepository) Parents(ctx context.Context, resource domain.ResourceRef) ([]domain.ResourceRef, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT subject_type, subject_id FROM relationship_tuples
			  WHERE resource_type = $1 AND resource_id = $2 AND relation = $3`

	rows, err := querier.QueryContext(ctx, query, string(resource.Type), resource.ID, domain.RelationParent)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read parents")
	}
	defer func() {
		_ = rows.Close()
	}()

	refs, err := scanRefs(rows)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan parents")
	}
	return refs, nil
}

// Children returns the resources linking to parent with a parent tuple.
func (p *PostgreSQLTupleRepository) Children(ctx context.Context, parent domain.ResourceRef) ([]domain.ResourceRef, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT resource_type, resource_id FROM relationship_tuples
			  WHERE relation = $1 AND subject_type = $2 AND subject_id = $3`

	rows, err := querier.QueryContext(ctx, query, domain.RelationParent, string(parent.Type), parent.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read children")
	}
	defer func() {
		_ = rows.Close()
	}()

	refs, err := scanRefs(rows)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan children")
	}
	return refs, nil
}
