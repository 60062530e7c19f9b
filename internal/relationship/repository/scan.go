// Package repository persists relationship tuples in PostgreSQL or MySQL.
//
// Tuples live in a single relationship_tuples table whose primary key spans all
// five tuple fields, so writes are idempotent and every read observes the latest
// committed write.
package repository

import (
	"database/sql"
	"strings"

	"github.com/allisson/planner/internal/relationship/domain"
)

const tupleColumns = "resource_type, resource_id, relation, subject_type, subject_id, created_at"

// buildFilter renders the WHERE clause for filter using placeholder(n) for the
// n-th argument (1-based).
func buildFilter(filter domain.Filter, placeholder func(int) string) (string, []any) {
	var clauses []string
	var args []any

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, column+" = "+placeholder(len(args)))
	}

	add("resource_type", string(filter.ResourceType))
	add("resource_id", filter.ResourceID)
	add("relation", filter.Relation)
	add("subject_type", filter.SubjectType)
	add("subject_id", filter.SubjectID)

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanTuples(rows *sql.Rows) ([]*domain.Tuple, error) {
	var tuples []*domain.Tuple
	for rows.Next() {
		var t domain.Tuple
		var resourceType string
		if err := rows.Scan(
			&resourceType, &t.ResourceID, &t.Relation, &t.SubjectType, &t.SubjectID, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		t.ResourceType = domain.ResourceType(resourceType)
		tuples = append(tuples, &t)
	}
	return tuples, rows.Err()
}

func scanRefs(rows *sql.Rows) ([]domain.ResourceRef, error) {
	var refs []domain.ResourceRef
	for rows.Next() {
		var resourceType, id string
		if err := rows.Scan(&resourceType, &id); err != nil {
			return nil, err
		}
		refs = append(refs, domain.ResourceRef{Type: domain.ResourceType(resourceType), ID: id})
	}
	return refs, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
