// Package repository persists identity records in PostgreSQL or MySQL.
//
// PostgreSQL stores ids as native UUID columns; MySQL stores them as BINARY(16).
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/planner/internal/database"
	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/identity/domain"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, external_id, email, display_name, first_name, last_name, avatar_url,
	password_hash, is_active, organization_id, group_id, role_id, trust_level, is_admin,
	is_moderator, created_at, last_login_at, last_seen_at`

// userCreateError maps unique violations on users to the matching domain error.
func userCreateError(err error) error {
	if !database.IsUniqueViolation(err) {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "email") {
		return domain.ErrEmailAlreadyExists
	}
	return domain.ErrExternalIDAlreadyExists
}

func fromNullUUID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func toNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// uuidBytes encodes an id for a MySQL BINARY(16) column.
func uuidBytes(id uuid.UUID) []byte {
	b, _ := id.MarshalBinary()
	return b
}

// binaryUUID encodes an optional id for a MySQL BINARY(16) column.
func binaryUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return uuidBytes(*id)
}

// parseBinaryUUID decodes an optional MySQL BINARY(16) column.
func parseBinaryUUID(b []byte) (*uuid.UUID, error) {
	if b == nil {
		return nil, nil
	}
	id, err := uuid.FromBytes(b)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// requireAffected returns notFound when the statement matched no row.
func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// requireMySQLRow is requireAffected for MySQL, which reports changed rather than matched
// rows: a zero count is confirmed with a lookup by id before returning notFound.
func requireMySQLRow(
	ctx context.Context,
	querier database.Querier,
	result sql.Result,
	table string,
	id []byte,
	notFound error,
) error {
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = querier.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if err != nil {
		return apperrors.Wrapf(err, "failed to look up %s row", table)
	}
	return nil
}

func permissionsOrEmpty(permissions []string) []string {
	if permissions == nil {
		return []string{}
	}
	return permissions
}

// nullJSON stores an empty document as NULL.
func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func scanSettings(rows *sql.Rows, entityType, entityID string) ([]*domain.Setting, error) {
	settings := make([]*domain.Setting, 0)
	for rows.Next() {
		setting := domain.Setting{EntityType: entityType, EntityID: entityID}
		var value []byte
		if err := rows.Scan(&setting.Key, &value, &setting.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan setting")
		}
		setting.Value = value
		settings = append(settings, &setting)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate settings")
	}
	return settings, nil
}
