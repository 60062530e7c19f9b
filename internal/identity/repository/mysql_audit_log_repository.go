package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/allisson/planner/internal/database"
	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/identity/domain"
)

// MySQLAuditLogRepository implements AuditLog persistence for MySQL.
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// NewMySQLAuditLogRepository creates a new MySQLAuditLogRepository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}

// Create inserts a new audit log entry. Empty before/after states are stored as NULL.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO audit_logs (` + auditLogColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		uuidBytes(auditLog.ID),
		binaryUUID(auditLog.SubjectID),
		auditLog.Action,
		auditLog.ResourceType,
		auditLog.ResourceID,
		nullJSON(auditLog.Before),
		nullJSON(auditLog.After),
		auditLog.IPAddress,
		auditLog.UserAgent,
		auditLog.RequestID,
		nullBytes(auditLog.Signature),
		auditLog.IsSigned,
		auditLog.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}
	return nil
}

// List retrieves the audit logs of one resource newest first with pagination and
// optional inclusive created_at bounds. Returns an empty slice when nothing matches.
func (m *MySQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	filter domain.AuditLogFilter,
) ([]*domain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	conditions := []string{"resource_type = ?", "resource_id = ?"}
	args := []any{filter.ResourceType, filter.ResourceID}

	if filter.CreatedAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.CreatedAtFrom)
	}
	if filter.CreatedAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filter.CreatedAtTo)
	}

	query := `SELECT ` + auditLogColumns + ` FROM audit_logs WHERE ` + strings.Join(conditions, " AND ")
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanMySQLAuditLogs(rows)
}

// ListBetween returns entries with start <= created_at < end oldest first.
func (m *MySQLAuditLogRepository) ListBetween(
	ctx context.Context,
	start, end time.Time,
	offset, limit int,
) ([]*domain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + auditLogColumns + ` FROM audit_logs
			  WHERE created_at >= ? AND created_at < ?
			  ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, start, end, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanMySQLAuditLogs(rows)
}

func scanMySQLAuditLogs(rows *sql.Rows) ([]*domain.AuditLog, error) {
	auditLogs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		var auditLog domain.AuditLog
		var idBytes, subjectIDBytes, before, after []byte

		err := rows.Scan(
			&idBytes,
			&subjectIDBytes,
			&auditLog.Action,
			&auditLog.ResourceType,
			&auditLog.ResourceID,
			&before,
			&after,
			&auditLog.IPAddress,
			&auditLog.UserAgent,
			&auditLog.RequestID,
			&auditLog.Signature,
			&auditLog.IsSigned,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}

		if err := auditLog.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log id")
		}
		if auditLog.SubjectID, err = parseBinaryUUID(subjectIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log subject_id")
		}
		auditLog.Before = before
		auditLog.After = after
		auditLogs = append(auditLogs, &auditLog)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}
	return auditLogs, nil
}

// DeleteOlderThan removes audit logs created before the given time and returns the count.
func (m *MySQLAuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < ?`, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}
	return result.RowsAffected()
}
