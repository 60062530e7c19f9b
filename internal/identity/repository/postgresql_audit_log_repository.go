package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/planner/internal/database"
	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/identity/domain"
)

const auditLogColumns = `id, subject_id, action, resource_type, resource_id, before_state,
	after_state, ip_address, user_agent, request_id, signature, is_signed, created_at`

// PostgreSQLAuditLogRepository implements AuditLog persistence for PostgreSQL.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQLAuditLogRepository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

// Create inserts a new audit log entry. Empty before/after states are stored as NULL.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO audit_logs (` + auditLogColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := querier.ExecContext(
		ctx,
		query,
		auditLog.ID,
		toNullUUID(auditLog.SubjectID),
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
func (p *PostgreSQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	filter domain.AuditLogFilter,
) ([]*domain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	conditions := []string{"resource_type = $1", "resource_id = $2"}
	args := []any{filter.ResourceType, filter.ResourceID}

	if filter.CreatedAtFrom != nil {
		args = append(args, *filter.CreatedAtFrom)
		conditions = append(conditions, "created_at >= $"+strconv.Itoa(len(args)))
	}
	if filter.CreatedAtTo != nil {
		args = append(args, *filter.CreatedAtTo)
		conditions = append(conditions, "created_at <= $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + auditLogColumns + ` FROM audit_logs WHERE ` + strings.Join(conditions, " AND ")
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)+1) +
		" OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanPostgreSQLAuditLogs(rows)
}

// ListBetween returns entries with start <= created_at < end oldest first.
func (p *PostgreSQLAuditLogRepository) ListBetween(
	ctx context.Context,
	start, end time.Time,
	offset, limit int,
) ([]*domain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + auditLogColumns + ` FROM audit_logs
			  WHERE created_at >= $1 AND created_at < $2
			  ORDER BY created_at ASC, id ASC LIMIT $3 OFFSET $4`

	rows, err := querier.QueryContext(ctx, query, start, end, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanPostgreSQLAuditLogs(rows)
}

func scanPostgreSQLAuditLogs(rows *sql.Rows) ([]*domain.AuditLog, error) {
	auditLogs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		var auditLog domain.AuditLog
		var subjectID uuid.NullUUID
		var before, after []byte

		err := rows.Scan(
			&auditLog.ID,
			&subjectID,
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

		auditLog.SubjectID = fromNullUUID(subjectID)
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
func (p *PostgreSQLAuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}
	return result.RowsAffected()
}
