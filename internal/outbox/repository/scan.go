// Package repository persists cache invalidation events for PostgreSQL and MySQL.
package repository

import (
	"database/sql"

	"github.com/google/uuid"

	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/outbox/domain"
)

const eventColumns = `id, event_type, payload, status, retries, last_error, processed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent reads one row; decodeID converts the driver representation of the id column.
func scanEvent(row rowScanner, decodeID func(raw any) (uuid.UUID, error)) (*domain.OutboxEvent, error) {
	var (
		event     domain.OutboxEvent
		rawID     any
		lastError sql.NullString
		processed sql.NullTime
	)
	if err := row.Scan(
		&rawID,
		&event.EventType,
		&event.Payload,
		&event.Status,
		&event.Retries,
		&lastError,
		&processed,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, apperrors.Wrap(err, "failed to scan outbox event")
	}

	id, err := decodeID(rawID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode outbox event id")
	}
	event.ID = id
	if lastError.Valid {
		event.LastError = &lastError.String
	}
	if processed.Valid {
		event.ProcessedAt = &processed.Time
	}
	return &event, nil
}

func textID(raw any) (uuid.UUID, error) {
	switch v := raw.(type) {
	case string:
		return uuid.Parse(v)
	case []byte:
		return uuid.ParseBytes(v)
	default:
		return uuid.Nil, apperrors.New("unexpected id type")
	}
}

func binaryID(raw any) (uuid.UUID, error) {
	b, ok := raw.([]byte)
	if !ok {
		return uuid.Nil, apperrors.New("unexpected id type")
	}
	return uuid.FromBytes(b)
}
