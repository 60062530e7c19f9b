package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/planner/internal/database"
	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/identity/domain"
)

// MySQLSettingRepository holds the authoritative copy of settings for MySQL.
type MySQLSettingRepository struct {
	db *sql.DB
}

// NewMySQLSettingRepository creates a new MySQLSettingRepository.
func NewMySQLSettingRepository(db *sql.DB) *MySQLSettingRepository {
	return &MySQLSettingRepository{db: db}
}

// Get retrieves one setting.
func (m *MySQLSettingRepository) Get(
	ctx context.Context,
	entityType, entityID, key string,
) (*domain.Setting, error) {
	querier := database.GetTx(ctx, m.db)

	setting := domain.Setting{EntityType: entityType, EntityID: entityID, Key: key}
	query := `SELECT value, updated_at FROM settings
			  WHERE entity_type = ? AND entity_id = ? AND setting_key = ?`

	var value []byte
	err := querier.QueryRowContext(ctx, query, entityType, entityID, key).Scan(&value, &setting.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSettingNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get setting")
	}
	setting.Value = value
	return &setting, nil
}

// Upsert inserts or replaces one setting.
func (m *MySQLSettingRepository) Upsert(ctx context.Context, setting *domain.Setting) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO settings (entity_type, entity_id, setting_key, value, updated_at)
			  VALUES (?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)`

	_, err := querier.ExecContext(
		ctx,
		query,
		setting.EntityType,
		setting.EntityID,
		setting.Key,
		[]byte(setting.Value),
		setting.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert setting")
	}
	return nil
}

// Delete removes one setting. Removing an absent setting is not an error.
func (m *MySQLSettingRepository) Delete(ctx context.Context, entityType, entityID, key string) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM settings WHERE entity_type = ? AND entity_id = ? AND setting_key = ?`

	if _, err := querier.ExecContext(ctx, query, entityType, entityID, key); err != nil {
		return apperrors.Wrap(err, "failed to delete setting")
	}
	return nil
}

// ListByEntity returns every setting of one entity ordered by key.
func (m *MySQLSettingRepository) ListByEntity(
	ctx context.Context,
	entityType, entityID string,
) ([]*domain.Setting, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT setting_key, value, updated_at FROM settings
			  WHERE entity_type = ? AND entity_id = ? ORDER BY setting_key`

	rows, err := querier.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list settings")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanSettings(rows, entityType, entityID)
}
