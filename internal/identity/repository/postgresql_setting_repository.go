package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/planner/internal/database"
	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/identity/domain"
)

// PostgreSQLSettingRepository holds the authoritative copy of settings for PostgreSQL.
type PostgreSQLSettingRepository struct {
	db *sql.DB
}

// NewPostgreSQLSettingRepository creates a new PostgreSQLSettingRepository.
func NewPostgreSQLSettingRepository(db *sql.DB) *PostgreSQLSettingRepository {
	return &PostgreSQLSettingRepository{db: db}
}

// Get retrieves one setting.
func (p *PostgreSQLSettingRepository) Get(
	ctx context.Context,
	entityType, entityID, key string,
) (*domain.Setting, error) {
	querier := database.GetTx(ctx, p.db)

	setting := domain.Setting{EntityType: entityType, EntityID: entityID, Key: key}
	query := `SELECT value, updated_at FROM settings
			  WHERE entity_type = $1 AND entity_id = $2 AND setting_key = $3`

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
func (p *PostgreSQLSettingRepository) Upsert(ctx context.Context, setting *domain.Setting) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO settings (entity_type, entity_id, setting_key, value, updated_at)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (entity_type, entity_id, setting_key)
			  DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

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
func (p *PostgreSQLSettingRepository) Delete(ctx context.Context, entityType, entityID, key string) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM settings WHERE entity_type = $1 AND entity_id = $2 AND setting_key = $3`

	if _, err := querier.ExecContext(ctx, query, entityType, entityID, key); err != nil {
		return apperrors.Wrap(err, "failed to delete setting")
	}
	return nil
}

// ListByEntity returns every setting of one entity ordered by key.
func (p *PostgreSQLSettingRepository) ListByEntity(
	ctx context.Context,
	entityType, entityID string,
) ([]*domain.Setting, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT setting_key, value, updated_at FROM settings
			  WHERE entity_type = $1 AND entity_id = $2 ORDER BY setting_key`

	rows, err := querier.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list settings")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanSettings(rows, entityType, entityID)
}
