package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/allisson/planner/internal/database"
	identityDomain "github.com/allisson/planner/internal/identity/domain"
	"github.com/allisson/planner/internal/metrics"
)

const settingsCacheName = "settings"

type settingUseCase struct {
	config    Config
	txManager database.TxManager
	settings  SettingRepository
	cache     SessionCache
	publisher InvalidationPublisher
	metrics   metrics.BusinessMetrics
	logger    *slog.Logger
	loads     singleflight.Group
}

// NewSettingUseCase creates a SettingUseCase. Concurrent misses on one key share a
// single durable read.
func NewSettingUseCase(
	config Config,
	txManager database.TxManager,
	settings SettingRepository,
	cache SessionCache,
	publisher InvalidationPublisher,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) SettingUseCase {
	if config.SettingsTTL <= 0 {
		config.SettingsTTL = time.Hour
	}
	return &settingUseCase{
		config:    config,
		txManager: txManager,
		settings:  settings,
		cache:     cache,
		publisher: publisher,
		metrics:   businessMetrics,
		logger:    logger,
	}
}

// GetSetting reads the cache first. On a miss, or when the cache cannot be reached,
// the durable value is loaded and written back to the cache.
func (s *settingUseCase) GetSetting(ctx context.Context, entityType, entityID, key string) (json.RawMessage, error) {
	ctx, cancel := storeTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	value, found, err := s.cache.GetSetting(ctx, entityType, entityID, key)
	if err != nil {
		s.logger.Warn("settings cache read failed, using durable store",
			slog.String("entity", entityType+":"+entityID),
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
	if err == nil && found {
		s.metrics.RecordCacheLookup(ctx, settingsCacheName, true)
		return json.RawMessage(value), nil
	}
	s.metrics.RecordCacheLookup(ctx, settingsCacheName, false)

	// The shared load outlives any single caller; each caller only stops waiting.
	loadCtx := context.WithoutCancel(ctx)
	result := s.loads.DoChan(entityType+":"+entityID+":"+key, func() (any, error) {
		ctx, cancel := storeTimeout(loadCtx, s.config.StoreTimeout)
		defer cancel()

		setting, err := s.settings.Get(ctx, entityType, entityID, key)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetSetting(ctx, entityType, entityID, key, setting.Value, s.config.SettingsTTL); err != nil {
			s.logger.Warn("failed to populate settings cache",
				slog.String("entity", entityType+":"+entityID),
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
		return setting.Value, nil
	})
	select {
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SetSetting writes the durable store first and then the cache. If the cache write
// fails an invalidation is queued so no older cached value outlives its TTL.
func (s *settingUseCase) SetSetting(
	ctx context.Context,
	entityType, entityID, key string,
	value json.RawMessage,
) error {
	if !json.Valid(value) {
		return identityDomain.ErrInvalidSettingValue
	}

	ctx, cancel := storeTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	setting := &identityDomain.Setting{
		EntityType: entityType,
		EntityID:   entityID,
		Key:        key,
		Value:      value,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return err
	}

	if err := s.cache.SetSetting(ctx, entityType, entityID, key, value, s.config.SettingsTTL); err != nil {
		s.logger.Warn("settings cache write failed, queueing invalidation",
			slog.String("entity", entityType+":"+entityID),
			slog.String("key", key),
			slog.Any("error", err),
		)
		if err := s.publisher.InvalidateSetting(ctx, entityType, entityID, key); err != nil {
			s.logger.Error("failed to queue settings invalidation",
				slog.String("entity", entityType+":"+entityID),
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// DeleteSetting removes the durable value and queues the invalidation in one
// transaction. The cache is only touched after the delete committed.
func (s *settingUseCase) DeleteSetting(ctx context.Context, entityType, entityID, key string) error {
	ctx, cancel := storeTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.settings.Delete(ctx, entityType, entityID, key); err != nil {
			return err
		}
		return s.publisher.InvalidateSetting(ctx, entityType, entityID, key)
	})
	if err != nil {
		return err
	}

	if err := s.cache.InvalidateSetting(ctx, entityType, entityID, key); err != nil {
		s.logger.Warn("settings invalidation deferred to outbox",
			slog.String("entity", entityType+":"+entityID),
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
	return nil
}

// ListSettings returns every durable setting of the entity.
func (s *settingUseCase) ListSettings(
	ctx context.Context,
	entityType, entityID string,
) (map[string]json.RawMessage, error) {
	ctx, cancel := storeTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	settings, err := s.settings.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	values := make(map[string]json.RawMessage, len(settings))
	for _, setting := range settings {
		values[setting.Key] = setting.Value
	}
	return values, nil
}
