package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/outbox/domain"
)

// CacheInvalidator is the subset of the session cache the processor drives.
type CacheInvalidator interface {
	DeleteAllSessionsForSubject(ctx context.Context, subjectID string) (int, error)
	InvalidateSetting(ctx context.Context, entityType, entityID, key string) error
}

// InvalidationProcessor applies cache invalidation events.
type InvalidationProcessor struct {
	cache  CacheInvalidator
	logger *slog.Logger
}

// NewInvalidationProcessor creates a new InvalidationProcessor.
func NewInvalidationProcessor(cache CacheInvalidator, logger *slog.Logger) *InvalidationProcessor {
	return &InvalidationProcessor{cache: cache, logger: logger}
}

// Process dispatches on the event type. Unknown types are logged and acknowledged so
// they do not block the queue.
func (p *InvalidationProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	switch event.EventType {
	case domain.EventSessionsRevokeAll:
		var payload domain.RevokeSessionsPayload
		if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
			return apperrors.Wrap(err, "invalid sessions.revoke_all payload")
		}
		deleted, err := p.cache.DeleteAllSessionsForSubject(ctx, payload.SubjectID)
		if err != nil {
			return err
		}
		p.logger.Info("revoked sessions",
			slog.String("subject_id", payload.SubjectID),
			slog.Int("count", deleted),
		)
		return nil

	case domain.EventSettingInvalidate:
		var payload domain.InvalidateSettingPayload
		if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
			return apperrors.Wrap(err, "invalid setting.invalidate payload")
		}
		return p.cache.InvalidateSetting(ctx, payload.EntityType, payload.EntityID, payload.Key)

	default:
		p.logger.Warn("unknown outbox event type", slog.String("event_type", event.EventType))
		return nil
	}
}
