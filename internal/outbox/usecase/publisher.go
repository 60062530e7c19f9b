package usecase

import (
	"context"

	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/outbox/domain"
)

// Publisher records events. Called with a transactional context, the event commits or
// rolls back together with the caller's durable change.
type Publisher struct {
	outboxRepo OutboxEventRepository
}

// NewPublisher creates a new Publisher.
func NewPublisher(outboxRepo OutboxEventRepository) *Publisher {
	return &Publisher{outboxRepo: outboxRepo}
}

// RevokeSessions schedules deletion of every cached session of subjectID.
func (p *Publisher) RevokeSessions(ctx context.Context, subjectID string) error {
	return p.publish(ctx, domain.EventSessionsRevokeAll, domain.RevokeSessionsPayload{SubjectID: subjectID})
}

// InvalidateSetting schedules removal of a cached setting. Key "*" drops every
// setting of the entity.
func (p *Publisher) InvalidateSetting(ctx context.Context, entityType, entityID, key string) error {
	return p.publish(ctx, domain.EventSettingInvalidate, domain.InvalidateSettingPayload{
		EntityType: entityType,
		EntityID:   entityID,
		Key:        key,
	})
}

func (p *Publisher) publish(ctx context.Context, eventType string, payload any) error {
	event, err := domain.NewOutboxEvent(eventType, payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode outbox payload")
	}
	return p.outboxRepo.Create(ctx, event)
}
